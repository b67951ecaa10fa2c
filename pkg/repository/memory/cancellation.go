package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
)

type cancellationRepository struct {
	mu sync.RWMutex
	// keyed by member_thread_id, the dedup key
	cancellations map[string]*model.Cancellation
}

func newCancellationRepository() *cancellationRepository {
	return &cancellationRepository{
		cancellations: make(map[string]*model.Cancellation),
	}
}

func copyCancellation(c *model.Cancellation) *model.Cancellation {
	copied := *c
	return &copied
}

func (r *cancellationRepository) Create(ctx context.Context, c *model.Cancellation) (*model.Cancellation, bool, error) {
	if c.MemberThreadID == "" {
		return nil, false, goerr.New("member thread ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.cancellations[c.MemberThreadID]; ok {
		return copyCancellation(existing), true, nil
	}

	stored := copyCancellation(c)
	stored.ID = c.MemberThreadID
	stored.CreatedAt = time.Now().UTC()
	r.cancellations[c.MemberThreadID] = stored

	return copyCancellation(stored), false, nil
}

func (r *cancellationRepository) FindByThreadID(ctx context.Context, memberThreadID string) (*model.Cancellation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cancellations[memberThreadID]
	if !ok {
		return nil, nil
	}
	return copyCancellation(c), nil
}
