package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

type threadRepository struct {
	mu      sync.RWMutex
	threads map[string]*model.MemberThread
}

func newThreadRepository() *threadRepository {
	return &threadRepository{
		threads: make(map[string]*model.MemberThread),
	}
}

func copyThread(t *model.MemberThread) *model.MemberThread {
	copied := *t
	if t.Metadata != nil {
		copied.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}

func (r *threadRepository) GetOrCreate(ctx context.Context, email string, tt types.ThreadType, period types.PeriodKey) (*model.MemberThread, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := model.ThreadID(email, tt, period)
	if existing, ok := r.threads[id]; ok {
		return copyThread(existing), false, nil
	}

	now := time.Now().UTC()
	created := model.NewMemberThread(email, tt, period)
	created.CreatedAt = now
	created.UpdatedAt = now
	r.threads[id] = created

	return copyThread(created), true, nil
}

func (r *threadRepository) Find(ctx context.Context, email string, tt types.ThreadType, period types.PeriodKey) (*model.MemberThread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.threads[model.ThreadID(email, tt, period)]
	if !ok {
		return nil, nil
	}
	return copyThread(t), nil
}

func (r *threadRepository) GetByID(ctx context.Context, id string) (*model.MemberThread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.threads[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "member thread not found", goerr.V("id", id))
	}
	return copyThread(t), nil
}

func (r *threadRepository) UpdatePointers(ctx context.Context, id string, channelID, threadTS string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.threads[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "member thread not found", goerr.V("id", id))
	}

	t.SlackChannelID = channelID
	t.SlackThreadTS = threadTS
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *threadRepository) ClearPointers(ctx context.Context, id string) error {
	return r.UpdatePointers(ctx, id, "", "")
}

func (r *threadRepository) UpdateMetadata(ctx context.Context, id string, meta map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.threads[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "member thread not found", goerr.V("id", id))
	}

	if t.Metadata == nil {
		t.Metadata = make(map[string]string, len(meta))
	}
	for k, v := range meta {
		t.Metadata[k] = v
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}
