package interfaces

import (
	"context"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
)

// CancellationRepository records member cancellations for back-office
// reporting, at most one per member thread.
type CancellationRepository interface {
	// Create stores the cancellation unless one already exists for its
	// MemberThreadID; existed=true means the stored row is returned unchanged.
	Create(ctx context.Context, c *model.Cancellation) (stored *model.Cancellation, existed bool, err error)

	// FindByThreadID returns the cancellation for a thread, or nil, nil
	FindByThreadID(ctx context.Context, memberThreadID string) (*model.Cancellation, error)
}
