package interfaces

import (
	"context"
	"time"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

// SubscriptionEventRepository is the append-only, idempotent ledger of
// classified billing events.
type SubscriptionEventRepository interface {
	// Insert stores the event keyed by its EventKey. When a row with the same
	// key already exists the stored row is returned with existed=true and
	// nothing is written; this is the sole duplicate-detection mechanism
	// under concurrent deliveries.
	Insert(ctx context.Context, ev *model.SubscriptionEvent) (stored *model.SubscriptionEvent, existed bool, err error)

	// GetByKey retrieves an event by its unique key
	GetByKey(ctx context.Context, eventKey string) (*model.SubscriptionEvent, error)

	// LatestByBaseKey returns the most recent row sharing the given base
	// fingerprint, including promoted attempt rows. Returns nil, nil when none
	// exists.
	LatestByBaseKey(ctx context.Context, baseKey string) (*model.SubscriptionEvent, error)

	// CountByKindSince counts rows of the given kind for (email, period)
	// created after since; a zero since counts the whole period.
	CountByKindSince(ctx context.Context, email string, period types.PeriodKey, kind types.EventKind, since time.Time) (int, error)

	// MarkNotified stamps the notify fields after a successful escalation
	MarkNotified(ctx context.Context, eventKey string, at time.Time) error

	// MarkNotifyError records the last notification failure, leaving the row
	// eligible for reprocessing on the next duplicate delivery
	MarkNotifyError(ctx context.Context, eventKey string, notifyErr string) error
}
