package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

type eventRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEventRepository(client *firestore.Client) *eventRepository {
	return &eventRepository{client: client}
}

func (r *eventRepository) collection() string {
	return prefixed(r.collectionPrefix, "subscription_events")
}

// Insert relies on the Create precondition for idempotency: a second delivery
// with the same key fails with AlreadyExists and the stored row is re-read.
func (r *eventRepository) Insert(ctx context.Context, ev *model.SubscriptionEvent) (*model.SubscriptionEvent, bool, error) {
	if ev.EventKey == "" {
		return nil, false, goerr.New("event key is required")
	}

	stored := *ev
	stored.CreatedAt = time.Now().UTC()
	if stored.BaseKey == "" {
		stored.BaseKey = stored.EventKey
	}

	doc := r.client.Collection(r.collection()).Doc(ev.EventKey)
	if _, err := doc.Create(ctx, &stored); err != nil {
		if status.Code(err) != codes.AlreadyExists {
			return nil, false, goerr.Wrap(err, "failed to insert subscription event", goerr.V("event_key", ev.EventKey))
		}

		existing, err := r.GetByKey(ctx, ev.EventKey)
		if err != nil {
			return nil, false, goerr.Wrap(err, "failed to re-read existing event", goerr.V("event_key", ev.EventKey))
		}
		return existing, true, nil
	}

	return &stored, false, nil
}

func (r *eventRepository) GetByKey(ctx context.Context, eventKey string) (*model.SubscriptionEvent, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(eventKey).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "subscription event not found", goerr.V("event_key", eventKey))
		}
		return nil, goerr.Wrap(err, "failed to get subscription event", goerr.V("event_key", eventKey))
	}

	var ev model.SubscriptionEvent
	if err := docSnap.DataTo(&ev); err != nil {
		return nil, goerr.Wrap(err, "failed to decode subscription event", goerr.V("event_key", eventKey))
	}
	return &ev, nil
}

func (r *eventRepository) LatestByBaseKey(ctx context.Context, baseKey string) (*model.SubscriptionEvent, error) {
	iter := r.client.Collection(r.collection()).
		Where("base_key", "==", baseKey).
		OrderBy("created_at", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query events by base key", goerr.V("base_key", baseKey))
	}

	var ev model.SubscriptionEvent
	if err := docSnap.DataTo(&ev); err != nil {
		return nil, goerr.Wrap(err, "failed to decode subscription event", goerr.V("doc_id", docSnap.Ref.ID))
	}
	return &ev, nil
}

func (r *eventRepository) CountByKindSince(ctx context.Context, email string, period types.PeriodKey, kind types.EventKind, since time.Time) (int, error) {
	q := r.client.Collection(r.collection()).
		Where("member_email", "==", model.NormalizeEmail(email)).
		Where("period_key", "==", period.String()).
		Where("event_kind", "==", kind.String())
	if !since.IsZero() {
		q = q.Where("created_at", ">", since)
	}

	// Select() fetches document refs only; counts stay small (attempts per
	// member per period) so no aggregation query is needed
	iter := q.Select().Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count events",
				goerr.V("email", email), goerr.V("period_key", period), goerr.V("kind", kind))
		}
		count++
	}
	return count, nil
}

func (r *eventRepository) MarkNotified(ctx context.Context, eventKey string, at time.Time) error {
	_, err := r.client.Collection(r.collection()).Doc(eventKey).Update(ctx, []firestore.Update{
		{Path: "notified", Value: true},
		{Path: "notified_at", Value: at.UTC()},
		{Path: "notify_error", Value: ""},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "subscription event not found", goerr.V("event_key", eventKey))
		}
		return goerr.Wrap(err, "failed to mark event notified", goerr.V("event_key", eventKey))
	}
	return nil
}

func (r *eventRepository) MarkNotifyError(ctx context.Context, eventKey string, notifyErr string) error {
	_, err := r.client.Collection(r.collection()).Doc(eventKey).Update(ctx, []firestore.Update{
		{Path: "notified", Value: false},
		{Path: "notify_error", Value: notifyErr},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "subscription event not found", goerr.V("event_key", eventKey))
		}
		return goerr.Wrap(err, "failed to record notify error", goerr.V("event_key", eventKey))
	}
	return nil
}
