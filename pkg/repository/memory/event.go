package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

type eventRepository struct {
	mu     sync.RWMutex
	events map[string]*model.SubscriptionEvent
}

func newEventRepository() *eventRepository {
	return &eventRepository{
		events: make(map[string]*model.SubscriptionEvent),
	}
}

func copyEvent(e *model.SubscriptionEvent) *model.SubscriptionEvent {
	copied := *e
	if e.RawPayload != nil {
		copied.RawPayload = make([]byte, len(e.RawPayload))
		copy(copied.RawPayload, e.RawPayload)
	}
	return &copied
}

func (r *eventRepository) Insert(ctx context.Context, ev *model.SubscriptionEvent) (*model.SubscriptionEvent, bool, error) {
	if ev.EventKey == "" {
		return nil, false, goerr.New("event key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.events[ev.EventKey]; ok {
		return copyEvent(existing), true, nil
	}

	stored := copyEvent(ev)
	stored.CreatedAt = time.Now().UTC()
	if stored.BaseKey == "" {
		stored.BaseKey = stored.EventKey
	}
	r.events[ev.EventKey] = stored

	return copyEvent(stored), false, nil
}

func (r *eventRepository) GetByKey(ctx context.Context, eventKey string) (*model.SubscriptionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[eventKey]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "subscription event not found", goerr.V("event_key", eventKey))
	}
	return copyEvent(ev), nil
}

func (r *eventRepository) LatestByBaseKey(ctx context.Context, baseKey string) (*model.SubscriptionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*model.SubscriptionEvent
	for _, ev := range r.events {
		if ev.BaseKey == baseKey {
			matches = append(matches, ev)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return copyEvent(matches[0]), nil
}

func (r *eventRepository) CountByKindSince(ctx context.Context, email string, period types.PeriodKey, kind types.EventKind, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	count := 0
	for _, ev := range r.events {
		if ev.MemberEmail != email || ev.PeriodKey != period || ev.Kind != kind {
			continue
		}
		if !since.IsZero() && !ev.CreatedAt.After(since) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *eventRepository) MarkNotified(ctx context.Context, eventKey string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[eventKey]
	if !ok {
		return goerr.Wrap(ErrNotFound, "subscription event not found", goerr.V("event_key", eventKey))
	}

	ev.Notified = true
	ev.NotifiedAt = at.UTC()
	ev.NotifyError = ""
	return nil
}

func (r *eventRepository) MarkNotifyError(ctx context.Context, eventKey string, notifyErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[eventKey]
	if !ok {
		return goerr.Wrap(ErrNotFound, "subscription event not found", goerr.V("event_key", eventKey))
	}

	ev.Notified = false
	ev.NotifyError = notifyErr
	return nil
}
