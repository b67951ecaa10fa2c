package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
	"github.com/memberops-lab/memberflow/pkg/utils/errutil"
	"github.com/memberops-lab/memberflow/pkg/utils/logging"
)

// StoreErrTag marks failures writing to the event ledger. The HTTP layer maps
// these to 5xx so the processor retries the delivery; everything else past
// parsing is absorbed once the row is durable.
var StoreErrTag = goerr.NewTag("event_store")

// IngestResult reports what happened to one delivery
type IngestResult struct {
	Event *model.SubscriptionEvent
	Kind  types.EventKind

	// Recorded means a new ledger row was written (including promoted attempts)
	Recorded bool
	// Duplicate means the delivery matched an already-processed row
	Duplicate bool
	// Notified means the escalation side effects completed
	Notified bool
	// NotifyError carries the escalation failure; the row stays recorded and
	// eligible for reprocessing on the next duplicate delivery
	NotifyError string
}

// Ingest runs the full pipeline for one raw webhook delivery: parse, classify,
// record idempotently, then escalate. A parse failure is the caller's error;
// everything past a durable record is absorbed into the result so the
// processor sees success once the event is stored.
func (uc *UseCases) Ingest(ctx context.Context, raw []byte) (*IngestResult, error) {
	now := uc.now()

	ev, err := model.ParseWebhookEvent(raw, now)
	if err != nil {
		return nil, err
	}

	kind := model.Classify(ev.Type, ev.Status)
	if !kind.IsSubscription() {
		logging.From(ctx).Debug("ignoring non-subscription event",
			"event_type", ev.Type, "status", ev.Status)
		return &IngestResult{Kind: kind}, nil
	}

	key := model.Fingerprint(raw, ev, kind)
	rec := model.NewSubscriptionEvent(key, kind, ev)

	stored, existed, err := uc.repo.SubscriptionEvent().Insert(ctx, rec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to record event", goerr.T(StoreErrTag))
	}

	if existed && kind == types.EventKindChargeFailed {
		stored, existed, err = uc.promoteAttempt(ctx, rec, stored, now)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to promote attempt", goerr.T(StoreErrTag))
		}
	}

	res := &IngestResult{
		Event:    stored,
		Kind:     stored.Kind,
		Recorded: !existed,
	}

	if existed && stored.Notified {
		logging.From(ctx).Debug("duplicate delivery, already processed",
			"event_key", stored.EventKey, "event_kind", stored.Kind)
		res.Duplicate = true
		return res, nil
	}
	res.Duplicate = existed

	// new row, or a previously recorded one whose escalation never completed
	if err := uc.escalate(ctx, stored, ev); err != nil {
		errutil.Log(ctx, err, "escalation failed")
		res.NotifyError = err.Error()
		if mErr := uc.repo.SubscriptionEvent().MarkNotifyError(ctx, stored.EventKey, err.Error()); mErr != nil {
			errutil.Log(ctx, mErr, "failed to record notify error")
		}
		return res, nil
	}

	if err := uc.repo.SubscriptionEvent().MarkNotified(ctx, stored.EventKey, uc.now()); err != nil {
		errutil.Log(ctx, err, "failed to mark event notified")
	}
	res.Notified = true

	return res, nil
}

// promoteAttempt decides whether a byte-identical charge-failure delivery is a
// processor re-delivery or a genuinely new billing attempt. The upstream sends
// no attempt identifier, so elapsed time since the most recent matching row is
// the signal: past the configured gap the delivery is recorded again under a
// synthetic attempt key.
func (uc *UseCases) promoteAttempt(ctx context.Context, rec, existing *model.SubscriptionEvent, now time.Time) (*model.SubscriptionEvent, bool, error) {
	latest, err := uc.repo.SubscriptionEvent().LatestByBaseKey(ctx, rec.BaseKey)
	if err != nil {
		return nil, false, err
	}
	if latest == nil {
		latest = existing
	}

	if now.Sub(latest.CreatedAt) <= uc.policy.RetryGap {
		return latest, true, nil
	}

	attempt := rec.WithAttemptKey(model.AttemptKey(rec.BaseKey, now))
	logging.From(ctx).Info("promoting re-delivery to new attempt",
		"base_key", rec.BaseKey,
		"attempt_key", attempt.EventKey,
		"gap", now.Sub(latest.CreatedAt).String())

	return uc.repo.SubscriptionEvent().Insert(ctx, attempt)
}
