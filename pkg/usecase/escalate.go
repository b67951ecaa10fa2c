package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
	"github.com/memberops-lab/memberflow/pkg/utils/errutil"
	"github.com/memberops-lab/memberflow/pkg/utils/logging"
)

// escalate dispatches the recorded event to its kind's workflow. The generic
// subscription_event kind is ledger-only: recorded for audit, no side effects.
func (uc *UseCases) escalate(ctx context.Context, rec *model.SubscriptionEvent, ev *model.WebhookEvent) error {
	switch rec.Kind {
	case types.EventKindChargeFailed:
		return uc.escalateChargeFailed(ctx, rec, ev)
	case types.EventKindCharged, types.EventKindRecovered:
		return uc.escalateRecovery(ctx, rec, ev)
	case types.EventKindDelinquent:
		return uc.escalateDelinquent(ctx, rec, ev)
	case types.EventKindCanceled:
		return uc.escalateCanceled(ctx, rec, ev)
	default:
		return nil
	}
}

func (uc *UseCases) bounceParams(rec *model.SubscriptionEvent) ThreadParams {
	return ThreadParams{
		Email:     rec.MemberEmail,
		Type:      types.ThreadTypeMonthlyBounce,
		Period:    rec.PeriodKey,
		ChannelID: uc.policy.BounceChannelID,
		Summary:   fmt.Sprintf("Payment issue: %s (%s)", rec.MemberEmail, rec.PeriodKey),
	}
}

func (uc *UseCases) escalateChargeFailed(ctx context.Context, rec *model.SubscriptionEvent, ev *model.WebhookEvent) error {
	mctx := uc.ResolveMemberContext(ctx, ev)

	params := uc.bounceParams(rec)
	thread, err := uc.EnsureThread(ctx, params)
	if err != nil {
		return err
	}

	// attempt counting restarts after the last in-period recovery
	attempts, err := uc.repo.SubscriptionEvent().CountByKindSince(ctx,
		rec.MemberEmail, rec.PeriodKey, types.EventKindChargeFailed, thread.LastRecoveryAt())
	if err != nil {
		return err
	}
	if attempts < 1 {
		attempts = 1 // rec itself is already in the ledger
	}

	text := fmt.Sprintf("Attempt #%d: charge failed%s", attempts, amountClause(rec))
	thread, err = uc.PostToThread(ctx, thread, params, text)
	if err != nil {
		return err
	}

	if attempts == 1 {
		if _, err := uc.PostToThread(ctx, thread, params, uc.policy.RenderRecovery(mctx.Name)); err != nil {
			return err
		}
	}

	if attempts >= uc.policy.OffboardThreshold && !thread.Offboarded() {
		logging.From(ctx).Info("attempt threshold reached, offboarding",
			"email", rec.MemberEmail, "attempts", attempts)
		if _, err := uc.Offboard(ctx, thread, params, mctx, "payment_failure"); err != nil {
			return err
		}
	}

	return nil
}

// escalateRecovery handles charged/recovered events. It only acts when a
// bounce thread already exists for the period with recorded failures and no
// recovery confirmation posted yet; a clean renewal touches nothing.
func (uc *UseCases) escalateRecovery(ctx context.Context, rec *model.SubscriptionEvent, ev *model.WebhookEvent) error {
	thread, err := uc.repo.MemberThread().Find(ctx, rec.MemberEmail, types.ThreadTypeMonthlyBounce, rec.PeriodKey)
	if err != nil {
		return err
	}
	if thread == nil {
		return nil
	}

	failures, err := uc.repo.SubscriptionEvent().CountByKindSince(ctx,
		rec.MemberEmail, rec.PeriodKey, types.EventKindChargeFailed, time.Time{})
	if err != nil {
		return err
	}
	if failures == 0 || thread.RecoveryPosted() {
		return nil
	}

	params := uc.bounceParams(rec)
	text := fmt.Sprintf("Payment recovered%s. No further action needed.", amountClause(rec))
	thread, err = uc.PostToThread(ctx, thread, params, text)
	if err != nil {
		return err
	}

	now := uc.now().UTC().Format(time.RFC3339Nano)
	meta := map[string]string{
		model.MetaRecoveryPostedAt: now,
		model.MetaLastRecoveryAt:   now,
	}
	if err := uc.repo.MemberThread().UpdateMetadata(ctx, thread.ID, meta); err != nil {
		return err
	}

	return nil
}

func (uc *UseCases) escalateDelinquent(ctx context.Context, rec *model.SubscriptionEvent, ev *model.WebhookEvent) error {
	mctx := uc.ResolveMemberContext(ctx, ev)

	params := uc.bounceParams(rec)
	thread, err := uc.EnsureThread(ctx, params)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Subscription marked delinquent (status: %s)", rec.Status)
	thread, err = uc.PostToThread(ctx, thread, params, text)
	if err != nil {
		return err
	}

	if !thread.Offboarded() {
		if _, err := uc.Offboard(ctx, thread, params, mctx, "delinquent"); err != nil {
			return err
		}
	}

	return nil
}

func (uc *UseCases) escalateCanceled(ctx context.Context, rec *model.SubscriptionEvent, ev *model.WebhookEvent) error {
	mctx := uc.ResolveMemberContext(ctx, ev)

	// cancel threads are keyed by cancellation date, not billing period
	dateKey := types.DailyPeriodKey(rec.OccurredAt)
	params := ThreadParams{
		Email:     rec.MemberEmail,
		Type:      types.ThreadTypeCancel,
		Period:    dateKey,
		ChannelID: uc.policy.CancelChannelID,
		Summary:   fmt.Sprintf("Cancellation: %s (%s)", rec.MemberEmail, dateKey),
	}
	thread, err := uc.EnsureThread(ctx, params)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Subscription canceled (status: %s)", rec.Status)
	thread, err = uc.PostToThread(ctx, thread, params, text)
	if err != nil {
		return err
	}

	_, existed, err := uc.repo.Cancellation().Create(ctx, &model.Cancellation{
		ID:             thread.ID,
		MemberThreadID: thread.ID,
		MemberEmail:    rec.MemberEmail,
		Reason:         rec.Status,
		CanceledAt:     rec.OccurredAt,
	})
	if err != nil {
		errutil.Log(ctx, err, "failed to record cancellation")
	} else if existed {
		logging.From(ctx).Debug("cancellation already recorded", "thread_id", thread.ID)
	}

	if !thread.Offboarded() {
		if _, err := uc.Offboard(ctx, thread, params, mctx, "canceled"); err != nil {
			return err
		}
	}

	return nil
}

func amountClause(rec *model.SubscriptionEvent) string {
	if rec.Amount <= 0 {
		return ""
	}
	if rec.Currency == "" {
		return fmt.Sprintf(" (%.2f)", rec.Amount)
	}
	return fmt.Sprintf(" (%s %.2f)", rec.Currency, rec.Amount)
}
