package model_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		eventType string
		status    string
		expect    types.EventKind
	}{
		{"charge failed dotted", "subscription_charge.failed", "", types.EventKindChargeFailed},
		{"payment failed spaced", "Payment Failed", "", types.EventKindChargeFailed},
		{"invoice payment failed", "invoice.payment_failed", "", types.EventKindChargeFailed},
		{"charged camelCase", "SubscriptionCharged", "", types.EventKindCharged},
		{"payment received", "payment_received", "", types.EventKindCharged},
		{"invoice paid", "invoice.paid", "", types.EventKindCharged},
		{"recovered", "subscription.recovered", "", types.EventKindRecovered},
		{"delinquent", "subscription_delinquent", "", types.EventKindDelinquent},
		{"past due", "subscription.past_due", "", types.EventKindDelinquent},
		{"canceled", "subscription.canceled", "", types.EventKindCanceled},
		{"cancellation phrasing", "SubscriptionCancellation", "", types.EventKindCanceled},
		{"generic subscription", "subscription.updated", "", types.EventKindSubscriptionEvent},
		{"generic refined by failing status", "subscription.event", "failing", types.EventKindChargeFailed},
		{"generic refined by paid status", "subscription.event", "paid", types.EventKindCharged},
		{"generic refined by cancel status", "subscription_event", "cancelled", types.EventKindCanceled},
		{"generic refined by delinquent status", "subscription_event", "delinquent", types.EventKindDelinquent},
		{"type wins over status", "subscription.charge_failed", "paid", types.EventKindChargeFailed},
		{"non-subscription", "user.login", "", types.EventKindNone},
		{"empty type", "", "failed", types.EventKindNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, model.Classify(tc.eventType, tc.status)).Equal(tc.expect)
		})
	}
}

func TestNormalizeEventType(t *testing.T) {
	cases := []struct {
		input  string
		expect string
	}{
		{"subscription_charge.failed", "subscription charge failed"},
		{"SubscriptionChargeFailed", "subscription charge failed"},
		{"payment-failed", "payment failed"},
		{"  spaced   out  ", "spaced out"},
		{"already lower", "already lower"},
	}

	for _, tc := range cases {
		gt.Value(t, model.NormalizeEventType(tc.input)).Equal(tc.expect)
	}
}

func TestFingerprint(t *testing.T) {
	raw := []byte(`{"type":"subscription_charge.failed","subscription":{"id":"sub_1"}}`)
	ev, err := model.ParseWebhookEvent(raw, time.Now())
	gt.NoError(t, err).Required()
	kind := model.Classify(ev.Type, ev.Status)

	key := model.Fingerprint(raw, ev, kind)
	gt.Bool(t, strings.HasPrefix(key, "evt_")).True()
	gt.Number(t, len(key)).Equal(44)

	t.Run("stable for identical input", func(t *testing.T) {
		gt.Value(t, model.Fingerprint(raw, ev, kind)).Equal(key)
	})

	t.Run("changes with payload bytes", func(t *testing.T) {
		raw2 := []byte(`{"type":"subscription_charge.failed","subscription":{"id":"sub_1"},"x":1}`)
		ev2, err := model.ParseWebhookEvent(raw2, time.Now())
		gt.NoError(t, err).Required()
		gt.Value(t, model.Fingerprint(raw2, ev2, kind)).NotEqual(key)
	})

	t.Run("changes with kind", func(t *testing.T) {
		gt.Value(t, model.Fingerprint(raw, ev, types.EventKindCharged)).NotEqual(key)
	})
}

func TestAttemptKey(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	base := "evt_abc"

	key1 := model.AttemptKey(base, now)
	key2 := model.AttemptKey(base, now)

	gt.Bool(t, strings.HasPrefix(key1, "evt_abc-a20260315103000-")).True()
	gt.Value(t, key1).NotEqual(key2)
}

func TestNewSubscriptionEvent(t *testing.T) {
	raw := []byte(`{"type":"subscription_charge.failed","email":"User@Example.COM","amount":42.5,"currency":"USD","occurred_at":"2026-03-15T10:00:00Z","subscription":{"id":"sub_9"}}`)
	ev, err := model.ParseWebhookEvent(raw, time.Now())
	gt.NoError(t, err).Required()

	rec := model.NewSubscriptionEvent("evt_x", types.EventKindChargeFailed, ev)
	gt.Value(t, rec.EventKey).Equal("evt_x")
	gt.Value(t, rec.BaseKey).Equal("evt_x")
	gt.Value(t, rec.MemberEmail).Equal("user@example.com")
	gt.Value(t, rec.PeriodKey).Equal(types.PeriodKey("2026-03"))
	gt.Value(t, rec.SubscriptionID).Equal("sub_9")
	gt.Value(t, rec.Amount).Equal(42.5)

	t.Run("attempt copy keeps base key", func(t *testing.T) {
		attempt := rec.WithAttemptKey("evt_x-a1")
		gt.Value(t, attempt.EventKey).Equal("evt_x-a1")
		gt.Value(t, attempt.BaseKey).Equal("evt_x")
		gt.Value(t, rec.EventKey).Equal("evt_x")
	})
}

func TestParseWebhookEvent(t *testing.T) {
	receivedAt := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nested extraction with first-non-empty wins", func(t *testing.T) {
		raw := []byte(`{
			"type": "subscription.charged",
			"subscription": {"id": "sub_1", "status": "active", "amount": 99.0, "currency": "usd"},
			"order": {"id": "ord_1", "email": "from-order@example.com", "phone": "+1 555 0100"},
			"customer": {"email": "from-customer@example.com", "name": "Jane"}
		}`)
		ev, err := model.ParseWebhookEvent(raw, receivedAt)
		gt.NoError(t, err).Required()

		gt.Value(t, ev.SubscriptionID).Equal("sub_1")
		gt.Value(t, ev.OrderID).Equal("ord_1")
		gt.Value(t, ev.Email).Equal("from-order@example.com")
		gt.Value(t, ev.Phone).Equal("+1 555 0100")
		gt.Value(t, ev.Name).Equal("Jane")
		gt.Value(t, ev.Amount).Equal(99.0)
		gt.Value(t, ev.Status).Equal("active")
	})

	t.Run("unix created timestamp", func(t *testing.T) {
		raw := []byte(`{"type":"subscription.charged","created":1743508800}`)
		ev, err := model.ParseWebhookEvent(raw, receivedAt)
		gt.NoError(t, err).Required()
		gt.Value(t, ev.OccurredAt).Equal(time.Unix(1743508800, 0).UTC())
	})

	t.Run("missing time falls back to receivedAt", func(t *testing.T) {
		raw := []byte(`{"type":"subscription.charged"}`)
		ev, err := model.ParseWebhookEvent(raw, receivedAt)
		gt.NoError(t, err).Required()
		gt.Value(t, ev.OccurredAt).Equal(receivedAt)
	})

	t.Run("implausible time is clamped", func(t *testing.T) {
		raw := []byte(`{"type":"subscription.charged","occurred_at":"1980-01-01T00:00:00Z"}`)
		ev, err := model.ParseWebhookEvent(raw, receivedAt)
		gt.NoError(t, err).Required()
		gt.Value(t, ev.OccurredAt).Equal(receivedAt)
	})

	t.Run("invalid JSON fails", func(t *testing.T) {
		_, err := model.ParseWebhookEvent([]byte("{not json"), receivedAt)
		gt.Error(t, err)
	})

	t.Run("raw payload is preserved", func(t *testing.T) {
		raw := []byte(`{"type":"subscription.charged","email":"a@b.co"}`)
		ev, err := model.ParseWebhookEvent(raw, receivedAt)
		gt.NoError(t, err).Required()
		gt.Value(t, ev.Raw).Equal(json.RawMessage(raw))
	})
}
