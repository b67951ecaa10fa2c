package model

import (
	"time"

	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

// SubscriptionEvent is one recorded billing-event occurrence. Rows are
// append-only: created once per distinct delivery (or promoted attempt) and
// never updated except the notify/error fields.
type SubscriptionEvent struct {
	// EventKey is the unique idempotency key. For promoted retry attempts it
	// carries a synthetic suffix; BaseKey always holds the raw fingerprint.
	EventKey string `firestore:"event_key" json:"event_key"`
	BaseKey  string `firestore:"base_key" json:"base_key"`

	Kind        types.EventKind `firestore:"event_kind" json:"event_kind"`
	MemberEmail string          `firestore:"member_email" json:"member_email"`
	PeriodKey   types.PeriodKey `firestore:"period_key" json:"period_key"`

	SubscriptionID string `firestore:"subscription_id" json:"subscription_id"`
	OrderID        string `firestore:"order_id" json:"order_id"`

	Amount   float64 `firestore:"amount" json:"amount"`
	Currency string  `firestore:"currency" json:"currency"`
	// Status keeps the raw upstream status string for audit
	Status string `firestore:"status" json:"status"`

	OccurredAt time.Time `firestore:"occurred_at" json:"occurred_at"`
	RawPayload []byte    `firestore:"raw_payload" json:"raw_payload"`

	Notified    bool      `firestore:"notified" json:"notified"`
	NotifiedAt  time.Time `firestore:"notified_at" json:"notified_at"`
	NotifyError string    `firestore:"notify_error" json:"notify_error"`

	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
}

// NewSubscriptionEvent builds an event row from a parsed delivery
func NewSubscriptionEvent(key string, kind types.EventKind, ev *WebhookEvent) *SubscriptionEvent {
	return &SubscriptionEvent{
		EventKey:       key,
		BaseKey:        key,
		Kind:           kind,
		MemberEmail:    ev.Email,
		PeriodKey:      types.MonthlyPeriodKey(ev.OccurredAt),
		SubscriptionID: ev.SubscriptionID,
		OrderID:        ev.OrderID,
		Amount:         ev.Amount,
		Currency:       ev.Currency,
		Status:         ev.Status,
		OccurredAt:     ev.OccurredAt,
		RawPayload:     []byte(ev.Raw),
	}
}

// WithAttemptKey returns a copy keyed as a new synthetic attempt
func (e *SubscriptionEvent) WithAttemptKey(key string) *SubscriptionEvent {
	copied := *e
	copied.EventKey = key
	copied.BaseKey = e.BaseKey
	return &copied
}
