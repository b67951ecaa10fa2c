package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// WebhookEvent is the parsed form of one payment-processor delivery.
// The upstream schema is informal: identifiers, amounts and contact fields may
// appear at the top level or inside nested subscription/order/customer
// objects, so extraction takes the first non-empty occurrence.
type WebhookEvent struct {
	Type   string
	Status string

	EventID        string
	SubscriptionID string
	OrderID        string

	Email string
	Phone string
	Name  string

	Amount   float64
	Currency string

	OccurredAt time.Time

	Raw json.RawMessage
}

type webhookPayload struct {
	Type      string `json:"type"`
	EventType string `json:"event_type"`
	ID        string `json:"id"`
	EventID   string `json:"event_id"`
	Status    string `json:"status"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`

	Created    json.Number `json:"created"`
	OccurredAt string      `json:"occurred_at"`
	CreatedAt  string      `json:"created_at"`

	Subscription *struct {
		ID       string  `json:"id"`
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Email    string  `json:"email"`
	} `json:"subscription"`

	Order *struct {
		ID       string  `json:"id"`
		Total    float64 `json:"total"`
		Currency string  `json:"currency"`
		Email    string  `json:"email"`
		Phone    string  `json:"phone"`
	} `json:"order"`

	Customer *struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
		Name  string `json:"name"`
	} `json:"customer"`
}

const (
	maxEventAge    = 10 * 365 * 24 * time.Hour
	maxEventFuture = 24 * time.Hour
)

// ParseWebhookEvent decodes a raw delivery into a WebhookEvent.
// receivedAt is used as event time when the payload carries none, and as the
// clamp fallback when the declared time is implausible.
func ParseWebhookEvent(raw []byte, receivedAt time.Time) (*WebhookEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, goerr.Wrap(err, "failed to decode webhook payload")
	}

	ev := &WebhookEvent{
		Type:     firstNonEmpty(p.Type, p.EventType),
		Status:   p.Status,
		EventID:  firstNonEmpty(p.EventID, p.ID),
		Email:    p.Email,
		Phone:    p.Phone,
		Amount:   p.Amount,
		Currency: p.Currency,
		Raw:      json.RawMessage(raw),
	}

	if p.Subscription != nil {
		ev.SubscriptionID = p.Subscription.ID
		ev.Status = firstNonEmpty(ev.Status, p.Subscription.Status)
		ev.Email = firstNonEmpty(ev.Email, p.Subscription.Email)
		if ev.Amount == 0 {
			ev.Amount = p.Subscription.Amount
		}
		ev.Currency = firstNonEmpty(ev.Currency, p.Subscription.Currency)
	}
	if p.Order != nil {
		ev.OrderID = p.Order.ID
		ev.Email = firstNonEmpty(ev.Email, p.Order.Email)
		ev.Phone = firstNonEmpty(ev.Phone, p.Order.Phone)
		if ev.Amount == 0 {
			ev.Amount = p.Order.Total
		}
		ev.Currency = firstNonEmpty(ev.Currency, p.Order.Currency)
	}
	if p.Customer != nil {
		ev.Email = firstNonEmpty(ev.Email, p.Customer.Email)
		ev.Phone = firstNonEmpty(ev.Phone, p.Customer.Phone)
		ev.Name = p.Customer.Name
	}

	ev.Email = NormalizeEmail(ev.Email)
	ev.OccurredAt = clampOccurredAt(parseEventTime(&p), receivedAt)

	return ev, nil
}

func parseEventTime(p *webhookPayload) time.Time {
	if p.Created != "" {
		if unix, err := p.Created.Int64(); err == nil && unix > 0 {
			return time.Unix(unix, 0).UTC()
		}
	}
	for _, s := range []string{p.OccurredAt, p.CreatedAt} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// clampOccurredAt keeps the declared event time only when it is plausible
func clampOccurredAt(t, receivedAt time.Time) time.Time {
	if t.IsZero() {
		return receivedAt.UTC()
	}
	if receivedAt.Sub(t) > maxEventAge || t.Sub(receivedAt) > maxEventFuture {
		return receivedAt.UTC()
	}
	return t.UTC()
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
