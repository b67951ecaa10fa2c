package types

import "fmt"

// EventKind is the canonical taxonomy for subscription billing events
type EventKind string

const (
	// EventKindNone marks payloads that are not subscription events
	EventKindNone EventKind = ""

	EventKindChargeFailed      EventKind = "charge_failed"
	EventKindCharged           EventKind = "charged"
	EventKindRecovered         EventKind = "recovered"
	EventKindDelinquent        EventKind = "delinquent"
	EventKindCanceled          EventKind = "canceled"
	EventKindSubscriptionEvent EventKind = "subscription_event"
)

// AllEventKinds returns all valid event kinds
func AllEventKinds() []EventKind {
	return []EventKind{
		EventKindChargeFailed,
		EventKindCharged,
		EventKindRecovered,
		EventKindDelinquent,
		EventKindCanceled,
		EventKindSubscriptionEvent,
	}
}

// IsValid checks if the event kind is valid
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindChargeFailed,
		EventKindCharged,
		EventKindRecovered,
		EventKindDelinquent,
		EventKindCanceled,
		EventKindSubscriptionEvent:
		return true
	default:
		return false
	}
}

// IsSubscription reports whether the kind belongs to the subscription taxonomy
func (k EventKind) IsSubscription() bool {
	return k != EventKindNone && k.IsValid()
}

// String returns the string representation of the event kind
func (k EventKind) String() string {
	return string(k)
}

// ParseEventKind parses a string into an EventKind
func ParseEventKind(s string) (EventKind, error) {
	kind := EventKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid event kind: %s", s)
	}
	return kind, nil
}
