package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

// classifyRule maps normalized event-type phrases to a canonical kind.
// Rules are evaluated in order; the first phrase hit wins.
type classifyRule struct {
	kind    types.EventKind
	phrases []string
}

// classifyRules is the prioritized phrase table. The upstream schema is
// informal, so classification is deliberately a reviewable table rather than
// scattered conditionals.
var classifyRules = []classifyRule{
	{
		kind: types.EventKindChargeFailed,
		phrases: []string{
			"charge failed", "payment failed", "failed payment",
			"charge failure", "payment failure", "invoice payment failed",
		},
	},
	{
		kind: types.EventKindCharged,
		phrases: []string{
			"charge succeeded", "payment succeeded", "charged",
			"payment received", "invoice paid", "charge success",
		},
	},
	{
		kind:    types.EventKindRecovered,
		phrases: []string{"recovered", "recovery"},
	},
	{
		kind:    types.EventKindDelinquent,
		phrases: []string{"delinquent", "past due"},
	},
	{
		kind:    types.EventKindCanceled,
		phrases: []string{"cancel"},
	},
}

// statusRefinement maps raw status keywords to kinds, evaluated in order.
// Only applied when the type string classified as the generic kind.
var statusRefinement = []classifyRule{
	{kind: types.EventKindDelinquent, phrases: []string{"delinquent"}},
	{kind: types.EventKindCanceled, phrases: []string{"cancel"}},
	{kind: types.EventKindRecovered, phrases: []string{"recover"}},
	{kind: types.EventKindCharged, phrases: []string{"succeed", "paid"}},
	{kind: types.EventKindChargeFailed, phrases: []string{"fail"}},
}

// Classify maps an upstream event-type string and status string into the
// canonical taxonomy. The first pass matches the normalized type against the
// phrase table; when that yields only the generic subscription kind, a second
// pass inspects the status for keywords. A non-generic kind is never
// overridden by status. Returns EventKindNone for non-subscription payloads.
func Classify(eventType, status string) types.EventKind {
	normalized := NormalizeEventType(eventType)

	kind := types.EventKindNone
	for _, rule := range classifyRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(normalized, phrase) {
				kind = rule.kind
				break
			}
		}
		if kind != types.EventKindNone {
			break
		}
	}

	if kind == types.EventKindNone {
		if strings.Contains(normalized, "subscription") {
			kind = types.EventKindSubscriptionEvent
		} else {
			return types.EventKindNone
		}
	}

	if kind == types.EventKindSubscriptionEvent {
		normalizedStatus := NormalizeEventType(status)
		for _, rule := range statusRefinement {
			for _, phrase := range rule.phrases {
				if strings.Contains(normalizedStatus, phrase) {
					return rule.kind
				}
			}
		}
	}

	return kind
}

// NormalizeEventType lowers the type string, splits camelCase boundaries and
// replaces common separators with spaces so phrase matching sees uniform input
func NormalizeEventType(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	var prev rune
	for _, r := range s {
		switch {
		case r == '.' || r == '_' || r == '-' || r == '/' || r == ':':
			b.WriteRune(' ')
		case unicode.IsUpper(r):
			if prev != 0 && !unicode.IsUpper(prev) && prev != ' ' {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prev = r
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

const fingerprintLen = 40

// Fingerprint derives the stable idempotency key for a delivery: a content
// hash of the full raw payload combined with upstream identifiers and the
// classified kind, truncated to a bounded length. Byte-identical re-deliveries
// with the same identifiers collapse to the same key.
func Fingerprint(raw []byte, ev *WebhookEvent, kind types.EventKind) string {
	h := sha256.New()
	h.Write(raw)
	fmt.Fprintf(h, "|sub:%s|ord:%s|evt:%s|kind:%s",
		ev.SubscriptionID, ev.OrderID, ev.EventID, kind)

	sum := hex.EncodeToString(h.Sum(nil))
	return "evt_" + sum[:fingerprintLen]
}

// attemptSep separates the base fingerprint from a synthetic attempt marker
const attemptSep = "-a"

// AttemptKey synthesizes a new event key for a promoted retry attempt by
// appending a timestamp+random suffix to the original fingerprint.
func AttemptKey(baseKey string, now time.Time) string {
	return fmt.Sprintf("%s%s%s-%s",
		baseKey, attemptSep,
		now.UTC().Format("20060102150405"),
		uuid.NewString()[:8])
}
