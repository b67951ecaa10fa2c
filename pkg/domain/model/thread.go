package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

// Metadata keys for escalation state accreted over a thread's life
const (
	MetaOffboardedAt      = "offboarded_at"
	MetaOffboardingReason = "offboarding_reason"
	MetaRecoveryPostedAt  = "recovery_posted_at"
	MetaLastRecoveryAt    = "last_recovery_at"
)

// MemberThread binds (member_email, thread_type, period_key) to a single
// external conversation thread. At most one row exists per triple; the triple
// is the natural key used both to find and to create.
type MemberThread struct {
	ID string `firestore:"id" json:"id"`

	MemberEmail string          `firestore:"member_email" json:"member_email"`
	Type        types.ThreadType `firestore:"thread_type" json:"thread_type"`
	PeriodKey   types.PeriodKey  `firestore:"period_key" json:"period_key"`

	// Pointers into the messaging system; both empty until the first message
	// is posted, and cleared again when the remote thread is found missing.
	SlackChannelID string `firestore:"slack_channel_id" json:"slack_channel_id"`
	SlackThreadTS  string `firestore:"slack_thread_ts" json:"slack_thread_ts"`

	Metadata map[string]string `firestore:"metadata" json:"metadata"`

	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}

// ThreadID derives the deterministic row ID for a triple. Slashes are not
// valid in Firestore document IDs, so they are replaced.
func ThreadID(email string, tt types.ThreadType, period types.PeriodKey) string {
	id := fmt.Sprintf("%s:%s:%s", NormalizeEmail(email), tt, period)
	return strings.ReplaceAll(id, "/", "_")
}

// NewMemberThread builds an unrooted thread row for a triple
func NewMemberThread(email string, tt types.ThreadType, period types.PeriodKey) *MemberThread {
	return &MemberThread{
		ID:          ThreadID(email, tt, period),
		MemberEmail: NormalizeEmail(email),
		Type:        tt,
		PeriodKey:   period,
		Metadata:    map[string]string{},
	}
}

// HasPointers reports whether the thread is rooted in the messaging system
func (t *MemberThread) HasPointers() bool {
	return t.SlackChannelID != "" && t.SlackThreadTS != ""
}

// MetaTime parses a metadata timestamp; zero time when unset or unparseable
func (t *MemberThread) MetaTime(key string) time.Time {
	if t.Metadata == nil {
		return time.Time{}
	}
	v, ok := t.Metadata[key]
	if !ok || v == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// SetMetaTime stamps a metadata timestamp. Nanosecond precision is kept so
// window comparisons against event CreatedAt do not lose sub-second ordering.
func (t *MemberThread) SetMetaTime(key string, at time.Time) {
	if t.Metadata == nil {
		t.Metadata = map[string]string{}
	}
	t.Metadata[key] = at.UTC().Format(time.RFC3339Nano)
}

// Offboarded reports whether the offboarding fan-out already ran for this thread
func (t *MemberThread) Offboarded() bool {
	return !t.MetaTime(MetaOffboardedAt).IsZero()
}

// LastRecoveryAt returns the start of the current attempt-counting window;
// zero time when no recovery has been recorded.
func (t *MemberThread) LastRecoveryAt() time.Time {
	return t.MetaTime(MetaLastRecoveryAt)
}

// RecoveryPosted reports whether a recovery confirmation was already posted
func (t *MemberThread) RecoveryPosted() bool {
	return !t.MetaTime(MetaRecoveryPostedAt).IsZero()
}
