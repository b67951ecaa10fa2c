package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
)

// ThreadGoneTag marks messenger errors meaning the remote thread, message or
// channel no longer exists. Distinct from generic failures: it triggers
// pointer-clearing and re-creation instead of surfacing as a notify error.
var ThreadGoneTag = goerr.NewTag("thread_gone")

// IsThreadGone reports whether the error carries the thread-gone tag
func IsThreadGone(err error) bool {
	return goerr.HasTag(err, ThreadGoneTag)
}

// Messenger is the threaded messaging channel (Slack). Implementations must
// return an error carrying the thread-not-found tag (see service/slack) when
// the remote thread or message no longer exists, so the registry can self-heal.
type Messenger interface {
	// PostMessage posts a top-level message and returns its thread timestamp
	PostMessage(ctx context.Context, channelID, text string) (string, error)

	// PostThreadReply posts a reply into an existing thread
	PostThreadReply(ctx context.Context, channelID, threadTS, text string) error
}

// RosterMember is a member record on the workflow-board roster
type RosterMember struct {
	ID    string
	Name  string
	Email string
	Phone string

	TeamMembers []model.Contact
	Partners    []model.Contact
}

// Roster is the workflow-board roster system (Notion database)
type Roster interface {
	// FindMemberByEmail returns the roster record, or nil, nil when absent
	FindMemberByEmail(ctx context.Context, email string) (*RosterMember, error)

	// UpdateMemberStatus sets the member's status label with a date
	UpdateMemberStatus(ctx context.Context, email, statusLabel string, date time.Time) error

	// UpdateTeamMemberStatus sets a team member's status label
	UpdateTeamMemberStatus(ctx context.Context, email, statusLabel string) error
}

// CommunityRemoveResult aggregates a community-platform removal
type CommunityRemoveResult struct {
	Removed int
	Errors  []string
}

// Community is the community platform membership API
type Community interface {
	RemoveMembers(ctx context.Context, teamMembers, partners []model.Contact) (*CommunityRemoveResult, error)
}

// ChatGroups is the chat-group provider API
type ChatGroups interface {
	// RemoveParticipants removes phone numbers from a group. Phone numbers are
	// expected pre-normalized by the caller.
	RemoveParticipants(ctx context.Context, groupID string, phoneNumbers []string) error

	// GroupIDs lists the configured groups to operate on
	GroupIDs() []string

	// NormalizePhone canonicalizes a phone number; empty when unusable
	NormalizePhone(phone string) string
}

// ContactSource is a read-only lookup filling member context fields
// (lead-capture records, membership records, payment-processor orders).
// Returns nil, nil when the source has no record for the email.
type ContactSource interface {
	Name() string
	LookupContact(ctx context.Context, email string) (*model.MemberContext, error)
}
