package usecase

import (
	"time"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/domain/model/config"
)

// UseCases implements the membership lifecycle workflows: webhook ingestion,
// escalation threads and offboarding. External collaborators are optional;
// a missing one degrades the corresponding step to a logged no-op so the
// event ledger keeps advancing.
type UseCases struct {
	repo   interfaces.Repository
	policy *config.LifecycleConfig

	messenger      interfaces.Messenger
	roster         interfaces.Roster
	community      interfaces.Community
	chatGroups     interfaces.ChatGroups
	contactSources []interfaces.ContactSource

	now func() time.Time
}

// Option is a functional option for UseCases configuration
type Option func(*UseCases)

// WithMessenger sets the threaded messaging channel
func WithMessenger(m interfaces.Messenger) Option {
	return func(uc *UseCases) {
		uc.messenger = m
	}
}

// WithRoster sets the workflow-board roster
func WithRoster(r interfaces.Roster) Option {
	return func(uc *UseCases) {
		uc.roster = r
	}
}

// WithCommunity sets the community platform client
func WithCommunity(c interfaces.Community) Option {
	return func(uc *UseCases) {
		uc.community = c
	}
}

// WithChatGroups sets the chat-group provider client
func WithChatGroups(c interfaces.ChatGroups) Option {
	return func(uc *UseCases) {
		uc.chatGroups = c
	}
}

// WithContactSources appends fallback contact lookups, consulted in the given
// order after the roster
func WithContactSources(sources ...interfaces.ContactSource) Option {
	return func(uc *UseCases) {
		uc.contactSources = append(uc.contactSources, sources...)
	}
}

// WithClock injects the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// New creates a UseCases with the given repository and policy. A nil policy
// falls back to the defaults.
func New(repo interfaces.Repository, policy *config.LifecycleConfig, opts ...Option) *UseCases {
	if policy == nil {
		policy = config.DefaultLifecycle()
	}

	uc := &UseCases{
		repo:   repo,
		policy: policy,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
