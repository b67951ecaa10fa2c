package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/service/whatsapp"
)

type mockPost struct {
	ChannelID string
	ThreadTS  string
	Text      string
}

type mockMessenger struct {
	mu    sync.Mutex
	posts []mockPost
	seq   int

	postErr  error
	replyErr error
	// replyErrOnce makes the next reply fail once, then succeed
	replyErrOnce error
}

var _ interfaces.Messenger = &mockMessenger{}

func (m *mockMessenger) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postErr != nil {
		return "", m.postErr
	}
	m.seq++
	ts := fmt.Sprintf("1700000000.%06d", m.seq)
	m.posts = append(m.posts, mockPost{ChannelID: channelID, Text: text})
	return ts, nil
}

func (m *mockMessenger) PostThreadReply(ctx context.Context, channelID, threadTS, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.replyErrOnce != nil {
		err := m.replyErrOnce
		m.replyErrOnce = nil
		return err
	}
	if m.replyErr != nil {
		return m.replyErr
	}
	m.posts = append(m.posts, mockPost{ChannelID: channelID, ThreadTS: threadTS, Text: text})
	return nil
}

func (m *mockMessenger) allPosts() []mockPost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockPost{}, m.posts...)
}

func (m *mockMessenger) replies() []mockPost {
	var out []mockPost
	for _, p := range m.allPosts() {
		if p.ThreadTS != "" {
			out = append(out, p)
		}
	}
	return out
}

func goneError() error {
	return goerr.New("slack: thread_not_found", goerr.T(interfaces.ThreadGoneTag))
}

type mockRoster struct {
	mu     sync.Mutex
	member *interfaces.RosterMember

	memberStatusCalls []string
	teamStatusCalls   []string

	findErr   error
	updateErr error
}

var _ interfaces.Roster = &mockRoster{}

func (m *mockRoster) FindMemberByEmail(ctx context.Context, email string) (*interfaces.RosterMember, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.member, nil
}

func (m *mockRoster) UpdateMemberStatus(ctx context.Context, email, statusLabel string, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.memberStatusCalls = append(m.memberStatusCalls, email+":"+statusLabel)
	return nil
}

func (m *mockRoster) UpdateTeamMemberStatus(ctx context.Context, email, statusLabel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.teamStatusCalls = append(m.teamStatusCalls, email+":"+statusLabel)
	return nil
}

type mockCommunity struct {
	mu    sync.Mutex
	calls [][]model.Contact

	result *interfaces.CommunityRemoveResult
	err    error
}

var _ interfaces.Community = &mockCommunity{}

func (m *mockCommunity) RemoveMembers(ctx context.Context, teamMembers, partners []model.Contact) (*interfaces.CommunityRemoveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.calls = append(m.calls, append(append([]model.Contact{}, teamMembers...), partners...))
	if m.result != nil {
		return m.result, nil
	}
	return &interfaces.CommunityRemoveResult{Removed: len(teamMembers) + len(partners)}, nil
}

type mockChatGroups struct {
	mu      sync.Mutex
	groups  []string
	removed map[string][]string

	err error
}

var _ interfaces.ChatGroups = &mockChatGroups{}

func (m *mockChatGroups) RemoveParticipants(ctx context.Context, groupID string, phoneNumbers []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.removed == nil {
		m.removed = map[string][]string{}
	}
	m.removed[groupID] = append(m.removed[groupID], phoneNumbers...)
	return nil
}

func (m *mockChatGroups) GroupIDs() []string {
	return m.groups
}

func (m *mockChatGroups) NormalizePhone(phone string) string {
	return whatsapp.NormalizePhone(phone)
}

type mockContactSource struct {
	name string
	mc   *model.MemberContext
	err  error
}

var _ interfaces.ContactSource = &mockContactSource{}

func (m *mockContactSource) Name() string {
	return m.name
}

func (m *mockContactSource) LookupContact(ctx context.Context, email string) (*model.MemberContext, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.mc, nil
}
