package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/repository/memory"
	"github.com/memberops-lab/memberflow/pkg/usecase"
)

func testMemberContext() *model.MemberContext {
	return &model.MemberContext{
		Name:  "Jane Member",
		Email: "member@example.com",
		Phone: "+1 555 123 4567",
		TeamMembers: []model.Contact{
			{Name: "Team One", Email: "team1@example.com", Phone: "+1 555 222 0001"},
		},
		Partners: []model.Contact{
			{Name: "Partner One", Email: "p1@example.com", Phone: "123"},
		},
	}
}

func TestOffboard(t *testing.T) {
	newUC := func(msgr *mockMessenger, roster *mockRoster, community *mockCommunity, groups *mockChatGroups) *usecase.UseCases {
		return usecase.New(memory.New(), testPolicy(),
			usecase.WithMessenger(msgr),
			usecase.WithRoster(roster),
			usecase.WithCommunity(community),
			usecase.WithChatGroups(groups))
	}

	t.Run("fan-out touches every system", func(t *testing.T) {
		msgr := &mockMessenger{}
		roster := &mockRoster{}
		community := &mockCommunity{}
		groups := &mockChatGroups{groups: []string{"grp-1", "grp-2"}}
		uc := newUC(msgr, roster, community, groups)
		ctx := context.Background()

		params := bounceThreadParams("C-BOUNCE")
		thread, err := uc.EnsureThread(ctx, params)
		gt.NoError(t, err).Required()

		report, err := uc.Offboard(ctx, thread, params, testMemberContext(), "payment_failure")
		gt.NoError(t, err).Required()
		gt.Bool(t, report.HasFailures()).False()

		gt.Array(t, roster.memberStatusCalls).Length(1)
		gt.Array(t, roster.teamStatusCalls).Length(1)
		gt.Value(t, roster.teamStatusCalls[0]).Equal("team1@example.com:Canceled")
		gt.Array(t, community.calls).Length(1)

		// member and team phones normalized; the partner's short number skipped
		gt.Array(t, groups.removed["grp-1"]).Length(2)
		gt.Array(t, groups.removed["grp-2"]).Length(2)
		gt.Array(t, report.SkippedContacts).Length(1)
		gt.Bool(t, strings.Contains(report.SkippedContacts[0], "Partner One")).True()

		gt.Bool(t, thread.Offboarded()).True()

		replies := msgr.replies()
		gt.Array(t, replies).Length(1)
		gt.Bool(t, strings.Contains(replies[0].Text, "Offboarding completed for member@example.com")).True()
		gt.Bool(t, strings.Contains(replies[0].Text, "Skipped")).True()
	})

	t.Run("failed leg never aborts siblings", func(t *testing.T) {
		msgr := &mockMessenger{}
		roster := &mockRoster{updateErr: goerr.New("notion is down")}
		community := &mockCommunity{}
		groups := &mockChatGroups{groups: []string{"grp-1"}}
		uc := newUC(msgr, roster, community, groups)
		ctx := context.Background()

		params := bounceThreadParams("C-BOUNCE")
		thread, err := uc.EnsureThread(ctx, params)
		gt.NoError(t, err).Required()

		report, err := uc.Offboard(ctx, thread, params, testMemberContext(), "delinquent")
		gt.NoError(t, err).Required()
		gt.Bool(t, report.HasFailures()).True()

		// community and chat groups still ran
		gt.Array(t, community.calls).Length(1)
		gt.Array(t, groups.removed["grp-1"]).Length(2)

		// the thread is stamped regardless
		gt.Bool(t, thread.Offboarded()).True()

		replies := msgr.replies()
		gt.Bool(t, strings.Contains(replies[0].Text, "failed")).True()
	})

	t.Run("partial community failures are aggregated", func(t *testing.T) {
		msgr := &mockMessenger{}
		community := &mockCommunity{result: &interfaces.CommunityRemoveResult{
			Removed: 2,
			Errors:  []string{"p1@example.com: 403 forbidden"},
		}}
		uc := newUC(msgr, &mockRoster{}, community, &mockChatGroups{})
		ctx := context.Background()

		params := bounceThreadParams("C-BOUNCE")
		thread, err := uc.EnsureThread(ctx, params)
		gt.NoError(t, err).Required()

		report, err := uc.Offboard(ctx, thread, params, testMemberContext(), "canceled")
		gt.NoError(t, err).Required()
		gt.Bool(t, report.HasFailures()).True()
		gt.Bool(t, strings.Contains(report.Summary(), "403 forbidden")).True()
	})

	t.Run("runs at most once per thread", func(t *testing.T) {
		msgr := &mockMessenger{}
		roster := &mockRoster{}
		uc := newUC(msgr, roster, &mockCommunity{}, &mockChatGroups{})
		ctx := context.Background()

		params := bounceThreadParams("C-BOUNCE")
		thread, err := uc.EnsureThread(ctx, params)
		gt.NoError(t, err).Required()

		first, err := uc.Offboard(ctx, thread, params, testMemberContext(), "payment_failure")
		gt.NoError(t, err).Required()
		gt.Value(t, first).NotNil()

		second, err := uc.Offboard(ctx, thread, params, testMemberContext(), "payment_failure")
		gt.NoError(t, err).Required()
		gt.Value(t, second).Nil()
		gt.Array(t, roster.memberStatusCalls).Length(1)
	})
}
