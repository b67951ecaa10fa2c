package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/types"
	"github.com/memberops-lab/memberflow/pkg/repository/memory"
	"github.com/memberops-lab/memberflow/pkg/usecase"
)

func bounceThreadParams(channelID string) usecase.ThreadParams {
	return usecase.ThreadParams{
		Email:     "member@example.com",
		Type:      types.ThreadTypeMonthlyBounce,
		Period:    "2026-03",
		ChannelID: channelID,
		Summary:   "Payment issue: member@example.com (2026-03)",
	}
}

func TestEnsureThread(t *testing.T) {
	t.Run("creates and roots a new thread", func(t *testing.T) {
		repo := memory.New()
		msgr := &mockMessenger{}
		uc := usecase.New(repo, testPolicy(), usecase.WithMessenger(msgr))
		ctx := context.Background()

		thread, err := uc.EnsureThread(ctx, bounceThreadParams("C-BOUNCE"))
		gt.NoError(t, err).Required()
		gt.Bool(t, thread.HasPointers()).True()
		gt.Value(t, thread.SlackChannelID).Equal("C-BOUNCE")

		posts := msgr.allPosts()
		gt.Array(t, posts).Length(1)
		gt.Value(t, posts[0].Text).Equal("Payment issue: member@example.com (2026-03)")
	})

	t.Run("second call reuses the rooted thread", func(t *testing.T) {
		repo := memory.New()
		msgr := &mockMessenger{}
		uc := usecase.New(repo, testPolicy(), usecase.WithMessenger(msgr))
		ctx := context.Background()

		first, err := uc.EnsureThread(ctx, bounceThreadParams("C-BOUNCE"))
		gt.NoError(t, err).Required()
		second, err := uc.EnsureThread(ctx, bounceThreadParams("C-BOUNCE"))
		gt.NoError(t, err).Required()

		gt.Value(t, second.SlackThreadTS).Equal(first.SlackThreadTS)
		gt.Array(t, msgr.allPosts()).Length(1)
	})

	t.Run("re-roots when the configured channel changes", func(t *testing.T) {
		repo := memory.New()
		msgr := &mockMessenger{}
		uc := usecase.New(repo, testPolicy(), usecase.WithMessenger(msgr))
		ctx := context.Background()

		first, err := uc.EnsureThread(ctx, bounceThreadParams("C-OLD"))
		gt.NoError(t, err).Required()

		rerooted, err := uc.EnsureThread(ctx, bounceThreadParams("C-NEW"))
		gt.NoError(t, err).Required()
		gt.Value(t, rerooted.ID).Equal(first.ID)
		gt.Value(t, rerooted.SlackChannelID).Equal("C-NEW")
		gt.Value(t, rerooted.SlackThreadTS).NotEqual(first.SlackThreadTS)

		stored, err := repo.MemberThread().GetByID(ctx, first.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.SlackChannelID).Equal("C-NEW")
	})

	t.Run("unrooted without a messenger", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, testPolicy())
		ctx := context.Background()

		thread, err := uc.EnsureThread(ctx, bounceThreadParams("C-BOUNCE"))
		gt.NoError(t, err).Required()
		gt.Bool(t, thread.HasPointers()).False()
	})
}

func TestPostToThreadSelfHealing(t *testing.T) {
	t.Run("gone thread is re-created and retried once", func(t *testing.T) {
		repo := memory.New()
		msgr := &mockMessenger{}
		uc := usecase.New(repo, testPolicy(), usecase.WithMessenger(msgr))
		ctx := context.Background()

		params := bounceThreadParams("C-BOUNCE")
		thread, err := uc.EnsureThread(ctx, params)
		gt.NoError(t, err).Required()
		originalTS := thread.SlackThreadTS

		msgr.replyErrOnce = goneError()
		healed, err := uc.PostToThread(ctx, thread, params, "attempt reply")
		gt.NoError(t, err).Required()
		gt.Value(t, healed.SlackThreadTS).NotEqual(originalTS)

		stored, err := repo.MemberThread().GetByID(ctx, thread.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.SlackThreadTS).Equal(healed.SlackThreadTS)

		// a fresh root was posted and the reply landed in it
		replies := msgr.replies()
		gt.Array(t, replies).Length(1)
		gt.Value(t, replies[0].Text).Equal("attempt reply")
	})

	t.Run("persistent gone error fails after one retry", func(t *testing.T) {
		repo := memory.New()
		msgr := &mockMessenger{}
		uc := usecase.New(repo, testPolicy(), usecase.WithMessenger(msgr))
		ctx := context.Background()

		params := bounceThreadParams("C-BOUNCE")
		thread, err := uc.EnsureThread(ctx, params)
		gt.NoError(t, err).Required()

		msgr.replyErr = goneError()
		_, err = uc.PostToThread(ctx, thread, params, "attempt reply")
		gt.Error(t, err)
	})

	t.Run("generic errors do not trigger re-creation", func(t *testing.T) {
		repo := memory.New()
		msgr := &mockMessenger{}
		uc := usecase.New(repo, testPolicy(), usecase.WithMessenger(msgr))
		ctx := context.Background()

		params := bounceThreadParams("C-BOUNCE")
		thread, err := uc.EnsureThread(ctx, params)
		gt.NoError(t, err).Required()
		rootCount := len(msgr.allPosts())

		msgr.replyErr = goerr.New("rate limited")
		_, err = uc.PostToThread(ctx, thread, params, "attempt reply")
		gt.Error(t, err)
		gt.Number(t, len(msgr.allPosts())).Equal(rootCount)

		stored, err := repo.MemberThread().GetByID(ctx, thread.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.HasPointers()).True()
	})
}
