package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
	"github.com/memberops-lab/memberflow/pkg/repository/firestore"
	"github.com/memberops-lab/memberflow/pkg/repository/memory"
)

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func runThreadRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("GetOrCreate creates an unrooted thread", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		email := uniqueEmail("create")
		thread, created, err := repo.MemberThread().GetOrCreate(ctx, email, types.ThreadTypeMonthlyBounce, "2026-03")
		gt.NoError(t, err).Required()
		gt.Bool(t, created).True()
		gt.Value(t, thread.ID).Equal(model.ThreadID(email, types.ThreadTypeMonthlyBounce, "2026-03"))
		gt.Bool(t, thread.HasPointers()).False()
		gt.Bool(t, thread.CreatedAt.IsZero()).False()
	})

	t.Run("GetOrCreate returns the existing row on second call", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		email := uniqueEmail("existing")
		first, created, err := repo.MemberThread().GetOrCreate(ctx, email, types.ThreadTypeMonthlyBounce, "2026-03")
		gt.NoError(t, err).Required()
		gt.Bool(t, created).True()

		second, created, err := repo.MemberThread().GetOrCreate(ctx, email, types.ThreadTypeMonthlyBounce, "2026-03")
		gt.NoError(t, err).Required()
		gt.Bool(t, created).False()
		gt.Value(t, second.ID).Equal(first.ID)
	})

	t.Run("distinct triples get distinct threads", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		email := uniqueEmail("triple")
		a, _, err := repo.MemberThread().GetOrCreate(ctx, email, types.ThreadTypeMonthlyBounce, "2026-03")
		gt.NoError(t, err).Required()
		b, _, err := repo.MemberThread().GetOrCreate(ctx, email, types.ThreadTypeMonthlyBounce, "2026-04")
		gt.NoError(t, err).Required()
		c, _, err := repo.MemberThread().GetOrCreate(ctx, email, types.ThreadTypeCancel, "2026-03-15")
		gt.NoError(t, err).Required()

		gt.Value(t, a.ID).NotEqual(b.ID)
		gt.Value(t, a.ID).NotEqual(c.ID)
	})

	t.Run("Find returns nil for absent triple", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		thread, err := repo.MemberThread().Find(ctx, uniqueEmail("absent"), types.ThreadTypeMonthlyBounce, "2026-03")
		gt.NoError(t, err).Required()
		gt.Value(t, thread).Nil()
	})

	t.Run("UpdatePointers and ClearPointers round-trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		email := uniqueEmail("pointers")
		thread, _, err := repo.MemberThread().GetOrCreate(ctx, email, types.ThreadTypeMonthlyBounce, "2026-03")
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.MemberThread().UpdatePointers(ctx, thread.ID, "C123", "1700000000.000100")).Required()

		got, err := repo.MemberThread().GetByID(ctx, thread.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.SlackChannelID).Equal("C123")
		gt.Value(t, got.SlackThreadTS).Equal("1700000000.000100")
		gt.Bool(t, got.HasPointers()).True()

		gt.NoError(t, repo.MemberThread().ClearPointers(ctx, thread.ID)).Required()

		got, err = repo.MemberThread().GetByID(ctx, thread.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, got.HasPointers()).False()
	})

	t.Run("UpdateMetadata merges keys", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		email := uniqueEmail("meta")
		thread, _, err := repo.MemberThread().GetOrCreate(ctx, email, types.ThreadTypeMonthlyBounce, "2026-03")
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.MemberThread().UpdateMetadata(ctx, thread.ID, map[string]string{
			model.MetaLastRecoveryAt: "2026-03-10T00:00:00Z",
		})).Required()
		gt.NoError(t, repo.MemberThread().UpdateMetadata(ctx, thread.ID, map[string]string{
			model.MetaOffboardedAt: "2026-03-20T00:00:00Z",
		})).Required()

		got, err := repo.MemberThread().GetByID(ctx, thread.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Metadata[model.MetaLastRecoveryAt]).Equal("2026-03-10T00:00:00Z")
		gt.Value(t, got.Metadata[model.MetaOffboardedAt]).Equal("2026-03-20T00:00:00Z")
		gt.Bool(t, got.Offboarded()).True()
	})
}

func TestThreadRepository_Memory(t *testing.T) {
	runThreadRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestThreadRepository_Firestore(t *testing.T) {
	projectID := os.Getenv("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("FIRESTORE_PROJECT_ID not set")
	}

	runThreadRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		repo, err := firestore.New(context.Background(), projectID, "")
		gt.NoError(t, err).Required()
		return repo
	})
}
