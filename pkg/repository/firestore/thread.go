package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

type threadRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newThreadRepository(client *firestore.Client) *threadRepository {
	return &threadRepository{client: client}
}

func (r *threadRepository) collection() string {
	return prefixed(r.collectionPrefix, "member_threads")
}

// GetOrCreate implements insert-or-ignore via the Create precondition: when
// two requests race, the loser gets AlreadyExists and re-reads the winner's row.
func (r *threadRepository) GetOrCreate(ctx context.Context, email string, tt types.ThreadType, period types.PeriodKey) (*model.MemberThread, bool, error) {
	id := model.ThreadID(email, tt, period)
	now := time.Now().UTC()

	created := model.NewMemberThread(email, tt, period)
	created.CreatedAt = now
	created.UpdatedAt = now

	doc := r.client.Collection(r.collection()).Doc(id)
	if _, err := doc.Create(ctx, created); err != nil {
		if status.Code(err) != codes.AlreadyExists {
			return nil, false, goerr.Wrap(err, "failed to create member thread", goerr.V("id", id))
		}

		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, false, goerr.Wrap(err, "failed to re-read existing thread", goerr.V("id", id))
		}
		return existing, false, nil
	}

	return created, true, nil
}

func (r *threadRepository) Find(ctx context.Context, email string, tt types.ThreadType, period types.PeriodKey) (*model.MemberThread, error) {
	t, err := r.GetByID(ctx, model.ThreadID(email, tt, period))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *threadRepository) GetByID(ctx context.Context, id string) (*model.MemberThread, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "member thread not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get member thread", goerr.V("id", id))
	}

	var t model.MemberThread
	if err := docSnap.DataTo(&t); err != nil {
		return nil, goerr.Wrap(err, "failed to decode member thread", goerr.V("id", id))
	}
	return &t, nil
}

func (r *threadRepository) UpdatePointers(ctx context.Context, id string, channelID, threadTS string) error {
	_, err := r.client.Collection(r.collection()).Doc(id).Update(ctx, []firestore.Update{
		{Path: "slack_channel_id", Value: channelID},
		{Path: "slack_thread_ts", Value: threadTS},
		{Path: "updated_at", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "member thread not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update thread pointers", goerr.V("id", id))
	}
	return nil
}

func (r *threadRepository) ClearPointers(ctx context.Context, id string) error {
	return r.UpdatePointers(ctx, id, "", "")
}

func (r *threadRepository) UpdateMetadata(ctx context.Context, id string, meta map[string]string) error {
	updates := make([]firestore.Update, 0, len(meta)+1)
	for k, v := range meta {
		updates = append(updates, firestore.Update{Path: "metadata." + k, Value: v})
	}
	updates = append(updates, firestore.Update{Path: "updated_at", Value: time.Now().UTC()})

	_, err := r.client.Collection(r.collection()).Doc(id).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "member thread not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update thread metadata", goerr.V("id", id))
	}
	return nil
}
