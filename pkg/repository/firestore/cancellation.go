package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
)

type cancellationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCancellationRepository(client *firestore.Client) *cancellationRepository {
	return &cancellationRepository{client: client}
}

func (r *cancellationRepository) collection() string {
	return prefixed(r.collectionPrefix, "cancellations")
}

// Create dedups by member_thread_id: the document ID is the thread ID, so a
// second cancellation notification for the same thread hits AlreadyExists.
func (r *cancellationRepository) Create(ctx context.Context, c *model.Cancellation) (*model.Cancellation, bool, error) {
	if c.MemberThreadID == "" {
		return nil, false, goerr.New("member thread ID is required")
	}

	stored := *c
	stored.ID = c.MemberThreadID
	stored.CreatedAt = time.Now().UTC()

	doc := r.client.Collection(r.collection()).Doc(stored.ID)
	if _, err := doc.Create(ctx, &stored); err != nil {
		if status.Code(err) != codes.AlreadyExists {
			return nil, false, goerr.Wrap(err, "failed to create cancellation", goerr.V("member_thread_id", c.MemberThreadID))
		}

		existing, err := r.FindByThreadID(ctx, c.MemberThreadID)
		if err != nil {
			return nil, false, goerr.Wrap(err, "failed to re-read existing cancellation", goerr.V("member_thread_id", c.MemberThreadID))
		}
		if existing == nil {
			return nil, false, goerr.New("cancellation vanished after AlreadyExists", goerr.V("member_thread_id", c.MemberThreadID))
		}
		return existing, true, nil
	}

	return &stored, false, nil
}

func (r *cancellationRepository) FindByThreadID(ctx context.Context, memberThreadID string) (*model.Cancellation, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(memberThreadID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get cancellation", goerr.V("member_thread_id", memberThreadID))
	}

	var c model.Cancellation
	if err := docSnap.DataTo(&c); err != nil {
		return nil, goerr.Wrap(err, "failed to decode cancellation", goerr.V("member_thread_id", memberThreadID))
	}
	return &c, nil
}
