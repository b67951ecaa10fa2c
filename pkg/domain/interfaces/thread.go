package interfaces

import (
	"context"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

// MemberThreadRepository maps (member_email, thread_type, period_key) triples
// to external conversation threads.
type MemberThreadRepository interface {
	// GetOrCreate looks up the triple, inserting an unrooted row when absent.
	// Insert-or-ignore semantics: under concurrent calls whichever insert wins
	// determines the canonical row and the loser re-reads it.
	GetOrCreate(ctx context.Context, email string, tt types.ThreadType, period types.PeriodKey) (thread *model.MemberThread, created bool, err error)

	// Find returns the thread for the triple, or nil, nil when absent
	Find(ctx context.Context, email string, tt types.ThreadType, period types.PeriodKey) (*model.MemberThread, error)

	// GetByID retrieves a thread by its row ID
	GetByID(ctx context.Context, id string) (*model.MemberThread, error)

	// UpdatePointers stores the messaging-system pointers after a post
	UpdatePointers(ctx context.Context, id string, channelID, threadTS string) error

	// ClearPointers drops the messaging-system pointers so the thread can be
	// re-rooted (channel mismatch or remote deletion)
	ClearPointers(ctx context.Context, id string) error

	// UpdateMetadata merges the given keys into the thread metadata
	UpdateMetadata(ctx context.Context, id string, meta map[string]string) error
}
