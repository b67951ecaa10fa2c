package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/domain/types"
	"github.com/memberops-lab/memberflow/pkg/utils/logging"
)

// ThreadParams identifies a member thread and carries what is needed to root
// it: the target channel and the top-level summary message.
type ThreadParams struct {
	Email  string
	Type   types.ThreadType
	Period types.PeriodKey

	ChannelID string
	Summary   string
}

// EnsureThread returns the rooted thread for the triple, creating the registry
// row and posting the root message as needed. A stored thread pointing at a
// different channel than the configured one is re-rooted: stale pointers are
// cleared and a fresh root is posted in the current channel.
func (uc *UseCases) EnsureThread(ctx context.Context, p ThreadParams) (*model.MemberThread, error) {
	thread, created, err := uc.repo.MemberThread().GetOrCreate(ctx, p.Email, p.Type, p.Period)
	if err != nil {
		return nil, err
	}

	if !created && thread.SlackChannelID != "" && p.ChannelID != "" && thread.SlackChannelID != p.ChannelID {
		logging.From(ctx).Info("re-rooting thread after channel change",
			"thread_id", thread.ID,
			"old_channel", thread.SlackChannelID,
			"new_channel", p.ChannelID)
		if err := uc.repo.MemberThread().ClearPointers(ctx, thread.ID); err != nil {
			return nil, err
		}
		thread.SlackChannelID = ""
		thread.SlackThreadTS = ""
	}

	if thread.SlackThreadTS != "" {
		return thread, nil
	}
	if uc.messenger == nil || p.ChannelID == "" {
		// unrooted but recorded; replies will be skipped until configured
		return thread, nil
	}

	ts, err := uc.messenger.PostMessage(ctx, p.ChannelID, p.Summary)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to post thread root",
			goerr.V("thread_id", thread.ID), goerr.V("channel_id", p.ChannelID))
	}
	if err := uc.repo.MemberThread().UpdatePointers(ctx, thread.ID, p.ChannelID, ts); err != nil {
		return nil, err
	}
	thread.SlackChannelID = p.ChannelID
	thread.SlackThreadTS = ts

	return thread, nil
}

// PostToThread posts a reply into the member thread. When the messenger
// reports the remote thread gone (deleted root, archived channel), the stored
// pointers are cleared, the thread is re-created and the post retried exactly
// once. Returns the thread, which may carry fresh pointers.
func (uc *UseCases) PostToThread(ctx context.Context, thread *model.MemberThread, p ThreadParams, text string) (*model.MemberThread, error) {
	if uc.messenger == nil {
		logging.From(ctx).Warn("messenger not configured, dropping thread reply",
			"thread_id", thread.ID)
		return thread, nil
	}

	if !thread.HasPointers() {
		rooted, err := uc.EnsureThread(ctx, p)
		if err != nil {
			return thread, err
		}
		thread = rooted
		if !thread.HasPointers() {
			return thread, goerr.New("thread could not be rooted",
				goerr.V("thread_id", thread.ID))
		}
	}

	err := uc.messenger.PostThreadReply(ctx, thread.SlackChannelID, thread.SlackThreadTS, text)
	if err == nil {
		return thread, nil
	}
	if !interfaces.IsThreadGone(err) {
		return thread, goerr.Wrap(err, "failed to post thread reply",
			goerr.V("thread_id", thread.ID))
	}

	logging.From(ctx).Warn("remote thread gone, re-creating",
		"thread_id", thread.ID,
		"channel_id", thread.SlackChannelID,
		"thread_ts", thread.SlackThreadTS)

	if err := uc.repo.MemberThread().ClearPointers(ctx, thread.ID); err != nil {
		return thread, err
	}
	thread.SlackChannelID = ""
	thread.SlackThreadTS = ""

	rooted, err := uc.EnsureThread(ctx, p)
	if err != nil {
		return thread, err
	}
	thread = rooted
	if !thread.HasPointers() {
		return thread, goerr.New("thread could not be re-rooted",
			goerr.V("thread_id", thread.ID))
	}

	if err := uc.messenger.PostThreadReply(ctx, thread.SlackChannelID, thread.SlackThreadTS, text); err != nil {
		return thread, goerr.Wrap(err, "thread reply failed after re-create",
			goerr.V("thread_id", thread.ID))
	}
	return thread, nil
}
