package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/utils/errutil"
	"github.com/memberops-lab/memberflow/pkg/utils/logging"
)

// Offboard runs the multi-system removal fan-out for a member: roster status,
// team member statuses, community removal and chat-group removal. Legs are
// independent; a failing leg is recorded on the report and never aborts its
// siblings. The thread is stamped offboarded regardless of partial failures,
// which is what makes the fan-out at-most-once per thread.
func (uc *UseCases) Offboard(ctx context.Context, thread *model.MemberThread, params ThreadParams, mctx *model.MemberContext, reason string) (*model.OffboardReport, error) {
	if thread.Offboarded() {
		logging.From(ctx).Debug("thread already offboarded, skipping",
			"thread_id", thread.ID)
		return nil, nil
	}

	now := uc.now()
	report := &model.OffboardReport{
		MemberEmail: thread.MemberEmail,
		Reason:      reason,
		At:          now,
	}

	uc.offboardRosterStatus(ctx, report, thread.MemberEmail, mctx, now)
	uc.offboardCommunity(ctx, report, thread.MemberEmail, mctx)
	uc.offboardChatGroups(ctx, report, mctx)

	// the stamp must land even when legs failed; it is the at-most-once guard
	thread.SetMetaTime(model.MetaOffboardedAt, now)
	meta := map[string]string{
		model.MetaOffboardedAt:      thread.Metadata[model.MetaOffboardedAt],
		model.MetaOffboardingReason: reason,
	}
	if err := uc.repo.MemberThread().UpdateMetadata(ctx, thread.ID, meta); err != nil {
		return report, goerr.Wrap(err, "failed to stamp offboarding",
			goerr.V("thread_id", thread.ID))
	}
	thread.Metadata[model.MetaOffboardingReason] = reason

	if _, err := uc.PostToThread(ctx, thread, params, report.Summary()); err != nil {
		errutil.Log(ctx, err, "failed to post offboarding summary")
	}

	if report.HasFailures() {
		logging.From(ctx).Warn("offboarding completed with failures",
			"email", thread.MemberEmail, "reason", reason)
	} else {
		logging.From(ctx).Info("offboarding completed",
			"email", thread.MemberEmail, "reason", reason)
	}

	return report, nil
}

func (uc *UseCases) offboardRosterStatus(ctx context.Context, report *model.OffboardReport, email string, mctx *model.MemberContext, now time.Time) {
	leg := report.AddLeg("roster status")
	if uc.roster == nil {
		logging.From(ctx).Warn("roster not configured, skipping status update")
		return
	}

	if err := uc.roster.UpdateMemberStatus(ctx, email, uc.policy.CanceledStatusLabel, now); err != nil {
		errutil.Log(ctx, err, "failed to update member status")
		leg.Fail(err)
	} else {
		leg.Succeeded++
	}

	for _, tm := range mctx.TeamMembers {
		if tm.Email == "" {
			continue
		}
		if err := uc.roster.UpdateTeamMemberStatus(ctx, tm.Email, uc.policy.CanceledStatusLabel); err != nil {
			errutil.Log(ctx, err, "failed to update team member status")
			leg.Fail(err)
			continue
		}
		leg.Succeeded++
	}
}

func (uc *UseCases) offboardCommunity(ctx context.Context, report *model.OffboardReport, email string, mctx *model.MemberContext) {
	leg := report.AddLeg("community removal")
	if uc.community == nil {
		logging.From(ctx).Warn("community platform not configured, skipping removal")
		return
	}

	members := append([]model.Contact{{Name: mctx.Name, Email: email, Phone: mctx.Phone}}, mctx.TeamMembers...)
	result, err := uc.community.RemoveMembers(ctx, members, mctx.Partners)
	if err != nil {
		errutil.Log(ctx, err, "community removal failed")
		leg.Fail(err)
		return
	}

	leg.Succeeded += result.Removed
	for _, msg := range result.Errors {
		leg.Fail(goerr.New(msg))
	}
}

func (uc *UseCases) offboardChatGroups(ctx context.Context, report *model.OffboardReport, mctx *model.MemberContext) {
	leg := report.AddLeg("chat-group removal")
	if uc.chatGroups == nil {
		logging.From(ctx).Warn("chat groups not configured, skipping removal")
		return
	}

	contacts := append([]model.Contact{{Name: mctx.Name, Email: mctx.Email, Phone: mctx.Phone}}, mctx.TeamMembers...)
	contacts = append(contacts, mctx.Partners...)

	var phones []string
	seen := map[string]bool{}
	for _, c := range contacts {
		phone := uc.chatGroups.NormalizePhone(c.Phone)
		if phone == "" {
			report.SkippedContacts = append(report.SkippedContacts, contactLabel(c))
			continue
		}
		if seen[phone] {
			continue
		}
		seen[phone] = true
		phones = append(phones, phone)
	}

	if len(phones) == 0 {
		return
	}

	for _, groupID := range uc.chatGroups.GroupIDs() {
		if err := uc.chatGroups.RemoveParticipants(ctx, groupID, phones); err != nil {
			errutil.Log(ctx, err, "chat-group removal failed")
			leg.Fail(err)
			continue
		}
		leg.Succeeded++
	}
}

func contactLabel(c model.Contact) string {
	switch {
	case c.Name != "" && c.Email != "":
		return fmt.Sprintf("%s <%s>", c.Name, c.Email)
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	default:
		return "(unknown contact)"
	}
}
