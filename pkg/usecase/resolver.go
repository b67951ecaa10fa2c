package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/utils/logging"
)

// ResolveMemberContext gathers the member's context from the roster and the
// configured contact sources, with the parsed delivery itself as the lowest
// priority source. Lookups run concurrently but merge in priority order, so
// the highest-priority system that knows a field wins. A failing lookup is
// logged and skipped; resolution itself never fails.
func (uc *UseCases) ResolveMemberContext(ctx context.Context, ev *model.WebhookEvent) *model.MemberContext {
	mc := &model.MemberContext{Email: model.NormalizeEmail(ev.Email)}

	results := make([]*model.MemberContext, len(uc.contactSources)+1)

	eg, egCtx := errgroup.WithContext(ctx)
	if uc.roster != nil {
		eg.Go(func() error {
			member, err := uc.roster.FindMemberByEmail(egCtx, mc.Email)
			if err != nil {
				logging.From(ctx).Warn("roster lookup failed",
					"email", mc.Email, "error", err.Error())
				return nil
			}
			if member != nil {
				results[0] = &model.MemberContext{
					Name:        member.Name,
					Email:       member.Email,
					Phone:       member.Phone,
					TeamMembers: member.TeamMembers,
					Partners:    member.Partners,
				}
			}
			return nil
		})
	}
	for i, src := range uc.contactSources {
		eg.Go(func() error {
			found, err := src.LookupContact(egCtx, mc.Email)
			if err != nil {
				logging.From(ctx).Warn("contact lookup failed",
					"source", src.Name(), "email", mc.Email, "error", err.Error())
				return nil
			}
			results[i+1] = found
			return nil
		})
	}
	_ = eg.Wait() // lookups swallow their own errors

	for _, partial := range results {
		mc.Merge(partial)
	}

	// the delivery's own customer/order fields are the last resort
	mc.Merge(&model.MemberContext{Name: ev.Name, Phone: ev.Phone})

	return mc
}
