package notion

import (
	"context"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/domain/model"
)

// contactSource is a read-only lookup over a Notion database holding contact
// records (lead-capture submissions, membership records). It fills only the
// flat name/phone fields; roster relationships come from the roster board.
type contactSource struct {
	client *Client
	dbID   string
	name   string
}

var _ interfaces.ContactSource = &contactSource{}

// NewContactSource wraps a Notion database as a member-context lookup
func NewContactSource(client *Client, dbID, name string) interfaces.ContactSource {
	return &contactSource{client: client, dbID: dbID, name: name}
}

func (s *contactSource) Name() string {
	return s.name
}

func (s *contactSource) LookupContact(ctx context.Context, email string) (*model.MemberContext, error) {
	page, err := s.client.findPageByEmail(ctx, s.dbID, email)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	mc := &model.MemberContext{Email: model.NormalizeEmail(email)}
	if prop, ok := page.Properties[propName]; ok {
		mc.Name = richTextValue(prop)
	}
	if prop, ok := page.Properties[propPhone]; ok {
		mc.Phone = richTextValue(prop)
	}
	return mc, nil
}
