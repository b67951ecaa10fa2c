package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/domain/model"
)

// Client is the workflow-board roster backed by a Notion database
type Client struct {
	api      *notionapi.Client
	rosterDB string
	schema   *schemaCache
}

var _ interfaces.Roster = &Client{}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithSchemaTTL sets the TTL for the database schema cache
func WithSchemaTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.schema = newSchemaCache(c.api, ttl)
	}
}

// New creates a roster client for the given Notion database
func New(token, rosterDBID string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}
	if rosterDBID == "" {
		return nil, goerr.New("Notion roster database ID is required")
	}

	api := notionapi.NewClient(
		notionapi.Token(token),
		notionapi.WithRetry(3), // Retry on rate limit (HTTP 429)
	)

	c := &Client{
		api:      api,
		rosterDB: rosterDBID,
		schema:   newSchemaCache(api, DefaultSchemaTTL),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// InvalidateSchema drops the cached board schema, forcing a refetch on the
// next lookup. Exposed for operators reshaping the board at runtime.
func (c *Client) InvalidateSchema() {
	c.schema.Invalidate(c.rosterDB)
}

func (c *Client) findPageByEmail(ctx context.Context, dbID, email string) (*notionapi.Page, error) {
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: propEmail,
			RichText: &notionapi.TextFilterCondition{Equals: model.NormalizeEmail(email)},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query database by email",
			goerr.V("db_id", dbID), goerr.V("email", email))
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// FindMemberByEmail returns the roster record for the email, or nil, nil
func (c *Client) FindMemberByEmail(ctx context.Context, email string) (*interfaces.RosterMember, error) {
	if _, err := c.schema.Get(ctx, c.rosterDB); err != nil {
		return nil, err
	}

	page, err := c.findPageByEmail(ctx, c.rosterDB, email)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}

	member := &interfaces.RosterMember{
		ID:          page.ID.String(),
		Email:       model.NormalizeEmail(email),
		TeamMembers: pageContacts(page.Properties, "Team Member"),
		Partners:    pageContacts(page.Properties, "Partner"),
	}
	if prop, ok := page.Properties[propName]; ok {
		member.Name = richTextValue(prop)
	}
	if prop, ok := page.Properties[propPhone]; ok {
		member.Phone = richTextValue(prop)
	}

	return member, nil
}

// UpdateMemberStatus sets the member's status select with a date
func (c *Client) UpdateMemberStatus(ctx context.Context, email, statusLabel string, date time.Time) error {
	page, err := c.findPageByEmail(ctx, c.rosterDB, email)
	if err != nil {
		return err
	}
	if page == nil {
		return goerr.New("member not found on roster", goerr.V("email", email))
	}

	startDate := notionapi.Date(date)
	_, err = c.api.Page.Update(ctx, notionapi.PageID(page.ID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			propStatus: notionapi.SelectProperty{
				Select: notionapi.Option{Name: statusLabel},
			},
			propStatusDate: notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &startDate},
			},
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update member status",
			goerr.V("email", email), goerr.V("status", statusLabel))
	}
	return nil
}

// UpdateTeamMemberStatus sets a team member's status select without a date
func (c *Client) UpdateTeamMemberStatus(ctx context.Context, email, statusLabel string) error {
	page, err := c.findPageByEmail(ctx, c.rosterDB, email)
	if err != nil {
		return err
	}
	if page == nil {
		return goerr.New("team member not found on roster", goerr.V("email", email))
	}

	_, err = c.api.Page.Update(ctx, notionapi.PageID(page.ID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			propStatus: notionapi.SelectProperty{
				Select: notionapi.Option{Name: statusLabel},
			},
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update team member status",
			goerr.V("email", email), goerr.V("status", statusLabel))
	}
	return nil
}
