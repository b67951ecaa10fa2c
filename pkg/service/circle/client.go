package circle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/domain/model"
	"github.com/memberops-lab/memberflow/pkg/utils/logging"
)

const defaultBaseURL = "https://app.circle.so"

// Client talks to the community platform's membership API
type Client struct {
	baseURL     string
	token       string
	communityID string
	ownerEmail  string
	httpClient  *http.Client
}

var _ interfaces.Community = &Client{}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithOwnerEmail sets the community owner, who is removed together with the
// member during offboarding
func WithOwnerEmail(email string) Option {
	return func(c *Client) {
		c.ownerEmail = model.NormalizeEmail(email)
	}
}

// WithHTTPClient overrides the HTTP client, used by tests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a community platform client
func New(token, communityID string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, goerr.New("community API token is required")
	}
	if communityID == "" {
		return nil, goerr.New("community ID is required")
	}

	c := &Client{
		baseURL:     defaultBaseURL,
		token:       token,
		communityID: communityID,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// RemoveMembers removes the given contacts (plus the configured owner) from
// the community. Each removal is independent: failures are aggregated into
// the result, never aborting the remaining removals.
func (c *Client) RemoveMembers(ctx context.Context, teamMembers, partners []model.Contact) (*interfaces.CommunityRemoveResult, error) {
	emails := make([]string, 0, len(teamMembers)+len(partners)+1)
	seen := map[string]bool{}

	appendEmail := func(email string) {
		email = model.NormalizeEmail(email)
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		emails = append(emails, email)
	}

	for _, contact := range teamMembers {
		appendEmail(contact.Email)
	}
	for _, contact := range partners {
		appendEmail(contact.Email)
	}
	appendEmail(c.ownerEmail)

	result := &interfaces.CommunityRemoveResult{}
	for _, email := range emails {
		if err := c.removeMember(ctx, email); err != nil {
			logging.From(ctx).Warn("failed to remove community member",
				"email", email, "error", err.Error())
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", email, err.Error()))
			continue
		}
		result.Removed++
	}

	return result, nil
}

func (c *Client) removeMember(ctx context.Context, email string) error {
	endpoint := fmt.Sprintf("%s/api/v1/community_members?%s", c.baseURL, url.Values{
		"email":        []string{email},
		"community_id": []string{c.communityID},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to build removal request", goerr.V("email", email))
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "community removal request failed", goerr.V("email", email))
	}
	defer resp.Body.Close()

	// 404 means the contact is already gone, which is the desired end state
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New("community removal rejected",
			goerr.V("email", email),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	return nil
}
