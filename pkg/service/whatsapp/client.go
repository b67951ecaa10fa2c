package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
)

// Client talks to the chat-group provider's participant API
type Client struct {
	baseURL    string
	token      string
	groupIDs   []string
	httpClient *http.Client
}

var _ interfaces.ChatGroups = &Client{}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, used by tests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a chat-group provider client operating on the given groups
func New(baseURL, token string, groupIDs []string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, goerr.New("chat-group API base URL is required")
	}
	if token == "" {
		return nil, goerr.New("chat-group API token is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		groupIDs:   groupIDs,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GroupIDs lists the configured groups to operate on
func (c *Client) GroupIDs() []string {
	return c.groupIDs
}

// RemoveParticipants removes phone numbers from a group
func (c *Client) RemoveParticipants(ctx context.Context, groupID string, phoneNumbers []string) error {
	if len(phoneNumbers) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"participants": phoneNumbers,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to encode participants", goerr.V("group_id", groupID))
	}

	endpoint := fmt.Sprintf("%s/groups/%s/participants/remove", c.baseURL, groupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return goerr.Wrap(err, "failed to build removal request", goerr.V("group_id", groupID))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "chat-group removal request failed", goerr.V("group_id", groupID))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New("chat-group removal rejected",
			goerr.V("group_id", groupID),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	return nil
}

// NormalizePhone canonicalizes a phone number to +digits form. Returns an
// empty string when the input has too few digits to address a participant.
func (c *Client) NormalizePhone(phone string) string {
	return NormalizePhone(phone)
}

const minPhoneDigits = 8

// NormalizePhone strips formatting characters and normalizes international
// prefixes ("00" becomes "+"). Numbers with fewer than 8 digits are unusable.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if strings.HasPrefix(d, "00") {
		d = d[2:]
	}
	if len(d) < minPhoneDigits {
		return ""
	}
	return "+" + d
}
