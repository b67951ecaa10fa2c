package config

import (
	"github.com/urfave/cli/v3"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/service/circle"
)

// Circle holds CLI flags for the community platform configuration
type Circle struct {
	token       string
	communityID string
	ownerEmail  string
}

// Flags returns CLI flags for community platform configuration
func (c *Circle) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "circle-api-token",
			Usage:       "Community platform API token",
			Sources:     cli.EnvVars("MEMBERFLOW_CIRCLE_API_TOKEN"),
			Destination: &c.token,
		},
		&cli.StringFlag{
			Name:        "circle-community-id",
			Usage:       "Community ID to remove members from",
			Sources:     cli.EnvVars("MEMBERFLOW_CIRCLE_COMMUNITY_ID"),
			Destination: &c.communityID,
		},
		&cli.StringFlag{
			Name:        "circle-owner-email",
			Usage:       "Community owner email, removed together with the member",
			Sources:     cli.EnvVars("MEMBERFLOW_CIRCLE_OWNER_EMAIL"),
			Destination: &c.ownerEmail,
		},
	}
}

// IsConfigured reports whether the community client can be built
func (c *Circle) IsConfigured() bool {
	return c.token != "" && c.communityID != ""
}

// Configure builds the community client, or nil when not configured
func (c *Circle) Configure() (interfaces.Community, error) {
	if !c.IsConfigured() {
		return nil, nil
	}

	var opts []circle.Option
	if c.ownerEmail != "" {
		opts = append(opts, circle.WithOwnerEmail(c.ownerEmail))
	}
	return circle.New(c.token, c.communityID, opts...)
}
