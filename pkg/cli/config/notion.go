package config

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/service/notion"
)

// Notion holds CLI flags for the workflow-board roster and the Notion-backed
// contact sources
type Notion struct {
	token       string
	rosterDBID  string
	leadsDBID   string
	membersDBID string
	schemaTTL   time.Duration
}

// Flags returns CLI flags for Notion configuration
func (n *Notion) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token",
			Sources:     cli.EnvVars("MEMBERFLOW_NOTION_API_TOKEN"),
			Destination: &n.token,
		},
		&cli.StringFlag{
			Name:        "notion-roster-db-id",
			Usage:       "Notion database ID of the member roster board",
			Sources:     cli.EnvVars("MEMBERFLOW_NOTION_ROSTER_DB_ID"),
			Destination: &n.rosterDBID,
		},
		&cli.StringFlag{
			Name:        "notion-leads-db-id",
			Usage:       "Notion database ID of lead-capture records (optional contact source)",
			Sources:     cli.EnvVars("MEMBERFLOW_NOTION_LEADS_DB_ID"),
			Destination: &n.leadsDBID,
		},
		&cli.StringFlag{
			Name:        "notion-members-db-id",
			Usage:       "Notion database ID of membership records (optional contact source)",
			Sources:     cli.EnvVars("MEMBERFLOW_NOTION_MEMBERS_DB_ID"),
			Destination: &n.membersDBID,
		},
		&cli.DurationFlag{
			Name:        "notion-schema-ttl",
			Usage:       "TTL of the cached board schema",
			Value:       notion.DefaultSchemaTTL,
			Sources:     cli.EnvVars("MEMBERFLOW_NOTION_SCHEMA_TTL"),
			Destination: &n.schemaTTL,
		},
	}
}

// IsConfigured reports whether the roster can be built
func (n *Notion) IsConfigured() bool {
	return n.token != "" && n.rosterDBID != ""
}

// Configure builds the roster client and the ordered contact sources.
// Returns nil, nil, nil when Notion is not configured.
func (n *Notion) Configure() (interfaces.Roster, []interfaces.ContactSource, error) {
	if !n.IsConfigured() {
		return nil, nil, nil
	}

	client, err := notion.New(n.token, n.rosterDBID, notion.WithSchemaTTL(n.schemaTTL))
	if err != nil {
		return nil, nil, err
	}

	var sources []interfaces.ContactSource
	if n.leadsDBID != "" {
		sources = append(sources, notion.NewContactSource(client, n.leadsDBID, "lead-capture"))
	}
	if n.membersDBID != "" {
		sources = append(sources, notion.NewContactSource(client, n.membersDBID, "membership"))
	}

	return client, sources, nil
}
