package config

import (
	"github.com/urfave/cli/v3"

	"github.com/memberops-lab/memberflow/pkg/domain/interfaces"
	"github.com/memberops-lab/memberflow/pkg/service/whatsapp"
)

// WhatsApp holds CLI flags for the chat-group provider configuration
type WhatsApp struct {
	baseURL  string
	token    string
	groupIDs []string
}

// Flags returns CLI flags for chat-group provider configuration
func (w *WhatsApp) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "whatsapp-api-url",
			Usage:       "Chat-group provider API base URL",
			Sources:     cli.EnvVars("MEMBERFLOW_WHATSAPP_API_URL"),
			Destination: &w.baseURL,
		},
		&cli.StringFlag{
			Name:        "whatsapp-api-token",
			Usage:       "Chat-group provider API token",
			Sources:     cli.EnvVars("MEMBERFLOW_WHATSAPP_API_TOKEN"),
			Destination: &w.token,
		},
		&cli.StringSliceFlag{
			Name:        "whatsapp-group-id",
			Usage:       "Group ID to remove offboarded members from (repeatable)",
			Sources:     cli.EnvVars("MEMBERFLOW_WHATSAPP_GROUP_IDS"),
			Destination: &w.groupIDs,
		},
	}
}

// IsConfigured reports whether the chat-group client can be built
func (w *WhatsApp) IsConfigured() bool {
	return w.baseURL != "" && w.token != "" && len(w.groupIDs) > 0
}

// Configure builds the chat-group client, or nil when not configured
func (w *WhatsApp) Configure() (interfaces.ChatGroups, error) {
	if !w.IsConfigured() {
		return nil, nil
	}
	return whatsapp.New(w.baseURL, w.token, w.groupIDs)
}
