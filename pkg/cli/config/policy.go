package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	domaincfg "github.com/memberops-lab/memberflow/pkg/domain/model/config"
)

// Policy holds CLI flags for the escalation policy file
type Policy struct {
	path string
}

// policyFile is the TOML shape of the policy file. All fields are optional;
// absent fields keep their defaults.
type policyFile struct {
	OffboardThreshold   int    `toml:"offboard_threshold"`
	RetryGap            string `toml:"retry_gap"`
	CanceledStatusLabel string `toml:"canceled_status_label"`
	PaymentUpdateURL    string `toml:"payment_update_url"`
	RecoveryTemplate    string `toml:"recovery_template"`
}

// Flags returns CLI flags for policy configuration
func (p *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "Path to the escalation policy TOML file",
			Sources:     cli.EnvVars("MEMBERFLOW_POLICY"),
			Destination: &p.path,
		},
	}
}

// Configure loads the lifecycle policy, overlaying the TOML file (when given)
// on the defaults. Channel IDs come from the Slack flags, not the file.
func (p *Policy) Configure(bounceChannelID, cancelChannelID string) (*domaincfg.LifecycleConfig, error) {
	policy := domaincfg.DefaultLifecycle()
	policy.BounceChannelID = bounceChannelID
	policy.CancelChannelID = cancelChannelID

	if p.path != "" {
		data, err := os.ReadFile(p.path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", p.path))
		}

		var f policyFile
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, goerr.Wrap(err, "failed to parse policy file", goerr.V("path", p.path))
		}

		if f.OffboardThreshold != 0 {
			policy.OffboardThreshold = f.OffboardThreshold
		}
		if f.RetryGap != "" {
			gap, err := time.ParseDuration(f.RetryGap)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid retry_gap in policy file", goerr.V("retry_gap", f.RetryGap))
			}
			policy.RetryGap = gap
		}
		if f.CanceledStatusLabel != "" {
			policy.CanceledStatusLabel = f.CanceledStatusLabel
		}
		if f.PaymentUpdateURL != "" {
			policy.PaymentUpdateURL = f.PaymentUpdateURL
		}
		if f.RecoveryTemplate != "" {
			policy.RecoveryTemplate = f.RecoveryTemplate
		}
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}
