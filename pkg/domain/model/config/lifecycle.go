package config

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// LifecycleConfig drives the escalation policy: attempt thresholds, the
// retry-promotion gap, target Slack channels and member-facing templates.
type LifecycleConfig struct {
	// OffboardThreshold is the failed-attempt count that triggers offboarding
	OffboardThreshold int

	// RetryGap is the wall-clock gap after which a byte-identical
	// charge-failure delivery is promoted to a new attempt. A heuristic: the
	// upstream sends no per-attempt identifier, so elapsed time is the only
	// signal separating re-delivery from a genuinely new attempt. If the
	// processor ever ships per-attempt IDs, fold them into the fingerprint
	// and delete the promotion path instead of tuning this value.
	RetryGap time.Duration

	// BounceChannelID hosts monthly_bounce threads (failure escalations)
	BounceChannelID string
	// CancelChannelID hosts cancel threads
	CancelChannelID string

	// CanceledStatusLabel is the roster status applied during offboarding
	CanceledStatusLabel string

	// PaymentUpdateURL is substituted into the recovery template
	PaymentUpdateURL string

	// RecoveryTemplate is the member-facing payment-recovery message posted
	// on the first failed attempt. Supports {{name}} and {{payment_url}}.
	RecoveryTemplate string
}

const defaultRecoveryTemplate = "Hi {{name}}, we could not process your membership payment. " +
	"Please update your payment details here: {{payment_url}}"

// DefaultLifecycle returns the policy defaults
func DefaultLifecycle() *LifecycleConfig {
	return &LifecycleConfig{
		OffboardThreshold:   4,
		RetryGap:            6 * time.Hour,
		CanceledStatusLabel: "Canceled",
		RecoveryTemplate:    defaultRecoveryTemplate,
	}
}

// Validate checks if the LifecycleConfig is valid
func (c *LifecycleConfig) Validate() error {
	if c.OffboardThreshold < 1 {
		return goerr.New("offboard threshold must be at least 1", goerr.V("threshold", c.OffboardThreshold))
	}
	if c.RetryGap <= 0 {
		return goerr.New("retry gap must be positive", goerr.V("retry_gap", c.RetryGap))
	}
	if c.CanceledStatusLabel == "" {
		return goerr.New("canceled status label is required")
	}
	return nil
}

// RenderRecovery fills the recovery template for a member
func (c *LifecycleConfig) RenderRecovery(name string) string {
	if name == "" {
		name = "there"
	}
	msg := strings.ReplaceAll(c.RecoveryTemplate, "{{name}}", name)
	return strings.ReplaceAll(msg, "{{payment_url}}", c.PaymentUpdateURL)
}
