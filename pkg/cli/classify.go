package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/memberops-lab/memberflow/pkg/domain/model"
)

// cmdClassify runs the parser and classifier over one payload without
// touching any store, for debugging webhook deliveries from logs.
func cmdClassify() *cli.Command {
	var input string

	return &cli.Command{
		Name:  "classify",
		Usage: "Classify a webhook payload from a file or stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "Payload file path (stdin when omitted)",
				Destination: &input,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var raw []byte
			var err error
			if input == "" {
				raw, err = io.ReadAll(os.Stdin)
			} else {
				raw, err = os.ReadFile(input)
			}
			if err != nil {
				return goerr.Wrap(err, "failed to read payload")
			}

			ev, err := model.ParseWebhookEvent(raw, time.Now())
			if err != nil {
				return err
			}
			kind := model.Classify(ev.Type, ev.Status)

			out := map[string]any{
				"event_type":  ev.Type,
				"status":      ev.Status,
				"kind":        kind.String(),
				"email":       ev.Email,
				"occurred_at": ev.OccurredAt.Format(time.RFC3339),
			}
			if kind.IsSubscription() {
				out["event_key"] = model.Fingerprint(raw, ev, kind)
				out["period_key"] = model.NewSubscriptionEvent("", kind, ev).PeriodKey.String()
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
