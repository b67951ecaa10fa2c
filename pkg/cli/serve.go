package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/memberops-lab/memberflow/pkg/cli/config"
	httpctrl "github.com/memberops-lab/memberflow/pkg/controller/http"
	"github.com/memberops-lab/memberflow/pkg/usecase"
	"github.com/memberops-lab/memberflow/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var signingSecret string
	var repoCfg config.Repository
	var slackCfg config.Slack
	var notionCfg config.Notion
	var circleCfg config.Circle
	var whatsappCfg config.WhatsApp
	var policyCfg config.Policy

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MEMBERFLOW_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "webhook-signing-secret",
			Usage:       "HMAC secret for webhook signature verification (disabled when empty)",
			Sources:     cli.EnvVars("MEMBERFLOW_WEBHOOK_SIGNING_SECRET"),
			Destination: &signingSecret,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, notionCfg.Flags()...)
	flags = append(flags, circleCfg.Flags()...)
	flags = append(flags, whatsappCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook ingestion server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			policy, err := policyCfg.Configure(slackCfg.BounceChannelID(), slackCfg.CancelChannelID())
			if err != nil {
				return goerr.Wrap(err, "failed to load escalation policy")
			}

			var ucOpts []usecase.Option

			messenger, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack messenger")
			}
			if messenger != nil {
				ucOpts = append(ucOpts, usecase.WithMessenger(messenger))
				logging.Default().Info("Slack messenger enabled")
			} else {
				logging.Default().Warn("Slack bot token not configured, thread notifications disabled")
			}

			roster, sources, err := notionCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize notion roster")
			}
			if roster != nil {
				ucOpts = append(ucOpts, usecase.WithRoster(roster))
				logging.Default().Info("Notion roster enabled", "contact_sources", len(sources))
			} else {
				logging.Default().Warn("Notion not configured, roster lookups disabled")
			}
			if len(sources) > 0 {
				ucOpts = append(ucOpts, usecase.WithContactSources(sources...))
			}

			community, err := circleCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize community client")
			}
			if community != nil {
				ucOpts = append(ucOpts, usecase.WithCommunity(community))
				logging.Default().Info("Community platform enabled")
			}

			chatGroups, err := whatsappCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize chat-group client")
			}
			if chatGroups != nil {
				ucOpts = append(ucOpts, usecase.WithChatGroups(chatGroups))
				logging.Default().Info("Chat-group provider enabled")
			}

			uc := usecase.New(repo, policy, ucOpts...)

			httpOpts := []httpctrl.Options{}
			if signingSecret != "" {
				httpOpts = append(httpOpts, httpctrl.WithSigningSecret(signingSecret))
				logging.Default().Info("Webhook signature verification enabled")
			} else {
				logging.Default().Warn("Webhook signature verification disabled")
			}

			handler := httpctrl.New(httpctrl.NewWebhookHandler(uc), httpOpts...)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
