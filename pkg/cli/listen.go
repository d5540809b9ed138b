package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/flaboy/aira-books/pkg/trigger"
	"github.com/spf13/cobra"
)

func NewListenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "listen",
		Short:         "Listen for sync requests on the trigger queue",
		Long:          "Long-polls the configured SQS queue and runs a sync for each requested team.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, err := setup(rootOpts)
			if err != nil {
				return err
			}
			if cfg.Trigger.SQSQueueURL == "" {
				return fmt.Errorf("trigger queue is not configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = trigger.NewListener(engine, cfg).Start(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	return cmd
}
