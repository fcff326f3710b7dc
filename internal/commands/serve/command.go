package serve

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/austiecodes/curator/internal/commands/cmdutil"
	"github.com/austiecodes/curator/internal/logging"
)

// ServeCmd runs the HTTP API, plus the consumer when NATS is enabled.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API together with the conversation writer and the retention
job. The review event consumer joins them when nats.enabled is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, true)
	},
}

// ConsumeCmd runs only the review event consumer.
var ConsumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume review events from NATS into user memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, false)
	},
}

func run(cmd *cobra.Command, withAPI bool) error {
	a, err := cmdutil.Open(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := cmdutil.SignalContext(cmd)
	defer stop()

	withConsumer := !withAPI || a.Config.NATS.Enabled
	logging.Info().
		Bool("api", withAPI).
		Bool("consumer", withConsumer).
		Str("store", a.Config.Store.Backend).
		Str("content_index", a.Config.Store.ContentIndex).
		Msg("starting curator")

	tree := a.Tree(withAPI, withConsumer)
	err = tree.Serve(ctx)

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("services did not stop in time")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("curator stopped")
	return nil
}
