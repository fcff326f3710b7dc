// Package cmdutil holds the setup shared by every subcommand.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/austiecodes/curator/internal/app"
	"github.com/austiecodes/curator/internal/config"
	"github.com/austiecodes/curator/internal/logging"
)

// ConfigFlag is the persistent flag defined on the root command.
const ConfigFlag = "config"

// LoadConfig reads configuration and sets up logging. logOut overrides the
// log destination; nil keeps stderr.
func LoadConfig(cmd *cobra.Command, logOut io.Writer) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(ConfigFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Format = cfg.Logging.Format
	lc.Caller = cfg.Logging.Caller
	if logOut != nil {
		lc.Output = logOut
	}
	logging.Init(lc)
	return cfg, nil
}

// Open loads configuration and builds the application.
func Open(cmd *cobra.Command, logOut io.Writer) (*app.App, error) {
	cfg, err := LoadConfig(cmd, logOut)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start curator: %w", err)
	}
	return a, nil
}

// SignalContext is canceled on SIGINT or SIGTERM.
func SignalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// PrintJSON writes v to stdout, indented.
func PrintJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
