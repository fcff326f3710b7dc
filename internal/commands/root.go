package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/austiecodes/curator/internal/commands/cmdutil"
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "curator is a personalised movie and content-creation assistant",
	Long: `curator recommends movies from a user's review history and runs creative
agents for short-form video ideas, scripts and captions. It serves an HTTP
API, consumes review events from NATS and exposes its tools over MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String(cmdutil.ConfigFlag, "", "path to a YAML config file (default: $CURATOR_CONFIG, ./curator.yaml, ./config.yaml)")
}

// AddCommand adds a subcommand to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
