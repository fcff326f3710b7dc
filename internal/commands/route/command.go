package route

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/austiecodes/curator/internal/agent"
	"github.com/austiecodes/curator/internal/app"
	"github.com/austiecodes/curator/internal/commands/cmdutil"
	"github.com/austiecodes/curator/internal/types"
)

var (
	userID    string
	agentName string
)

// RouteCmd routes a query to an agent, classifying it unless --agent is set.
var RouteCmd = &cobra.Command{
	Use:   "route [query]",
	Short: "Classify a query and answer it with the matching agent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args, func(a *app.App, cmd *cobra.Command, query string) agent.Result {
			if agentName != "" {
				label, ok := types.ParseAgentType(agentName)
				if !ok || !label.Dispatchable() {
					label = types.AgentMovieRecommendation
				}
				return a.Router.Dispatch(cmd.Context(), label, userID, query)
			}
			return a.Router.Route(cmd.Context(), userID, query)
		})
	},
}

// RecommendCmd runs the movie recommender directly.
var RecommendCmd = &cobra.Command{
	Use:   "recommend [query]",
	Short: "Recommend a movie from the user's history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args, func(a *app.App, cmd *cobra.Command, query string) agent.Result {
			return a.Router.Dispatch(cmd.Context(), types.AgentMovieRecommendation, userID, query)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{RouteCmd, RecommendCmd} {
		c.Flags().StringVarP(&userID, "user", "u", "", "user id whose memory is used")
		c.MarkFlagRequired("user")
	}
	RouteCmd.Flags().StringVar(&agentName, "agent", "", "skip classification and use this agent")
}

func run(cmd *cobra.Command, args []string, fn func(*app.App, *cobra.Command, string) agent.Result) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("query is empty")
	}

	a, err := cmdutil.Open(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	stop := a.StartWriter(cmd.Context())
	res := fn(a, cmd, query)
	stop()

	return cmdutil.PrintJSON(cmd, res)
}
