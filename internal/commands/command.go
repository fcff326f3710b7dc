package commands

import (
	mcpcmd "github.com/austiecodes/curator/internal/commands/mcp"
	memorycmd "github.com/austiecodes/curator/internal/commands/memory"
	reviewcmd "github.com/austiecodes/curator/internal/commands/review"
	routecmd "github.com/austiecodes/curator/internal/commands/route"
	servecmd "github.com/austiecodes/curator/internal/commands/serve"
)

func init() {
	rootCmd.AddCommand(servecmd.ServeCmd)
	rootCmd.AddCommand(servecmd.ConsumeCmd)
	rootCmd.AddCommand(routecmd.RouteCmd)
	rootCmd.AddCommand(routecmd.RecommendCmd)
	rootCmd.AddCommand(reviewcmd.ReviewCmd)
	rootCmd.AddCommand(mcpcmd.McpCmd)
	rootCmd.AddCommand(memorycmd.MemoryCmd)
}
