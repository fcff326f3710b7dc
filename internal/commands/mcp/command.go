package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/austiecodes/curator/internal/app"
	"github.com/austiecodes/curator/internal/commands/cmdutil"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/types"
)

// McpCmd is the command to start the MCP server
var McpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio",
	Long:  `Start a Model Context Protocol (MCP) server that communicates over stdio. This exposes routing, recommendations and user memory as MCP tools.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMcpServer(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runMcpServer(cmd *cobra.Command) error {
	// stdout carries the protocol
	a, err := cmdutil.Open(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	stop := a.StartWriter(context.Background())
	defer stop()

	s := server.NewMCPServer(
		"curator",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	registerTools(s, &tools{app: a})

	return server.ServeStdio(s)
}

func registerTools(s *server.MCPServer, t *tools) {
	s.AddTool(mcp.NewTool("curator_route",
		mcp.WithDescription("Classify a request and answer it with the matching agent: movie recommendation, video idea generation, short-form script or caption optimisation. Returns the agent's JSON result."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("The user whose memory personalises the answer")),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user's request")),
	), t.handleRoute)

	s.AddTool(mcp.NewTool("curator_recommend",
		mcp.WithDescription("Recommend a movie using the user's review history and the catalog."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("The user to recommend for")),
		mcp.WithString("query", mcp.Required(), mcp.Description("What the user is in the mood for")),
	), t.handleRecommend)

	s.AddTool(mcp.NewTool("curator_record_review",
		mcp.WithDescription("Store a movie review in the user's memory. Reviews shape later recommendations."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("The reviewing user")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Movie title")),
		mcp.WithString("text", mcp.Description("Review text (optional)")),
		mcp.WithNumber("rating", mcp.Description("Rating from 0 to 10 (optional)")),
	), t.handleRecordReview)

	s.AddTool(mcp.NewTool("curator_memory_search",
		mcp.WithDescription("Search a user's memory by meaning. Only memories above the configured similarity threshold are returned."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("The user whose memory is searched")),
		mcp.WithString("query", mcp.Required(), mcp.Description("What to look for")),
		mcp.WithString("type", mcp.Description("user_review or conversation (default: user_review)")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default: 5)")),
	), t.handleMemorySearch)
}

type tools struct {
	app *app.App
}

func (t *tools) handleRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, query, errResult := userAndQuery(request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(t.app.Router.Route(ctx, userID, query))
}

func (t *tools) handleRecommend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, query, errResult := userAndQuery(request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(t.app.Router.Dispatch(ctx, types.AgentMovieRecommendation, userID, query))
}

func (t *tools) handleRecordReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("missing arguments"), nil
	}
	userID, ok := stringArg(args, "user_id")
	if !ok {
		return mcp.NewToolResultError("parameter 'user_id' must be a non-empty string"), nil
	}
	title, ok := stringArg(args, "title")
	if !ok {
		return mcp.NewToolResultError("parameter 'title' must be a non-empty string"), nil
	}
	text, _ := stringArg(args, "text")

	in := retrieval.ReviewInput{UserID: userID, Title: title, Text: text}
	if r, ok := args["rating"].(float64); ok {
		if r < 0 || r > 10 {
			return mcp.NewToolResultError("parameter 'rating' must be between 0 and 10"), nil
		}
		in.Rating = &r
	}

	if err := t.app.Gateway.RecordReview(ctx, in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record review: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Review of %s stored for %s", title, userID)), nil
}

func (t *tools) handleMemorySearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, query, errResult := userAndQuery(request)
	if errResult != nil {
		return errResult, nil
	}
	args := request.GetArguments()

	memoryType := memtypes.TypeUserReview
	if v, ok := stringArg(args, "type"); ok {
		memoryType = memtypes.MemoryType(v)
		if !memoryType.Valid() {
			return mcp.NewToolResultError("parameter 'type' must be user_review or conversation"), nil
		}
	}
	limit := 5
	if v, ok := args["limit"].(float64); ok && v >= 1 && v <= 50 {
		limit = int(v)
	}

	hits, err := t.app.Gateway.SimilarUserMemories(ctx, userID, query, memoryType, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("memory search failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatHits(hits)), nil
}

func formatHits(hits []retrieval.MemoryHit) string {
	if len(hits) == 0 {
		return "No matching memories."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d memories:\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&sb, "\n%d. [%.2f] %s\n", i+1, h.Similarity, h.Document)
	}
	return sb.String()
}

func userAndQuery(request mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	args := request.GetArguments()
	if args == nil {
		return "", "", mcp.NewToolResultError("missing arguments")
	}
	userID, ok := stringArg(args, "user_id")
	if !ok {
		return "", "", mcp.NewToolResultError("parameter 'user_id' must be a non-empty string")
	}
	query, ok := stringArg(args, "query")
	if !ok {
		return "", "", mcp.NewToolResultError("parameter 'query' must be a non-empty string")
	}
	return userID, query, nil
}

func stringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name].(string)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
