package mcp

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/austiecodes/curator/internal/memory/retrieval"
)

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestUserAndQuery(t *testing.T) {
	userID, query, errResult := userAndQuery(request(map[string]any{"user_id": " u1 ", "query": "something scary"}))
	if errResult != nil {
		t.Fatalf("unexpected error result: %+v", errResult)
	}
	if userID != "u1" || query != "something scary" {
		t.Fatalf("got %q, %q", userID, query)
	}

	for _, args := range []map[string]any{
		nil,
		{"query": "x"},
		{"user_id": "u1", "query": "   "},
		{"user_id": 42, "query": "x"},
	} {
		if _, _, errResult := userAndQuery(request(args)); errResult == nil || !errResult.IsError {
			t.Fatalf("expected error result for %v", args)
		}
	}
}

func TestFormatHits(t *testing.T) {
	if got := formatHits(nil); got != "No matching memories." {
		t.Fatalf("unexpected empty output %q", got)
	}

	out := formatHits([]retrieval.MemoryHit{
		{Document: "Movie: Alien\nRating: 9/10", Similarity: 0.91},
		{Document: "Movie: Heat", Similarity: 0.7},
	})
	if !strings.HasPrefix(out, "Found 2 memories:") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "1. [0.91] Movie: Alien") || !strings.Contains(out, "2. [0.70] Movie: Heat") {
		t.Fatalf("unexpected body: %q", out)
	}
}
