// Package ollama serves completions and embeddings from a local Ollama
// daemon.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/types"
)

// Client talks to a local Ollama server for both completion and embeddings.
type Client struct {
	client *api.Client
}

var (
	_ client.CompletionClient = (*Client)(nil)
	_ client.EmbeddingClient  = (*Client)(nil)
)

// NewClient creates a client for the Ollama server at host.
func NewClient(host string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{client: api.NewClient(u, httpClient)}, nil
}

// Complete runs a non-streaming chat request.
func (c *Client) Complete(ctx context.Context, model types.Model, req client.CompletionRequest) (string, error) {
	var msgs []api.Message
	if req.System != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: req.Prompt})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    model.ModelID,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": req.Temperature},
	}
	if req.JSON {
		chatReq.Format = json.RawMessage(`"json"`)
	}

	var sb strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama completion failed: %w", err)
	}
	return sb.String(), nil
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, model types.Model, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, model, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns embedding vectors for multiple texts.
func (c *Client) EmbedBatch(ctx context.Context, model types.Model, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.Embed(ctx, &api.EmbedRequest{Model: model.ModelID, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings, expected %d", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Dimensions is a static lookup for common local embedding models.
func (c *Client) Dimensions(model types.Model) int {
	name, _, _ := strings.Cut(model.ModelID, ":")
	switch name {
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	default:
		// nomic-embed-text
		return 768
	}
}
