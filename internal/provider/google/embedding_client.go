package google

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/types"
)

// EmbeddingClient wraps Google Gemini client for embedding operations.
type EmbeddingClient struct {
	c *Client
}

// Compile-time check that EmbeddingClient implements client.EmbeddingClient.
var _ client.EmbeddingClient = (*EmbeddingClient)(nil)

// NewEmbeddingClient shares the underlying SDK client of c.
func NewEmbeddingClient(c *Client) *EmbeddingClient {
	return &EmbeddingClient{c: c}
}

// Embed returns the embedding vector for the given text.
func (e *EmbeddingClient) Embed(ctx context.Context, model types.Model, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	resp, err := e.c.client.Models.EmbedContent(ctx, model.ModelID, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("google embedding failed: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("google returned empty embedding data")
	}

	return resp.Embeddings[0].Values, nil
}

// EmbedBatch returns embedding vectors for multiple texts.
func (e *EmbeddingClient) EmbedBatch(ctx context.Context, model types.Model, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := e.c.client.Models.EmbedContent(ctx, model.ModelID, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("google batch embedding failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("google returned %d embeddings, expected %d", len(resp.Embeddings), len(texts))
	}

	result := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		result[i] = emb.Values
	}

	return result, nil
}

// Dimensions is a static lookup for known models.
func (e *EmbeddingClient) Dimensions(model types.Model) int {
	switch model.ModelID {
	case "gemini-embedding-001":
		return 3072
	default:
		// text-embedding-004 and text-multilingual-embedding-002
		return 768
	}
}
