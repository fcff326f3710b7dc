package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/types"
)

// EmbeddingClient wraps OpenAI client for embedding operations.
type EmbeddingClient struct {
	c *Client
}

// Compile-time check that EmbeddingClient implements client.EmbeddingClient.
var _ client.EmbeddingClient = (*EmbeddingClient)(nil)

// NewEmbeddingClient shares the connection settings of c.
func NewEmbeddingClient(c *Client) *EmbeddingClient {
	return &EmbeddingClient{c: c}
}

// Embed returns the embedding vector for the given text.
func (e *EmbeddingClient) Embed(ctx context.Context, model types.Model, text string) ([]float32, error) {
	resp, err := e.c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(model.ModelID),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s embedding failed: %w", e.c.provider, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned empty embedding data")
	}

	return toFloat32(resp.Data[0].Embedding), nil
}

// EmbedBatch returns embedding vectors for multiple texts.
func (e *EmbeddingClient) EmbedBatch(ctx context.Context, model types.Model, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(model.ModelID),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s batch embedding failed: %w", e.c.provider, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings, expected %d", len(resp.Data), len(texts))
	}

	result := make([][]float32, len(resp.Data))
	for _, data := range resp.Data {
		if int(data.Index) < 0 || int(data.Index) >= len(result) {
			return nil, fmt.Errorf("openai returned embedding index %d out of range", data.Index)
		}
		result[data.Index] = toFloat32(data.Embedding)
	}
	return result, nil
}

// toFloat32 narrows the API's float64 values for storage.
func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// Dimensions is a static lookup for known models.
func (e *EmbeddingClient) Dimensions(model types.Model) int {
	switch model.ModelID {
	case string(openai.EmbeddingModelTextEmbedding3Small):
		return 1536
	case string(openai.EmbeddingModelTextEmbedding3Large):
		return 3072
	case string(openai.EmbeddingModelTextEmbeddingAda002):
		return 1536
	case "nomic-embed-text-v1.5":
		return 768
	default:
		return 1536
	}
}
