// Package retrieval is the single entry point for memory and catalog
// lookups and for recording new memories.
package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/austiecodes/curator/internal/catalog"
	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/metrics"
	"github.com/austiecodes/curator/internal/types"
)

// MemoryStore persists and searches user memories.
type MemoryStore interface {
	SaveMemory(ctx context.Context, item *memtypes.StoredMemory) error
	SearchMemories(ctx context.Context, filter memtypes.MemoryFilter, queryEmbedding []float32, topK int, minSimilarity float64) ([]memtypes.SearchResult, error)
	RecentMemories(ctx context.Context, filter memtypes.MemoryFilter, limit int) ([]memtypes.StoredMemory, error)
}

// ContentIndex runs similarity search over the catalog.
type ContentIndex interface {
	SearchContent(ctx context.Context, queryEmbedding []float32, topK int, minSimilarity float64) ([]memtypes.ContentSearchResult, error)
}

// MemoryHit is a memory matched by similarity.
type MemoryHit struct {
	Document   string         `json:"document"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

// ReviewInput is a review to be remembered. Rating is nil when the user did
// not rate the title.
type ReviewInput struct {
	UserID string
	Title  string
	Text   string
	Rating *float64
}

// ConversationInput is one completed agent interaction.
type ConversationInput struct {
	UserID    string
	Query     string
	Response  string
	AgentType types.AgentType
}

// Config holds the inclusive similarity thresholds.
type Config struct {
	MemoryThreshold  float64
	ContentThreshold float64
}

// DefaultConfig uses 0.70 for memories and 0.50 for content.
func DefaultConfig() Config {
	return Config{
		MemoryThreshold:  consts.MemorySimilarityThreshold,
		ContentThreshold: consts.ContentSimilarityThreshold,
	}
}

// Gateway embeds queries and documents with one model and talks to the
// memory store and content index.
type Gateway struct {
	memories MemoryStore
	content  ContentIndex
	embedder client.EmbeddingClient
	model    types.Model
	norm     catalog.Normalizer
	cfg      Config
	writer   *Writer
}

// NewGateway builds the gateway. writer receives conversation memories.
func NewGateway(memories MemoryStore, content ContentIndex, embedder client.EmbeddingClient,
	model types.Model, norm catalog.Normalizer, cfg Config, writer *Writer) *Gateway {
	return &Gateway{
		memories: memories,
		content:  content,
		embedder: embedder,
		model:    model,
		norm:     norm,
		cfg:      cfg,
		writer:   writer,
	}
}

// SimilarUserMemories returns the user's memories of one type that reach
// the memory threshold, best first.
func (g *Gateway) SimilarUserMemories(ctx context.Context, userID, query string, memoryType memtypes.MemoryType, limit int) ([]MemoryHit, error) {
	kind := "memory_" + string(memoryType)
	vec, err := g.embedder.Embed(ctx, g.model, query)
	if err != nil {
		metrics.RecordRetrieval(kind, 0, err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filter := memtypes.MemoryFilter{UserID: userID, MemoryType: memoryType}
	results, err := g.memories.SearchMemories(ctx, filter, vec, limit, g.cfg.MemoryThreshold)
	if err != nil {
		metrics.RecordRetrieval(kind, 0, err)
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}

	hits := make([]MemoryHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, MemoryHit{
			Document:   r.Item.Document,
			Metadata:   r.Item.Metadata(),
			Similarity: r.Similarity,
		})
	}
	metrics.RecordRetrieval(kind, len(hits), nil)
	return hits, nil
}

// SimilarContentItems returns catalog items that reach the content
// threshold, best first with ties broken by id.
func (g *Gateway) SimilarContentItems(ctx context.Context, query string, limit int) ([]catalog.ContentItem, error) {
	vec, err := g.embedder.Embed(ctx, g.model, query)
	if err != nil {
		metrics.RecordRetrieval("content", 0, err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := g.content.SearchContent(ctx, vec, limit, g.cfg.ContentThreshold)
	if err != nil {
		metrics.RecordRetrieval("content", 0, err)
		return nil, fmt.Errorf("failed to search content: %w", err)
	}

	items := make([]catalog.ContentItem, 0, len(results))
	for _, r := range results {
		sim := r.Similarity
		items = append(items, g.norm.FromRow(r.Row, &sim))
	}
	metrics.RecordRetrieval("content", len(items), nil)
	return items, nil
}

// RecentReviews returns the user's newest reviews first.
func (g *Gateway) RecentReviews(ctx context.Context, userID string, limit int) ([]memtypes.StoredMemory, error) {
	return g.memories.RecentMemories(ctx, memtypes.MemoryFilter{
		UserID:     userID,
		MemoryType: memtypes.TypeUserReview,
	}, limit)
}

// RecordReview embeds and stores a review before returning.
func (g *Gateway) RecordReview(ctx context.Context, in ReviewInput) error {
	doc := ReviewDocument(in.Title, in.Text, in.Rating)
	vec, err := g.embedder.Embed(ctx, g.model, doc)
	if err != nil {
		metrics.MemoryWrites.WithLabelValues(string(memtypes.TypeUserReview), "failed").Inc()
		return fmt.Errorf("failed to embed review: %w", err)
	}

	item := &memtypes.StoredMemory{
		UserID:     in.UserID,
		MemoryType: memtypes.TypeUserReview,
		Document:   doc,
		MovieTitle: in.Title,
		ReviewText: in.Text,
		Rating:     in.Rating,
		Provider:   g.model.Provider,
		ModelID:    g.model.ModelID,
		Dim:        len(vec),
		Embedding:  vec,
	}
	if err := g.memories.SaveMemory(ctx, item); err != nil {
		metrics.MemoryWrites.WithLabelValues(string(memtypes.TypeUserReview), "failed").Inc()
		return err
	}
	metrics.MemoryWrites.WithLabelValues(string(memtypes.TypeUserReview), "ok").Inc()
	return nil
}

// RecordConversation hands the interaction to the async writer and returns
// at once.
func (g *Gateway) RecordConversation(in ConversationInput) {
	g.writer.Enqueue(in)
}

// Flush waits for queued conversation writes.
func (g *Gateway) Flush(ctx context.Context) error {
	return g.writer.Flush(ctx)
}

// ReviewDocument renders the text embedded for a review.
func ReviewDocument(title, text string, rating *float64) string {
	r := consts.NotRatedLabel
	if rating != nil {
		r = strconv.FormatFloat(*rating, 'f', -1, 64)
	}
	return fmt.Sprintf("Movie: %s. Review: %s. Rating: %s", title, text, r)
}

// ConversationDocument renders the text embedded for a conversation turn.
func ConversationDocument(query, response string) string {
	return "User: " + query + "\nAI: " + response
}
