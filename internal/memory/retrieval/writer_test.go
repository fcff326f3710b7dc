package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/types"
)

// flakyEmbeddingClient fails the first n calls.
type flakyEmbeddingClient struct {
	fakeEmbeddingClient
	mu    sync.Mutex
	fails int
	calls int
}

func (f *flakyEmbeddingClient) Embed(ctx context.Context, model types.Model, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.fails
	f.mu.Unlock()
	if fail {
		return nil, errors.New("rate limited")
	}
	return f.fakeEmbeddingClient.Embed(ctx, model, text)
}

func startWriter(t *testing.T, w *Writer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func flush(t *testing.T, w *Writer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func conversations(t *testing.T, g *Gateway, userID string) []memtypes.StoredMemory {
	t.Helper()
	s := g.memories
	items, err := s.RecentMemories(context.Background(), memtypes.MemoryFilter{UserID: userID, MemoryType: memtypes.TypeConversation}, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return items
}

func TestWriterStoresConversation(t *testing.T) {
	s := setupTestStore(t)
	g := newTestGateway(t, s)
	startWriter(t, g.writer)

	g.RecordConversation(ConversationInput{
		UserID:    "u1",
		Query:     "something funny",
		Response:  `{"agent_type":"movie_recommendation"}`,
		AgentType: types.AgentMovieRecommendation,
	})
	flush(t, g.writer)

	items := conversations(t, g, "u1")
	if len(items) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(items))
	}
	if items[0].Document != "User: something funny\nAI: {\"agent_type\":\"movie_recommendation\"}" {
		t.Fatalf("unexpected document %q", items[0].Document)
	}
	if items[0].AgentType != "movie_recommendation" {
		t.Fatalf("unexpected agent type %q", items[0].AgentType)
	}
}

func TestWriterRetriesThenSucceeds(t *testing.T) {
	s := setupTestStore(t)
	emb := &flakyEmbeddingClient{fails: 2}
	w := NewWriter(s, emb, testModel, WriterConfig{QueueSize: 4, Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	startWriter(t, w)

	w.Enqueue(ConversationInput{UserID: "u1", Query: "q", Response: "r", AgentType: types.AgentIdeaGeneration})
	flush(t, w)

	items, err := s.RecentMemories(context.Background(), memtypes.MemoryFilter{UserID: "u1"}, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the write to land after retries, got %d rows", len(items))
	}
	if emb.calls != 3 {
		t.Fatalf("expected 3 embed calls, got %d", emb.calls)
	}
}

func TestWriterGivesUp(t *testing.T) {
	s := setupTestStore(t)
	emb := &flakyEmbeddingClient{fails: 100}
	w := NewWriter(s, emb, testModel, WriterConfig{QueueSize: 4, Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	startWriter(t, w)

	w.Enqueue(ConversationInput{UserID: "u1", Query: "q", Response: "r", AgentType: types.AgentShortsScript})
	flush(t, w)

	if w.Pending() != 0 {
		t.Fatalf("expected nothing pending, got %d", w.Pending())
	}
	if emb.calls != 3 {
		t.Fatalf("expected 1 attempt plus 2 retries, got %d", emb.calls)
	}
}

func TestWriterDropsWhenFull(t *testing.T) {
	s := setupTestStore(t)
	w := NewWriter(s, &fakeEmbeddingClient{}, testModel, WriterConfig{QueueSize: 1, Workers: 1})

	// not serving, so the first write sits in the queue
	w.Enqueue(ConversationInput{UserID: "u1", Query: "a"})
	w.Enqueue(ConversationInput{UserID: "u1", Query: "b"})
	if w.Pending() != 1 {
		t.Fatalf("expected the second write to be dropped, pending=%d", w.Pending())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := w.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected flush to time out without workers, got %v", err)
	}

	startWriter(t, w)
	flush(t, w)
}
