package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/austiecodes/curator/internal/agent"
	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/types"
)

type fakeClassifier struct {
	reply string
	err   error
	req   client.CompletionRequest
}

func (f *fakeClassifier) Complete(_ context.Context, _ types.Model, req client.CompletionRequest) (string, error) {
	f.req = req
	return f.reply, f.err
}

type fakeMemory struct {
	mu        sync.Mutex
	hits      []retrieval.MemoryHit
	err       error
	lastLimit int
	lastType  memtypes.MemoryType
	recorded  []retrieval.ConversationInput
}

func (f *fakeMemory) SimilarUserMemories(_ context.Context, _, _ string, memoryType memtypes.MemoryType, limit int) ([]retrieval.MemoryHit, error) {
	f.lastLimit = limit
	f.lastType = memoryType
	return f.hits, f.err
}

func (f *fakeMemory) RecordConversation(in retrieval.ConversationInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, in)
}

type fakeRecommender struct {
	calls  int
	recent []retrieval.MemoryHit
}

func (f *fakeRecommender) Recommend(_ context.Context, _, _ string, recent []retrieval.MemoryHit) *agent.RecommendationResult {
	f.calls++
	f.recent = recent
	return &agent.RecommendationResult{AgentType: types.AgentMovieRecommendation}
}

type fakeCreative struct {
	called types.AgentType
	fail   bool
}

func (f *fakeCreative) Brainstorm(context.Context, string, []retrieval.MemoryHit) *agent.IdeasResult {
	f.called = types.AgentIdeaGeneration
	res := &agent.IdeasResult{AgentType: types.AgentIdeaGeneration, Ideas: []agent.Idea{{Title: "x"}}}
	if f.fail {
		res.Error = "Failed to parse AI response"
	}
	return res
}

func (f *fakeCreative) ScriptFor(context.Context, string, []retrieval.MemoryHit) *agent.ScriptResult {
	f.called = types.AgentShortsScript
	return &agent.ScriptResult{AgentType: types.AgentShortsScript}
}

func (f *fakeCreative) CaptionsFor(context.Context, string, []retrieval.MemoryHit) *agent.CaptionsResult {
	f.called = types.AgentCaptionOptimizer
	return &agent.CaptionsResult{AgentType: types.AgentCaptionOptimizer}
}

type fixture struct {
	classifier  *fakeClassifier
	memory      *fakeMemory
	recommender *fakeRecommender
	creative    *fakeCreative
	router      *Router
}

func newFixture(reply string, err error) *fixture {
	f := &fixture{
		classifier:  &fakeClassifier{reply: reply, err: err},
		memory:      &fakeMemory{},
		recommender: &fakeRecommender{},
		creative:    &fakeCreative{},
	}
	f.router = New(f.classifier, types.Model{Provider: "fake", ModelID: "fake"}, f.memory, f.recommender, f.creative, Config{})
	return f
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Idea_Generation \n", "idea_generation"},
		{`"shorts_script"`, "shorts_script"},
		{"'caption_optimizer'.", "caption_optimizer"},
		{"movie_recommendation!", "movie_recommendation"},
		{"`unknown`", "unknown"},
		{"\"movie_recommendation.\"", "movie_recommendation"},
	}
	for _, tt := range tests {
		if got := NormalizeLabel(tt.in); got != tt.want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		reply     string
		err       error
		want      types.AgentType
		defaulted bool
	}{
		{"idea_generation", nil, types.AgentIdeaGeneration, false},
		{" SHORTS_SCRIPT.", nil, types.AgentShortsScript, false},
		{"\"caption_optimizer\"", nil, types.AgentCaptionOptimizer, false},
		{"movie_recommendation", nil, types.AgentMovieRecommendation, false},
		{"banana", nil, types.AgentMovieRecommendation, true},
		{"unknown", nil, types.AgentMovieRecommendation, true},
		{"", errors.New("timeout"), types.AgentMovieRecommendation, true},
	}
	for _, tt := range tests {
		f := newFixture(tt.reply, tt.err)
		got, defaulted := f.router.Classify(context.Background(), "q")
		if got != tt.want || defaulted != tt.defaulted {
			t.Errorf("Classify with reply %q = %s,%v; want %s,%v", tt.reply, got, defaulted, tt.want, tt.defaulted)
		}
	}
}

func TestClassifierRequest(t *testing.T) {
	f := newFixture("idea_generation", nil)
	f.router.Classify(context.Background(), "give me video ideas")
	if f.classifier.req.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", f.classifier.req.Temperature)
	}
	for _, label := range []string{"movie_recommendation", "idea_generation", "shorts_script", "caption_optimizer", "unknown"} {
		if !strings.Contains(f.classifier.req.Prompt, label) {
			t.Errorf("prompt missing label %s", label)
		}
	}
}

func TestRouteBananaGoesToRecommender(t *testing.T) {
	f := newFixture("banana", nil)
	f.memory.hits = []retrieval.MemoryHit{{Document: "User: hi\nAI: hello", Similarity: 0.9}}

	res := f.router.Route(context.Background(), "u1", "what should I watch")
	if res.Agent() != types.AgentMovieRecommendation || f.recommender.calls != 1 {
		t.Fatalf("expected recommender, got %s", res.Agent())
	}
	if len(f.recommender.recent) != 1 {
		t.Fatal("expected conversation context to be passed on")
	}
	if f.memory.lastType != memtypes.TypeConversation || f.memory.lastLimit != 3 {
		t.Fatalf("expected 3 conversation memories, got %s/%d", f.memory.lastType, f.memory.lastLimit)
	}
	if len(f.memory.recorded) != 0 {
		t.Fatal("router must not store recommender results itself")
	}
}

func TestRouteCreativeIsRecorded(t *testing.T) {
	f := newFixture("idea_generation", nil)
	res := f.router.Route(context.Background(), "u1", "video ideas about horror movies")
	if res.Agent() != types.AgentIdeaGeneration || f.creative.called != types.AgentIdeaGeneration {
		t.Fatalf("expected idea agent, got %s", res.Agent())
	}
	if len(f.memory.recorded) != 1 || f.memory.recorded[0].AgentType != types.AgentIdeaGeneration {
		t.Fatalf("expected one idea conversation recorded, got %+v", f.memory.recorded)
	}
}

func TestRouteFailedCreativeNotRecorded(t *testing.T) {
	f := newFixture("idea_generation", nil)
	f.creative.fail = true
	f.router.Route(context.Background(), "u1", "ideas")
	if len(f.memory.recorded) != 0 {
		t.Fatal("failed results must not be stored")
	}
}

func TestRouteContextFaultTolerated(t *testing.T) {
	f := newFixture("caption_optimizer", nil)
	f.memory.err = errors.New("store down")
	res := f.router.Route(context.Background(), "u1", "caption please")
	if res.Agent() != types.AgentCaptionOptimizer {
		t.Fatalf("expected captions, got %s", res.Agent())
	}
}

func TestDispatchUnknownUsesRecommender(t *testing.T) {
	f := newFixture("", nil)
	res := f.router.Dispatch(context.Background(), types.AgentUnknown, "u1", "q")
	if res.Agent() != types.AgentMovieRecommendation {
		t.Fatalf("expected recommender, got %s", res.Agent())
	}
}
