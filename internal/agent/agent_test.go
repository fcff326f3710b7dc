package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/austiecodes/curator/internal/catalog"
	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/preference"
	"github.com/austiecodes/curator/internal/types"
)

type fakeCompletion struct {
	mu   sync.Mutex
	out  string
	err  error
	reqs []client.CompletionRequest
}

func (f *fakeCompletion) Complete(_ context.Context, _ types.Model, req client.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.out, f.err
}

func (f *fakeCompletion) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		return ""
	}
	return f.reqs[len(f.reqs)-1].Prompt
}

type fakeProfiles struct{ profile preference.TasteProfile }

func (f fakeProfiles) Analyze(context.Context, string) preference.TasteProfile { return f.profile }

type fakeMemory struct {
	mu         sync.Mutex
	candidates []catalog.ContentItem
	reviews    []memtypes.StoredMemory
	contentErr error
	recorded   []retrieval.ConversationInput
}

func (f *fakeMemory) SimilarContentItems(context.Context, string, int) ([]catalog.ContentItem, error) {
	return f.candidates, f.contentErr
}

func (f *fakeMemory) RecentReviews(context.Context, string, int) ([]memtypes.StoredMemory, error) {
	return f.reviews, nil
}

func (f *fakeMemory) RecordConversation(in retrieval.ConversationInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, in)
}

type fakeMetadata struct {
	items   []catalog.ContentItem
	filters catalog.Filters
	called  bool
}

func (f *fakeMetadata) ByQuery(_ context.Context, _ string, fl catalog.Filters) ([]catalog.ContentItem, error) {
	f.called = true
	f.filters = fl
	return f.items, nil
}

func sim(v float64) *float64 { return &v }

func shining() catalog.ContentItem {
	year := 1980
	return catalog.ContentItem{
		Title:      "The Shining",
		Year:       &year,
		Rating:     8.2,
		Genres:     []string{"Horror"},
		Overview:   "A family heads to an isolated hotel.",
		TMDBID:     694,
		Source:     "catalog",
		Similarity: sim(0.75),
	}
}

func newTestOrchestrator(c *fakeCompletion, mem *fakeMemory, md MetadataSource, cfg OrchestratorConfig, profile preference.TasteProfile) *Orchestrator {
	gen := NewGenerator(c, types.Model{Provider: "fake", ModelID: "fake-chat"}, 0.7, 0)
	return NewOrchestrator(gen, MustCompileSchemas(), Repairer{PosterBase: "https://img"}, fakeProfiles{profile}, mem, md, cfg)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Sure! Here you go:\n{\"a\":{\"b\":2}}\nEnjoy.", `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		got, err := extractJSON(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("extractJSON(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := extractJSON("no json here"); err == nil {
		t.Error("expected error for text without an object")
	}
}

func TestRecommendCoercesBadID(t *testing.T) {
	c := &fakeCompletion{out: `{
		"recommendations": [{
			"title": "The Shining",
			"year": 1980,
			"rating": 8.2,
			"genres": ["Horror"],
			"overview": "Model overview",
			"tmdbId": "not-a-number",
			"source": "catalog"
		}],
		"personalized_explanation": "You like horror."
	}`}
	mem := &fakeMemory{candidates: []catalog.ContentItem{shining()}}
	o := newTestOrchestrator(c, mem, nil, DefaultOrchestratorConfig(), preference.TasteProfile{Genres: []string{"horror"}, HasHistory: true, TotalReviews: 2})

	res := o.Recommend(context.Background(), "u1", "something scary", nil)
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res.Failure)
	}
	if len(res.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(res.Recommendations))
	}
	rec := res.Recommendations[0]
	if rec.TMDBID != 0 {
		t.Fatalf("expected coerced id 0, got %d", rec.TMDBID)
	}
	if rec.Title != "The Shining" || rec.Overview != "Model overview" || rec.Rating != 8.2 {
		t.Fatalf("other fields not kept: %+v", rec)
	}
	// absent match_confidence comes from similarity * 1.2
	if rec.MatchConfidence < 0.899 || rec.MatchConfidence > 0.901 {
		t.Fatalf("expected derived confidence 0.9, got %v", rec.MatchConfidence)
	}
	if res.UserInsights.PreferenceConfidence != 0.8 || res.UserInsights.PersonalizationLevel != "high" {
		t.Fatalf("unexpected insights %+v", res.UserInsights)
	}
	if res.AgentType != types.AgentMovieRecommendation {
		t.Fatalf("unexpected agent type %q", res.AgentType)
	}
}

func TestRecommendClampsAndBackfills(t *testing.T) {
	c := &fakeCompletion{out: `{"recommendations":[{"title":"the  shining","match_confidence":1.7,"poster_path":"/s.jpg"}]}`}
	mem := &fakeMemory{candidates: []catalog.ContentItem{shining()}}
	o := newTestOrchestrator(c, mem, nil, DefaultOrchestratorConfig(), preference.Empty())

	res := o.Recommend(context.Background(), "u1", "scary", nil)
	if len(res.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(res.Recommendations))
	}
	rec := res.Recommendations[0]
	if rec.MatchConfidence != 1 {
		t.Fatalf("expected clamped confidence 1, got %v", rec.MatchConfidence)
	}
	if rec.TMDBID != 694 || rec.Year == nil || *rec.Year != 1980 || len(rec.Genres) != 1 {
		t.Fatalf("expected candidate backfill, got %+v", rec)
	}
	if rec.PosterURL == nil || *rec.PosterURL != "https://img/s.jpg" {
		t.Fatalf("poster url not rebuilt: %v", rec.PosterURL)
	}
	if rec.Similarity != nil {
		t.Fatalf("similarity should not leak into recommendations")
	}
	if res.UserInsights.PreferenceConfidence != 0.2 || res.UserInsights.PersonalizationLevel != "low" {
		t.Fatalf("unexpected insights %+v", res.UserInsights)
	}
}

func TestRecommendNoCandidates(t *testing.T) {
	c := &fakeCompletion{out: `{"recommendations":[{"title":"Made Up Movie","tmdbId":1,"match_confidence":0.9}]}`}
	mem := &fakeMemory{}
	o := newTestOrchestrator(c, mem, nil, DefaultOrchestratorConfig(), preference.Empty())

	res := o.Recommend(context.Background(), "u1", "anything", nil)
	if res.Failed() {
		t.Fatalf("unexpected failure %+v", res.Failure)
	}
	if res.Recommendations == nil || len(res.Recommendations) != 0 {
		t.Fatalf("expected empty recommendations, got %+v", res.Recommendations)
	}
	if strings.TrimSpace(res.PersonalizedExplanation) == "" {
		t.Fatal("expected a non-empty explanation")
	}
	if !strings.Contains(c.lastPrompt(), "Candidates (0)") {
		t.Fatalf("prompt should state there are no candidates:\n%s", c.lastPrompt())
	}
}

func TestRecommendKeepsAtMostOne(t *testing.T) {
	other := shining()
	other.Title = "Alien"
	other.TMDBID = 348
	c := &fakeCompletion{out: `{"recommendations":[{"title":"Alien","match_confidence":0.8},{"title":"The Shining","match_confidence":0.7}]}`}
	mem := &fakeMemory{candidates: []catalog.ContentItem{shining(), other}}
	o := newTestOrchestrator(c, mem, nil, DefaultOrchestratorConfig(), preference.Empty())

	res := o.Recommend(context.Background(), "u1", "scary", nil)
	if len(res.Recommendations) != 1 || res.Recommendations[0].TMDBID != 348 {
		t.Fatalf("expected only Alien, got %+v", res.Recommendations)
	}
}

func TestRecommendParseFailure(t *testing.T) {
	c := &fakeCompletion{out: "I think you would love The Shining!"}
	mem := &fakeMemory{candidates: []catalog.ContentItem{shining()}}
	o := newTestOrchestrator(c, mem, nil, DefaultOrchestratorConfig(), preference.Empty())

	res := o.Recommend(context.Background(), "u1", "scary", nil)
	if res.Error != "Failed to parse AI response" {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if res.RawError == "" || res.Suggestion != "Please try again with a different query" {
		t.Fatalf("missing raw error or suggestion: %+v", res.Failure)
	}
	if len(res.Recommendations) != 0 || res.NextSuggestions == nil {
		t.Fatalf("expected empty collections, got %+v", res)
	}
	if len(mem.recorded) != 0 {
		t.Fatal("failed results must not be stored")
	}
}

func TestRecommendTransportFailure(t *testing.T) {
	c := &fakeCompletion{err: errors.New("connection reset")}
	o := newTestOrchestrator(c, &fakeMemory{}, nil, DefaultOrchestratorConfig(), preference.Empty())

	res := o.Recommend(context.Background(), "u1", "scary", nil)
	if res.Error != "Failed to generate recommendation" {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if res.AgentType != types.AgentMovieRecommendation {
		t.Fatalf("unexpected agent type %q", res.AgentType)
	}
}

func TestRecommendContentFaultStillAnswers(t *testing.T) {
	c := &fakeCompletion{out: `{"recommendations":[]}`}
	mem := &fakeMemory{contentErr: errors.New("index offline")}
	o := newTestOrchestrator(c, mem, nil, DefaultOrchestratorConfig(), preference.Empty())

	res := o.Recommend(context.Background(), "u1", "scary", nil)
	if res.Failed() || res.PersonalizedExplanation == "" {
		t.Fatalf("expected a degraded but valid result, got %+v", res)
	}
}

func TestRecommendLiveFallback(t *testing.T) {
	c := &fakeCompletion{out: `{"recommendations":[{"title":"The Shining"}]}`}
	md := &fakeMetadata{items: []catalog.ContentItem{shining()}}
	cfg := DefaultOrchestratorConfig()
	cfg.LiveFallback = true
	profile := preference.TasteProfile{Genres: []string{"horror"}, AverageRating: 8, HasHistory: true, TotalReviews: 4}
	o := newTestOrchestrator(c, &fakeMemory{}, md, cfg, profile)

	res := o.Recommend(context.Background(), "u1", "a comedy night", nil)
	if !md.called {
		t.Fatal("expected metadata fallback")
	}
	if md.filters.MinRating != 7 {
		t.Fatalf("expected search floor 7, got %v", md.filters.MinRating)
	}
	if len(md.filters.Genres) != 2 {
		t.Fatalf("expected profile and query genres, got %v", md.filters.Genres)
	}
	if len(res.Recommendations) != 1 {
		t.Fatalf("expected the fallback candidate to be usable, got %+v", res.Recommendations)
	}
}

func TestRecommendRecordsConversation(t *testing.T) {
	c := &fakeCompletion{out: `{"recommendations":[{"title":"The Shining","match_confidence":0.8}],"personalized_explanation":"x"}`}
	mem := &fakeMemory{candidates: []catalog.ContentItem{shining()}}
	o := newTestOrchestrator(c, mem, nil, DefaultOrchestratorConfig(), preference.Empty())

	o.Recommend(context.Background(), "u1", "scary", nil)
	if len(mem.recorded) != 1 {
		t.Fatalf("expected one recorded conversation, got %d", len(mem.recorded))
	}
	got := mem.recorded[0]
	if got.AgentType != types.AgentMovieRecommendation || got.Query != "scary" {
		t.Fatalf("unexpected record %+v", got)
	}
	var decoded RecommendationResult
	if err := json.Unmarshal([]byte(got.Response), &decoded); err != nil {
		t.Fatalf("stored response is not JSON: %v", err)
	}
	if len(decoded.Recommendations) != 1 || decoded.Recommendations[0].TMDBID != 694 {
		t.Fatalf("unexpected stored response %s", got.Response)
	}
}

func TestRecommendPromptIncludesContext(t *testing.T) {
	c := &fakeCompletion{out: `{"recommendations":[]}`}
	mem := &fakeMemory{reviews: []memtypes.StoredMemory{{Document: "Movie: Alien. Review: scary. Rating: 9"}}}
	o := newTestOrchestrator(c, mem, nil, DefaultOrchestratorConfig(), preference.Empty())

	recent := []retrieval.MemoryHit{{Document: "User: horror?\nAI: try Alien"}}
	o.Recommend(context.Background(), "u1", "scary", recent)
	prompt := c.lastPrompt()
	for _, want := range []string{"Movie: Alien. Review: scary. Rating: 9", "User: horror? | AI: try Alien", "preference_confidence: 0.2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !c.reqs[0].JSON {
		t.Error("expected JSON mode")
	}
}
