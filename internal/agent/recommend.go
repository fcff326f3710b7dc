package agent

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/austiecodes/curator/internal/catalog"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/metrics"
	"github.com/austiecodes/curator/internal/preference"
	"github.com/austiecodes/curator/internal/types"
)

// ProfileSource builds a user's taste profile.
type ProfileSource interface {
	Analyze(ctx context.Context, userID string) preference.TasteProfile
}

// ConversationRecorder stores finished interactions.
type ConversationRecorder interface {
	RecordConversation(in retrieval.ConversationInput)
}

// Memory is the part of the retrieval gateway the recommender uses.
type Memory interface {
	ConversationRecorder
	SimilarContentItems(ctx context.Context, query string, limit int) ([]catalog.ContentItem, error)
	RecentReviews(ctx context.Context, userID string, limit int) ([]memtypes.StoredMemory, error)
}

// MetadataSource searches catalog metadata without embeddings.
type MetadataSource interface {
	ByQuery(ctx context.Context, text string, f catalog.Filters) ([]catalog.ContentItem, error)
}

// OrchestratorConfig bounds the context gathered for one recommendation.
type OrchestratorConfig struct {
	RecentReviewLimit int
	CandidateLimit    int
	// LiveFallback searches the metadata source when the vector search
	// finds no candidates.
	LiveFallback bool
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		RecentReviewLimit: consts.DefaultRecentReviewLimit,
		CandidateLimit:    consts.DefaultCandidateLimit,
	}
}

// Orchestrator produces personalised recommendations.
type Orchestrator struct {
	gen      *Generator
	schemas  *Schemas
	repair   Repairer
	profiles ProfileSource
	memory   Memory
	metadata MetadataSource
	cfg      OrchestratorConfig
}

// NewOrchestrator wires the recommender. metadata may be nil.
func NewOrchestrator(gen *Generator, schemas *Schemas, repair Repairer, profiles ProfileSource,
	memory Memory, metadata MetadataSource, cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		gen:      gen,
		schemas:  schemas,
		repair:   repair,
		profiles: profiles,
		memory:   memory,
		metadata: metadata,
		cfg:      cfg,
	}
}

// recommendationInputs is everything gathered before the model call.
type recommendationInputs struct {
	profile    preference.TasteProfile
	reviews    []memtypes.StoredMemory
	candidates []catalog.ContentItem
}

// gather runs the three reads in parallel. Each one degrades to empty on
// failure.
func (o *Orchestrator) gather(ctx context.Context, userID, query string) recommendationInputs {
	var in recommendationInputs
	var wg sync.WaitGroup
	log := logging.Ctx(ctx)

	wg.Add(3)
	go func() {
		defer wg.Done()
		in.profile = o.profiles.Analyze(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		reviews, err := o.memory.RecentReviews(ctx, userID, o.cfg.RecentReviewLimit)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to load recent reviews")
			return
		}
		in.reviews = reviews
	}()
	go func() {
		defer wg.Done()
		items, err := o.memory.SimilarContentItems(ctx, query, o.cfg.CandidateLimit)
		if err != nil {
			log.Warn().Err(err).Msg("content search failed")
			return
		}
		in.candidates = items
	}()
	wg.Wait()

	if len(in.candidates) == 0 && o.cfg.LiveFallback && o.metadata != nil {
		items, _ := o.metadata.ByQuery(ctx, query, catalog.Filters{
			Genres:    preference.SearchGenres(query, in.profile),
			MinRating: in.profile.SearchFloor(),
			Limit:     o.cfg.CandidateLimit,
		})
		in.candidates = items
	}
	return in
}

// Recommend always returns a result; failures are reported in its error
// fields. recent is earlier conversation context, possibly empty.
func (o *Orchestrator) Recommend(ctx context.Context, userID, query string, recent []retrieval.MemoryHit) *RecommendationResult {
	const agent = types.AgentMovieRecommendation
	log := logging.Ctx(ctx)

	in := o.gather(ctx, userID, query)
	log.Debug().Str("user_id", userID).Int("candidates", len(in.candidates)).
		Int("reviews", len(in.reviews)).Bool("has_history", in.profile.HasHistory).
		Msg("recommendation inputs ready")

	prompt := recommenderPrompt(query, in.profile, in.reviews, recent, in.candidates)
	raw, elapsed, err := o.gen.Generate(ctx, recommenderSystem, prompt)
	if err != nil {
		metrics.RecordGeneration(agent.String(), "transport_error", elapsed)
		log.Error().Err(err).Str("user_id", userID).Msg("recommendation generation failed")
		res := emptyRecommendation()
		res.UserInsights = o.repair.insights(nil, in.profile)
		res.Failure = generationFailure(agent)
		return res
	}

	obj, err := decode(ctx, o.schemas, agent, raw)
	if err != nil {
		metrics.RecordGeneration(agent.String(), "parse_error", elapsed)
		log.Warn().Err(err).Str("user_id", userID).Msg("could not parse recommendation output")
		res := emptyRecommendation()
		res.UserInsights = o.repair.insights(nil, in.profile)
		res.Failure = parseFailure(err)
		return res
	}
	metrics.RecordGeneration(agent.String(), "ok", elapsed)

	res := o.repair.Recommendation(obj, in.candidates, in.profile)
	Record(ctx, o.memory, userID, query, res)
	return res
}

// Record stores a successful interaction as a conversation memory. Failed
// results and anonymous calls are not stored.
func Record(ctx context.Context, memory ConversationRecorder, userID, query string, res Result) {
	if res.Failed() || userID == "" {
		return
	}
	body, err := json.Marshal(res)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to encode result for memory")
		return
	}
	memory.RecordConversation(retrieval.ConversationInput{
		UserID:    userID,
		Query:     query,
		Response:  string(body),
		AgentType: res.Agent(),
	})
}
