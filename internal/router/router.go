// Package router classifies a request and hands it to exactly one agent.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/austiecodes/curator/internal/agent"
	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/metrics"
	"github.com/austiecodes/curator/internal/types"
)

// Memory supplies conversation context and stores creative results.
type Memory interface {
	agent.ConversationRecorder
	SimilarUserMemories(ctx context.Context, userID, query string, memoryType memtypes.MemoryType, limit int) ([]retrieval.MemoryHit, error)
}

type Recommender interface {
	Recommend(ctx context.Context, userID, query string, recent []retrieval.MemoryHit) *agent.RecommendationResult
}

type CreativeAgents interface {
	Brainstorm(ctx context.Context, query string, recent []retrieval.MemoryHit) *agent.IdeasResult
	ScriptFor(ctx context.Context, query string, recent []retrieval.MemoryHit) *agent.ScriptResult
	CaptionsFor(ctx context.Context, query string, recent []retrieval.MemoryHit) *agent.CaptionsResult
}

// Config bounds the context the router gathers per request.
type Config struct {
	ContextLimit int
	Timeout      time.Duration
}

// Router classifies queries and dispatches them to an agent.
type Router struct {
	classifier  client.CompletionClient
	model       types.Model
	memory      Memory
	recommender Recommender
	creative    CreativeAgents
	cfg         Config
}

// New builds a router. classifier may be the same client the agents use.
func New(classifier client.CompletionClient, model types.Model, memory Memory,
	recommender Recommender, creative CreativeAgents, cfg Config) *Router {
	if cfg.ContextLimit <= 0 {
		cfg.ContextLimit = consts.DefaultContextMemoryLimit
	}
	return &Router{
		classifier:  classifier,
		model:       model,
		memory:      memory,
		recommender: recommender,
		creative:    creative,
		cfg:         cfg,
	}
}

const classifierSystem = `You route requests for a movie and content-creation assistant.
Answer with exactly one label and nothing else.`

func classifierPrompt(query string) string {
	return fmt.Sprintf(`Classify the request into one of these labels:

- movie_recommendation: the user wants a movie or show to watch, or asks about films
- idea_generation: the user wants ideas or topics for videos or posts
- shorts_script: the user wants a script for a short vertical video
- caption_optimizer: the user wants a caption, hashtags or copy for a post
- unknown: none of the above

Request: %s

Label:`, query)
}

// NormalizeLabel cleans a classifier reply down to a bare label.
func NormalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`")
	s = strings.TrimRight(s, ".,;:!? \t\n")
	return strings.Trim(s, "\"'` ")
}

// Classify picks the agent for query. defaulted is true when the reply was
// not a dispatchable label, or the call failed, and the recommender was
// chosen instead.
func (r *Router) Classify(ctx context.Context, query string) (label types.AgentType, defaulted bool) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	log := logging.Ctx(ctx)

	start := time.Now()
	reply, err := r.classifier.Complete(ctx, r.model, client.CompletionRequest{
		System:      classifierSystem,
		Prompt:      classifierPrompt(query),
		Temperature: consts.ClassifierTemperature,
	})
	if err != nil {
		metrics.RecordGeneration("classifier", "transport_error", time.Since(start))
		log.Warn().Err(err).Msg("intent classification failed, defaulting")
		return types.AgentMovieRecommendation, true
	}
	metrics.RecordGeneration("classifier", "ok", time.Since(start))

	parsed, _ := types.ParseAgentType(NormalizeLabel(reply))
	switch parsed {
	case types.AgentMovieRecommendation, types.AgentIdeaGeneration, types.AgentShortsScript, types.AgentCaptionOptimizer:
		return parsed, false
	case types.AgentUnknown:
		log.Debug().Str("reply", reply).Msg("classifier gave no usable label, defaulting")
		return types.AgentMovieRecommendation, true
	default:
		return types.AgentMovieRecommendation, true
	}
}

// Route classifies query and runs one agent.
func (r *Router) Route(ctx context.Context, userID, query string) agent.Result {
	label, defaulted := r.Classify(ctx, query)
	metrics.RecordIntent(label.String(), defaulted)
	logging.Ctx(ctx).Info().Str("user_id", userID).Str("intent", label.String()).
		Bool("defaulted", defaulted).Msg("request routed")
	return r.Dispatch(ctx, label, userID, query)
}

// Dispatch runs the named agent with the user's conversation context.
// Labels without an agent go to the recommender.
func (r *Router) Dispatch(ctx context.Context, label types.AgentType, userID, query string) agent.Result {
	recent := r.context(ctx, userID, query)

	var res agent.Result
	switch label {
	case types.AgentIdeaGeneration:
		res = r.creative.Brainstorm(ctx, query, recent)
	case types.AgentShortsScript:
		res = r.creative.ScriptFor(ctx, query, recent)
	case types.AgentCaptionOptimizer:
		res = r.creative.CaptionsFor(ctx, query, recent)
	case types.AgentMovieRecommendation, types.AgentUnknown:
		// the recommender stores its own conversation
		return r.recommender.Recommend(ctx, userID, query, recent)
	default:
		return r.recommender.Recommend(ctx, userID, query, recent)
	}

	agent.Record(ctx, r.memory, userID, query, res)
	return res
}

func (r *Router) context(ctx context.Context, userID, query string) []retrieval.MemoryHit {
	if userID == "" {
		return nil
	}
	hits, err := r.memory.SimilarUserMemories(ctx, userID, query, memtypes.TypeConversation, r.cfg.ContextLimit)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("failed to load conversation context")
		return nil
	}
	return hits
}
