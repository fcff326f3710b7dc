package agent

import (
	"context"

	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/metrics"
	"github.com/austiecodes/curator/internal/types"
)

// Creative runs the content-creation agents. It does not store anything;
// the caller decides what to remember.
type Creative struct {
	gen     *Generator
	schemas *Schemas
	repair  Repairer
}

// NewCreative builds the creative agents on a shared generator.
func NewCreative(gen *Generator, schemas *Schemas, repair Repairer) *Creative {
	return &Creative{gen: gen, schemas: schemas, repair: repair}
}

// Brainstorm returns video ideas for query.
func (c *Creative) Brainstorm(ctx context.Context, query string, recent []retrieval.MemoryHit) *IdeasResult {
	res, ok := c.run(ctx, types.AgentIdeaGeneration, query, recent).(*IdeasResult)
	if !ok {
		return emptyIdeas()
	}
	return res
}

// ScriptFor writes a short-form video script.
func (c *Creative) ScriptFor(ctx context.Context, query string, recent []retrieval.MemoryHit) *ScriptResult {
	res, ok := c.run(ctx, types.AgentShortsScript, query, recent).(*ScriptResult)
	if !ok {
		return emptyScript()
	}
	return res
}

// CaptionsFor returns caption options with hashtags.
func (c *Creative) CaptionsFor(ctx context.Context, query string, recent []retrieval.MemoryHit) *CaptionsResult {
	res, ok := c.run(ctx, types.AgentCaptionOptimizer, query, recent).(*CaptionsResult)
	if !ok {
		return emptyCaptions()
	}
	return res
}

func (c *Creative) run(ctx context.Context, agent types.AgentType, query string, recent []retrieval.MemoryHit) Result {
	log := logging.Ctx(ctx)

	system, prompt, err := creativePrompt(agent, query, recent)
	if err != nil {
		log.Error().Err(err).Msg("no prompt for agent")
		return withFailure(agent, generationFailure(agent))
	}

	raw, elapsed, err := c.gen.Generate(ctx, system, prompt)
	if err != nil {
		metrics.RecordGeneration(agent.String(), "transport_error", elapsed)
		log.Error().Err(err).Str("agent_type", agent.String()).Msg("creative generation failed")
		return withFailure(agent, generationFailure(agent))
	}

	obj, err := decode(ctx, c.schemas, agent, raw)
	if err != nil {
		metrics.RecordGeneration(agent.String(), "parse_error", elapsed)
		log.Warn().Err(err).Str("agent_type", agent.String()).Msg("could not parse creative output")
		return withFailure(agent, parseFailure(err))
	}
	metrics.RecordGeneration(agent.String(), "ok", elapsed)
	return c.repair.repairFor(agent, obj)
}

// withFailure returns the empty variant for agent carrying f.
func withFailure(agent types.AgentType, f Failure) Result {
	switch agent {
	case types.AgentIdeaGeneration:
		res := emptyIdeas()
		res.Failure = f
		return res
	case types.AgentShortsScript:
		res := emptyScript()
		res.Failure = f
		return res
	case types.AgentCaptionOptimizer:
		res := emptyCaptions()
		res.Failure = f
		return res
	case types.AgentMovieRecommendation, types.AgentUnknown:
		res := emptyRecommendation()
		res.Failure = f
		return res
	default:
		res := emptyRecommendation()
		res.Failure = f
		return res
	}
}
