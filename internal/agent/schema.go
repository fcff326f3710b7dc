package agent

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/austiecodes/curator/internal/types"
)

const recommendationSchema = `{
  "type": "object",
  "required": ["recommendations"],
  "properties": {
    "agent_type": {"type": "string"},
    "user_insights": {
      "type": "object",
      "properties": {
        "preference_confidence": {"type": "number", "minimum": 0, "maximum": 1},
        "preferred_genres": {"type": "array", "items": {"type": "string"}},
        "personalization_level": {"enum": ["high", "medium", "low"]}
      }
    },
    "recommendations": {
      "type": "array",
      "maxItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "year", "rating", "genres", "overview", "tmdbId", "source", "match_confidence"],
        "properties": {
          "title": {"type": "string"},
          "year": {"type": ["integer", "null"]},
          "rating": {"type": "number"},
          "genres": {"type": "array", "items": {"type": "string"}},
          "overview": {"type": "string"},
          "tmdbId": {"type": "integer", "minimum": 0},
          "source": {"type": "string"},
          "match_confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "personalized_explanation": {"type": "string"},
    "next_suggestions": {"type": "array", "items": {"type": "string"}}
  }
}`

const ideasSchema = `{
  "type": "object",
  "required": ["ideas"],
  "properties": {
    "ideas": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "description", "hook", "format", "why_it_works"],
        "properties": {
          "title": {"type": "string"},
          "description": {"type": "string"},
          "hook": {"type": "string"},
          "format": {"type": "string"},
          "why_it_works": {"type": "string"}
        }
      }
    }
  }
}`

const scriptSchema = `{
  "type": "object",
  "required": ["script"],
  "properties": {
    "script": {
      "type": "object",
      "required": ["title", "hook", "scenes", "call_to_action", "estimated_duration_seconds"],
      "properties": {
        "title": {"type": "string"},
        "hook": {"type": "string"},
        "scenes": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["visual", "voiceover", "duration_seconds"],
            "properties": {
              "visual": {"type": "string"},
              "voiceover": {"type": "string"},
              "duration_seconds": {"type": "number", "minimum": 0}
            }
          }
        },
        "call_to_action": {"type": "string"},
        "estimated_duration_seconds": {"type": "number", "minimum": 0}
      }
    }
  }
}`

const captionsSchema = `{
  "type": "object",
  "required": ["options"],
  "properties": {
    "options": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["caption", "hashtags", "tone", "platform"],
        "properties": {
          "caption": {"type": "string"},
          "hashtags": {"type": "array", "items": {"type": "string"}},
          "tone": {"type": "string"},
          "platform": {"type": "string"}
        }
      }
    }
  }
}`

// Schemas holds the compiled output contract of every generation agent.
type Schemas struct {
	byAgent map[types.AgentType]*jsonschema.Schema
}

// CompileSchemas compiles the built-in contracts. It only fails if one of
// them is malformed.
func CompileSchemas() (*Schemas, error) {
	sources := map[types.AgentType]string{
		types.AgentMovieRecommendation: recommendationSchema,
		types.AgentIdeaGeneration:      ideasSchema,
		types.AgentShortsScript:        scriptSchema,
		types.AgentCaptionOptimizer:    captionsSchema,
	}
	s := &Schemas{byAgent: make(map[types.AgentType]*jsonschema.Schema, len(sources))}
	for agent, src := range sources {
		sch, err := jsonschema.CompileString(string(agent)+".json", src)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", agent, err)
		}
		s.byAgent[agent] = sch
	}
	return s, nil
}

// MustCompileSchemas is CompileSchemas for package-level setup and tests.
func MustCompileSchemas() *Schemas {
	s, err := CompileSchemas()
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a decoded payload against the agent's contract.
func (s *Schemas) Validate(agent types.AgentType, doc any) error {
	sch, ok := s.byAgent[agent]
	if !ok {
		return fmt.Errorf("no schema for agent %q", agent)
	}
	return sch.Validate(doc)
}
