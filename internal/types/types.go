package types

// Model identifies a model served by a provider.
type Model struct {
	Provider string `json:"provider" koanf:"provider"`
	ModelID  string `json:"model_id" koanf:"model_id"`
}

// AgentType is the closed set of labels the intent classifier may produce.
type AgentType string

const (
	AgentMovieRecommendation AgentType = "movie_recommendation"
	AgentIdeaGeneration      AgentType = "idea_generation"
	AgentShortsScript        AgentType = "shorts_script"
	AgentCaptionOptimizer    AgentType = "caption_optimizer"
	AgentUnknown             AgentType = "unknown"
)

// AgentTypes lists every label in classifier prompt order.
var AgentTypes = []AgentType{
	AgentMovieRecommendation,
	AgentIdeaGeneration,
	AgentShortsScript,
	AgentCaptionOptimizer,
	AgentUnknown,
}

// ParseAgentType maps a label onto the closed set. Anything it does not
// recognise comes back as AgentUnknown with ok=false.
func ParseAgentType(s string) (AgentType, bool) {
	for _, t := range AgentTypes {
		if string(t) == s {
			return t, true
		}
	}
	return AgentUnknown, false
}

// Dispatchable reports whether a generation agent exists for the label.
func (t AgentType) Dispatchable() bool {
	switch t {
	case AgentMovieRecommendation, AgentIdeaGeneration, AgentShortsScript, AgentCaptionOptimizer:
		return true
	default:
		return false
	}
}

func (t AgentType) String() string { return string(t) }
