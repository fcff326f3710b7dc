// Package agent runs the generation agents: the personalised recommender and
// the creative agents. Every agent turns untrusted model output into a typed
// result through a decode and repair step.
package agent

import (
	"github.com/austiecodes/curator/internal/catalog"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/types"
)

// Result is the tagged union returned by every agent. The concrete type is
// fixed by Agent().
type Result interface {
	Agent() types.AgentType
	Failed() bool
}

// Failure is set on a result that carries no usable output.
type Failure struct {
	Error      string `json:"error,omitempty"`
	RawError   string `json:"raw_error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (f Failure) Failed() bool { return f.Error != "" }

func parseFailure(err error) Failure {
	return Failure{
		Error:      consts.ParseFailureMessage,
		RawError:   err.Error(),
		Suggestion: consts.RetrySuggestion,
	}
}

// generationFailure leaves the transport error out of the payload; it is
// logged instead.
func generationFailure(agent types.AgentType) Failure {
	var msg string
	switch agent {
	case types.AgentIdeaGeneration:
		msg = "Failed to generate creative ideas"
	case types.AgentShortsScript:
		msg = "Failed to generate script"
	case types.AgentCaptionOptimizer:
		msg = "Failed to generate captions"
	case types.AgentMovieRecommendation, types.AgentUnknown:
		msg = consts.GenerationFailureMessage
	default:
		msg = consts.GenerationFailureMessage
	}
	return Failure{Error: msg, Suggestion: consts.RetrySuggestion}
}

type UserInsights struct {
	PreferenceConfidence float64  `json:"preference_confidence"`
	PreferredGenres      []string `json:"preferred_genres"`
	PersonalizationLevel string   `json:"personalization_level"`
}

// Recommendation is a catalog item chosen for the user.
type Recommendation struct {
	catalog.ContentItem
	MatchConfidence float64 `json:"match_confidence"`
}

// RecommendationResult is the movie recommender variant.
type RecommendationResult struct {
	AgentType               types.AgentType  `json:"agent_type"`
	UserInsights            UserInsights     `json:"user_insights"`
	Recommendations         []Recommendation `json:"recommendations"`
	PersonalizedExplanation string           `json:"personalized_explanation"`
	NextSuggestions         []string         `json:"next_suggestions"`
	Failure
}

func (r *RecommendationResult) Agent() types.AgentType { return types.AgentMovieRecommendation }

type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Hook        string `json:"hook"`
	Format      string `json:"format"`
	WhyItWorks  string `json:"why_it_works"`
}

// IdeasResult is the idea generation variant.
type IdeasResult struct {
	AgentType types.AgentType `json:"agent_type"`
	Ideas     []Idea          `json:"ideas"`
	Failure
}

func (r *IdeasResult) Agent() types.AgentType { return types.AgentIdeaGeneration }

type Scene struct {
	Visual          string  `json:"visual"`
	Voiceover       string  `json:"voiceover"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type Script struct {
	Title                    string  `json:"title"`
	Hook                     string  `json:"hook"`
	Scenes                   []Scene `json:"scenes"`
	CallToAction             string  `json:"call_to_action"`
	EstimatedDurationSeconds float64 `json:"estimated_duration_seconds"`
}

// ScriptResult is the shorts script variant.
type ScriptResult struct {
	AgentType types.AgentType `json:"agent_type"`
	Script    Script          `json:"script"`
	Failure
}

func (r *ScriptResult) Agent() types.AgentType { return types.AgentShortsScript }

type CaptionOption struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	Tone     string   `json:"tone"`
	Platform string   `json:"platform"`
}

// CaptionsResult is the caption optimizer variant.
type CaptionsResult struct {
	AgentType types.AgentType `json:"agent_type"`
	Options   []CaptionOption `json:"options"`
	Failure
}

func (r *CaptionsResult) Agent() types.AgentType { return types.AgentCaptionOptimizer }

func emptyRecommendation() *RecommendationResult {
	return &RecommendationResult{
		AgentType:       types.AgentMovieRecommendation,
		UserInsights:    UserInsights{PreferredGenres: []string{}, PersonalizationLevel: "low"},
		Recommendations: []Recommendation{},
		NextSuggestions: []string{},
	}
}

func emptyIdeas() *IdeasResult {
	return &IdeasResult{AgentType: types.AgentIdeaGeneration, Ideas: []Idea{}}
}

func emptyScript() *ScriptResult {
	return &ScriptResult{AgentType: types.AgentShortsScript, Script: Script{Scenes: []Scene{}}}
}

func emptyCaptions() *CaptionsResult {
	return &CaptionsResult{AgentType: types.AgentCaptionOptimizer, Options: []CaptionOption{}}
}
