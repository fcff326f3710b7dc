package agent

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/austiecodes/curator/internal/catalog"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/retrieval"
	"github.com/austiecodes/curator/internal/preference"
	"github.com/austiecodes/curator/internal/types"
)

const recommenderSystem = `You are Curator AI, a movie recommendation expert.
You only recommend titles from the candidate list you are given. Never invent a title.
Pick at most one candidate that best fits the request and the user's taste.
If no candidate is a good fit, return an empty "recommendations" list and explain why.
Every recommendation must include a numeric "match_confidence" between 0 and 1.
Reply with one JSON object and nothing else.`

const recommenderContract = `{
  "agent_type": "movie_recommendation",
  "user_insights": {
    "preference_confidence": 0.0,
    "preferred_genres": ["genre"],
    "personalization_level": "high|medium|low"
  },
  "recommendations": [
    {
      "title": "exact title from the candidates",
      "year": 2000,
      "rating": 0.0,
      "genres": ["genre"],
      "overview": "short overview",
      "tmdbId": 0,
      "source": "candidate source",
      "match_confidence": 0.0
    }
  ],
  "personalized_explanation": "why this fits the user",
  "next_suggestions": ["a follow-up request the user might make"]
}`

// candidateView is what the model sees for each candidate.
type candidateView struct {
	Title      string   `json:"title"`
	Year       *int     `json:"year"`
	Rating     float64  `json:"rating"`
	Genres     []string `json:"genres"`
	Overview   string   `json:"overview"`
	TMDBID     int      `json:"tmdbId"`
	Source     string   `json:"source"`
	Similarity *float64 `json:"similarity,omitempty"`
}

func recommenderPrompt(query string, profile preference.TasteProfile, reviews []memtypes.StoredMemory,
	recent []retrieval.MemoryHit, candidates []catalog.ContentItem) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "User request: %s\n\n", query)

	genres := "none detected"
	if len(profile.Genres) > 0 {
		genres = strings.Join(profile.Genres, ", ")
	}
	fmt.Fprintf(&sb, "Taste profile:\n- preferred genres: %s\n- average rating: %.1f over %d reviews\n- preference_confidence: %.1f\n\n",
		genres, profile.AverageRating, profile.TotalReviews, profile.Confidence())

	sb.WriteString("Recent reviews:\n")
	if len(reviews) == 0 {
		sb.WriteString("- none\n")
	}
	for _, r := range reviews {
		fmt.Fprintf(&sb, "- %s\n", r.Document)
	}

	sb.WriteString("\n")
	writeContext(&sb, recent)

	views := make([]candidateView, len(candidates))
	for i, c := range candidates {
		views[i] = candidateView{
			Title: c.Title, Year: c.Year, Rating: c.Rating, Genres: c.Genres,
			Overview: c.Overview, TMDBID: c.TMDBID, Source: c.Source, Similarity: c.Similarity,
		}
	}
	list, _ := json.MarshalIndent(views, "", "  ")
	fmt.Fprintf(&sb, "\nCandidates (%d):\n%s\n\n", len(candidates), list)

	fmt.Fprintf(&sb, "Respond in this JSON format:\n%s\n", recommenderContract)
	return sb.String()
}

func writeContext(sb *strings.Builder, recent []retrieval.MemoryHit) {
	sb.WriteString("Related earlier conversations:\n")
	if len(recent) == 0 {
		sb.WriteString("- none\n")
		return
	}
	for _, h := range recent {
		fmt.Fprintf(sb, "- %s\n", strings.ReplaceAll(h.Document, "\n", " | "))
	}
}

const (
	ideasSystem = `You are a creative strategist for short-form video creators.
Generate fresh, specific content ideas. Reply with one JSON object and nothing else.`

	ideasContract = `{
  "agent_type": "idea_generation",
  "ideas": [
    {
      "title": "idea title",
      "description": "what the video is about",
      "hook": "the opening line or visual",
      "format": "e.g. tutorial, skit, list, day-in-the-life",
      "why_it_works": "why the audience will engage"
    }
  ]
}`

	scriptSystem = `You are a scriptwriter for vertical short videos of under 60 seconds.
Write tight scenes with clear visuals and voiceover. Reply with one JSON object and nothing else.`

	scriptContract = `{
  "agent_type": "shorts_script",
  "script": {
    "title": "script title",
    "hook": "first 3 seconds",
    "scenes": [
      {"visual": "what is on screen", "voiceover": "what is said", "duration_seconds": 5}
    ],
    "call_to_action": "closing ask",
    "estimated_duration_seconds": 30
  }
}`

	captionsSystem = `You are a social media copywriter who optimizes captions for reach and engagement.
Offer distinct options with different tones. Reply with one JSON object and nothing else.`

	captionsContract = `{
  "agent_type": "caption_optimizer",
  "options": [
    {
      "caption": "caption text",
      "hashtags": ["#tag"],
      "tone": "e.g. playful, informative, bold",
      "platform": "e.g. tiktok, instagram, youtube_shorts"
    }
  ]
}`
)

// creativePrompt returns the system and user prompt for a creative agent.
func creativePrompt(agent types.AgentType, query string, recent []retrieval.MemoryHit) (string, string, error) {
	var system, contract, task string
	switch agent {
	case types.AgentIdeaGeneration:
		system, contract, task = ideasSystem, ideasContract, "Brainstorm 3 to 5 content ideas for"
	case types.AgentShortsScript:
		system, contract, task = scriptSystem, scriptContract, "Write a short-form video script for"
	case types.AgentCaptionOptimizer:
		system, contract, task = captionsSystem, captionsContract, "Write 3 caption options for"
	case types.AgentMovieRecommendation, types.AgentUnknown:
		return "", "", fmt.Errorf("%s is not a creative agent", agent)
	default:
		return "", "", fmt.Errorf("unknown agent %q", agent)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n\n", task, query)
	writeContext(&sb, recent)
	fmt.Fprintf(&sb, "\nRespond in this JSON format:\n%s\n", contract)
	return system, sb.String(), nil
}
