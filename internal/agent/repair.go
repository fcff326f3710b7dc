package agent

import (
	"strings"

	"github.com/austiecodes/curator/internal/catalog"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/memory/memutils"
	"github.com/austiecodes/curator/internal/metrics"
	"github.com/austiecodes/curator/internal/preference"
	"github.com/austiecodes/curator/internal/types"
)

// maxRecommendations is how many items the recommender may return.
const maxRecommendations = 1

var personalizationLevels = map[string]bool{"high": true, "medium": true, "low": true}

func repaired(action string) {
	metrics.RepairActions.WithLabelValues(action).Inc()
}

// Repairer turns a decoded recommender payload into a result that only
// mentions supplied candidates and has every required field set.
type Repairer struct {
	PosterBase string
}

// Recommendation coerces a decoded recommendation into a RecommendationResult,
// filling gaps from the candidates and the taste profile.
func (r Repairer) Recommendation(raw map[string]any, candidates []catalog.ContentItem, profile preference.TasteProfile) *RecommendationResult {
	res := emptyRecommendation()
	res.UserInsights = r.insights(object(raw, "user_insights"), profile)

	byTitle := make(map[string]catalog.ContentItem, len(candidates))
	for _, c := range candidates {
		key := titleKey(c.Title)
		if _, dup := byTitle[key]; !dup {
			byTitle[key] = c
		}
	}

	for _, item := range objList(raw, "recommendations") {
		title, _ := str(item, "title")
		cand, ok := byTitle[titleKey(title)]
		if !ok {
			repaired("drop_unknown_title")
			continue
		}
		if len(res.Recommendations) == maxRecommendations {
			repaired("truncate")
			break
		}
		res.Recommendations = append(res.Recommendations, r.item(item, cand))
	}

	if s, ok := str(raw, "personalized_explanation"); ok {
		res.PersonalizedExplanation = s
	}
	if res.PersonalizedExplanation == "" && len(res.Recommendations) == 0 {
		repaired("default_explanation")
		res.PersonalizedExplanation = consts.DefaultEmptyExplanation
	}
	if next, ok := strList(raw, "next_suggestions"); ok {
		res.NextSuggestions = next
	}
	return res
}

func (r Repairer) insights(raw map[string]any, profile preference.TasteProfile) UserInsights {
	in := UserInsights{
		PreferenceConfidence: profile.Confidence(),
		PreferredGenres:      append([]string{}, profile.Genres...),
	}
	if raw != nil {
		if c, ok := num(raw, "preference_confidence"); ok {
			in.PreferenceConfidence = memutils.Clamp01(c)
		}
		if g, ok := strList(raw, "preferred_genres"); ok {
			in.PreferredGenres = g
		}
		if lvl, ok := str(raw, "personalization_level"); ok && personalizationLevels[strings.ToLower(lvl)] {
			in.PersonalizationLevel = strings.ToLower(lvl)
		}
	}
	if in.PersonalizationLevel == "" {
		in.PersonalizationLevel = levelFor(in.PreferenceConfidence)
	}
	return in
}

func levelFor(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return "high"
	case confidence >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

// item merges the model's fields over the matching candidate. Fields the
// model left out come from the candidate; an id that is present but
// malformed becomes 0.
func (r Repairer) item(raw map[string]any, cand catalog.ContentItem) Recommendation {
	out := Recommendation{ContentItem: cand}
	out.Similarity = nil

	if t, ok := str(raw, "title"); ok && t != "" {
		out.Title = t
	}
	if y, ok := num(raw, "year"); ok && y > 0 && y == float64(int(y)) {
		year := int(y)
		out.Year = &year
	}
	if rating, ok := num(raw, "rating"); ok && rating >= 0 && rating <= 10 {
		out.Rating = rating
	}
	if g, ok := strList(raw, "genres"); ok && len(g) > 0 {
		out.Genres = g
	}
	if ov, ok := str(raw, "overview"); ok && ov != "" {
		out.Overview = ov
	}
	if src, ok := str(raw, "source"); ok && src != "" {
		out.Source = src
	}
	if out.Genres == nil {
		out.Genres = []string{}
	}

	idKey := ""
	for _, k := range []string{"tmdbId", "external_id", "id"} {
		if _, present := raw[k]; present {
			idKey = k
			break
		}
	}
	if idKey != "" {
		id := catalog.CoerceID(raw[idKey])
		if id == 0 && raw[idKey] != nil {
			repaired("coerce_id")
		}
		out.TMDBID = id
	}

	if p, ok := str(raw, "poster_path"); ok && p != "" {
		out.PosterPath = &p
	}
	out.PosterURL = nil
	if out.PosterPath != nil {
		out.PosterURL = catalog.PosterURL(r.PosterBase, *out.PosterPath)
	}

	if mc, ok := num(raw, "match_confidence"); ok {
		out.MatchConfidence = memutils.Clamp01(mc)
	} else {
		repaired("derive_match_confidence")
		out.MatchConfidence = consts.DefaultMatchConfidence
		if cand.Similarity != nil {
			out.MatchConfidence = memutils.Clamp01(*cand.Similarity * consts.MatchConfidenceMultiplier)
		}
	}
	return out
}

func titleKey(t string) string {
	return strings.ToLower(strings.Join(strings.Fields(t), " "))
}

// Ideas keeps well-formed ideas; missing fields become empty strings.
func (r Repairer) Ideas(raw map[string]any) *IdeasResult {
	res := emptyIdeas()
	for _, it := range objList(raw, "ideas") {
		idea := Idea{}
		idea.Title, _ = str(it, "title")
		idea.Description, _ = str(it, "description")
		idea.Hook, _ = str(it, "hook")
		idea.Format, _ = str(it, "format")
		idea.WhyItWorks, _ = str(it, "why_it_works")
		if idea.Title == "" && idea.Description == "" {
			repaired("drop_empty_idea")
			continue
		}
		res.Ideas = append(res.Ideas, idea)
	}
	return res
}

// Script fills an absent estimate with the sum of scene durations.
func (r Repairer) Script(raw map[string]any) *ScriptResult {
	res := emptyScript()
	sc := object(raw, "script")
	if sc == nil {
		// some models return the script fields at the top level
		sc = raw
	}

	res.Script.Title, _ = str(sc, "title")
	res.Script.Hook, _ = str(sc, "hook")
	res.Script.CallToAction, _ = str(sc, "call_to_action")

	var total float64
	for _, it := range objList(sc, "scenes") {
		scene := Scene{}
		scene.Visual, _ = str(it, "visual")
		scene.Voiceover, _ = str(it, "voiceover")
		if d, ok := num(it, "duration_seconds"); ok && d > 0 {
			scene.DurationSeconds = d
		}
		total += scene.DurationSeconds
		res.Script.Scenes = append(res.Script.Scenes, scene)
	}

	if d, ok := num(sc, "estimated_duration_seconds"); ok && d > 0 {
		res.Script.EstimatedDurationSeconds = d
	} else {
		repaired("derive_duration")
		res.Script.EstimatedDurationSeconds = total
	}
	return res
}

// Captions normalizes hashtags to start with '#'.
func (r Repairer) Captions(raw map[string]any) *CaptionsResult {
	res := emptyCaptions()
	for _, it := range objList(raw, "options") {
		opt := CaptionOption{Hashtags: []string{}}
		opt.Caption, _ = str(it, "caption")
		if opt.Caption == "" {
			repaired("drop_empty_caption")
			continue
		}
		opt.Tone, _ = str(it, "tone")
		opt.Platform, _ = str(it, "platform")
		if tags, ok := strList(it, "hashtags"); ok {
			for _, tag := range tags {
				for _, t := range strings.Fields(tag) {
					if !strings.HasPrefix(t, "#") {
						t = "#" + t
					}
					opt.Hashtags = append(opt.Hashtags, t)
				}
			}
		}
		res.Options = append(res.Options, opt)
	}
	return res
}

// repairFor dispatches on the agent; callers pass only dispatchable agents.
func (r Repairer) repairFor(agent types.AgentType, raw map[string]any) Result {
	switch agent {
	case types.AgentIdeaGeneration:
		return r.Ideas(raw)
	case types.AgentShortsScript:
		return r.Script(raw)
	case types.AgentCaptionOptimizer:
		return r.Captions(raw)
	case types.AgentMovieRecommendation, types.AgentUnknown:
		return r.Recommendation(raw, nil, preference.Empty())
	default:
		return r.Recommendation(raw, nil, preference.Empty())
	}
}
