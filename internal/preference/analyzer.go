// Package preference derives a taste profile from a user's stored reviews.
package preference

import (
	"context"
	"strings"

	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/memutils"
)

// TasteProfile is recomputed on every request and never stored.
type TasteProfile struct {
	Genres        []string `json:"genres"`
	AverageRating float64  `json:"average_rating"`
	TotalReviews  int      `json:"total_reviews"`
	HasHistory    bool     `json:"has_history"`
}

// Empty is the profile of a user with no reviews.
func Empty() TasteProfile {
	return TasteProfile{Genres: []string{}}
}

// SearchFloor is the minimum rating used when searching live metadata on
// the user's behalf.
func (p TasteProfile) SearchFloor() float64 {
	if p.AverageRating > consts.SearchFloorHistoryCutoff {
		return p.AverageRating - 1
	}
	return consts.DefaultSearchFloor
}

// Confidence is how much weight the profile deserves in generation.
func (p TasteProfile) Confidence() float64 {
	if p.HasHistory {
		return consts.ConfidenceWithHistory
	}
	return consts.ConfidenceWithoutHistory
}

// ReviewSource lists a user's reviews, newest first.
type ReviewSource interface {
	RecentReviews(ctx context.Context, userID string, limit int) ([]memtypes.StoredMemory, error)
}

// Analyzer builds profiles from review history.
type Analyzer struct {
	reviews  ReviewSource
	strategy GenreStrategy
	limit    int
}

// NewAnalyzer uses the keyword table when strategy is nil.
func NewAnalyzer(reviews ReviewSource, strategy GenreStrategy, limit int) *Analyzer {
	if strategy == nil {
		strategy = DefaultKeywords()
	}
	if limit <= 0 {
		limit = consts.DefaultReviewHistoryLimit
	}
	return &Analyzer{reviews: reviews, strategy: strategy, limit: limit}
}

// Analyze never fails: a storage fault reads as no history.
func (a *Analyzer) Analyze(ctx context.Context, userID string) TasteProfile {
	reviews, err := a.reviews.RecentReviews(ctx, userID, a.limit)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("failed to fetch review history")
		return Empty()
	}
	if len(reviews) == 0 {
		return Empty()
	}

	profile := TasteProfile{
		Genres:       []string{},
		TotalReviews: len(reviews),
		HasHistory:   true,
	}

	seen := make(map[string]bool)
	var sum float64
	var rated int
	for _, r := range reviews {
		for _, g := range a.strategy.Genres(strings.ToLower(r.ReviewText)) {
			if !seen[g] {
				seen[g] = true
				profile.Genres = append(profile.Genres, g)
			}
		}
		if r.Rating != nil {
			sum += *r.Rating
			rated++
		}
	}
	if rated > 0 {
		profile.AverageRating = memutils.RoundTo(sum/float64(rated), 1)
	}
	return profile
}
