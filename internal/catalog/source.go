package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/store"
)

// RowStore is the part of a catalog store the metadata source reads.
type RowStore interface {
	ContentByID(ctx context.Context, id string) (*memtypes.ContentRow, error)
	FindContent(ctx context.Context, q store.ContentQuery) ([]memtypes.ContentRow, error)
}

// LiveSource is a remote metadata API.
type LiveSource interface {
	Movie(ctx context.Context, id int) (ContentItem, error)
	Search(ctx context.Context, text string, f Filters) ([]ContentItem, error)
}

// Source answers metadata lookups from the catalog store and falls back to
// the live API when the store has nothing. Faults are logged and read as
// "no result".
type Source struct {
	rows RowStore
	live LiveSource
	norm Normalizer
}

// NewSource builds a metadata source. live may be nil.
func NewSource(rows RowStore, live LiveSource, norm Normalizer) *Source {
	return &Source{rows: rows, live: live, norm: norm}
}

// ByID returns the item for an external id. The bool is false when no
// source knows the id.
func (s *Source) ByID(ctx context.Context, id string) (ContentItem, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ContentItem{}, false
	}

	if s.rows != nil {
		row, err := s.rows.ContentByID(ctx, id)
		switch {
		case err == nil:
			return s.norm.FromRow(*row, nil), true
		case !errors.Is(err, store.ErrNotFound):
			logging.Ctx(ctx).Warn().Err(err).Str("content_id", id).Msg("catalog store lookup failed")
		}
	}

	if s.live == nil {
		return ContentItem{}, false
	}
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return ContentItem{}, false
	}
	item, err := s.live.Movie(ctx, n)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Int("tmdb_id", n).Msg("live metadata lookup failed")
		}
		return ContentItem{}, false
	}
	return item, true
}

// ByQuery searches by free text and filters. The returned error is always
// nil; it exists so callers can treat the source like any other backend.
func (s *Source) ByQuery(ctx context.Context, text string, f Filters) ([]ContentItem, error) {
	items := []ContentItem{}

	if s.rows != nil {
		rows, err := s.rows.FindContent(ctx, store.ContentQuery{
			Text:      text,
			Genres:    f.Genres,
			MinRating: f.MinRating,
			Limit:     f.Limit,
		})
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("catalog store search failed")
		}
		for _, row := range rows {
			items = append(items, s.norm.FromRow(row, nil))
		}
	}
	if len(items) > 0 || s.live == nil {
		return items, nil
	}

	live, err := s.live.Search(ctx, text, f)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("live metadata search failed")
		return items, nil
	}
	return live, nil
}
