package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/austiecodes/curator/internal/memory/memtypes"
)

// tmdbGenres maps TMDB movie genre ids to names.
var tmdbGenres = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// GenreIDs returns the TMDB ids for the given names, skipping unknown ones.
func GenreIDs(names []string) []int {
	var ids []int
	for _, n := range names {
		for id, name := range tmdbGenres {
			if strings.EqualFold(name, n) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

// CoerceID turns any identifier shape into a non-negative int. Numbers,
// numeric strings and json.Number are accepted; anything else is 0.
func CoerceID(v any) int {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// YearFromDate reads the year out of a YYYY-MM-DD date.
func YearFromDate(date string) *int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return nil
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y <= 0 {
		return nil
	}
	return &y
}

// GenreNames accepts a JSON array of names, of {"id","name"} objects or of
// TMDB genre ids and returns the names in order.
func GenreNames(raw json.RawMessage) []string {
	names := []string{}
	if len(raw) == 0 {
		return names
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return names
	}
	return genreNamesFrom(items)
}

func genreNamesFrom(items []any) []string {
	names := []string{}
	for _, it := range items {
		switch g := it.(type) {
		case string:
			if g = strings.TrimSpace(g); g != "" {
				names = append(names, g)
			}
		case float64:
			if name, ok := tmdbGenres[int(g)]; ok {
				names = append(names, name)
			}
		case map[string]any:
			if name, ok := g["name"].(string); ok && name != "" {
				names = append(names, name)
			} else if name, ok := tmdbGenres[CoerceID(g["id"])]; ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// PosterURL joins base and path, or returns nil when there is no path.
func PosterURL(base, path string) *string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return &path
	}
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	return &u
}

func optionalString(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// Normalizer builds ContentItems with a fixed poster base and default source.
type Normalizer struct {
	PosterBase    string
	DefaultSource string
}

// FromRow converts a stored catalog row. similarity is nil for rows that did
// not come from a vector search.
func (n Normalizer) FromRow(row memtypes.ContentRow, similarity *float64) ContentItem {
	source := row.Source
	if source == "" {
		source = n.DefaultSource
	}
	return ContentItem{
		Title:      row.Title,
		Year:       YearFromDate(row.ReleaseDate),
		Rating:     row.Rating,
		Genres:     GenreNames(row.Genres),
		Overview:   row.Overview,
		TMDBID:     CoerceID(row.ExternalID),
		PosterPath: optionalString(row.PosterPath),
		PosterURL:  PosterURL(n.PosterBase, row.PosterPath),
		Source:     source,
		Similarity: similarity,
	}
}

// FromMap converts a loosely-typed record such as a decoded document from an
// upstream store. The id may be under tmdbId, external_id, id or _id.
func (n Normalizer) FromMap(m map[string]any) ContentItem {
	item := ContentItem{
		Title:    stringField(m, "title"),
		Overview: stringField(m, "overview"),
		Source:   stringField(m, "source"),
		Genres:   []string{},
	}
	if item.Source == "" {
		item.Source = n.DefaultSource
	}

	for _, key := range []string{"tmdbId", "external_id", "id", "_id"} {
		if v, ok := m[key]; ok && v != nil {
			item.TMDBID = CoerceID(v)
			break
		}
	}

	if y := CoerceID(m["year"]); y > 0 {
		item.Year = &y
	} else {
		item.Year = YearFromDate(stringField(m, "release_date"))
	}

	if r, ok := numberField(m, "rating"); ok {
		item.Rating = r
	} else if r, ok := numberField(m, "vote_average"); ok {
		item.Rating = r
	}

	if gs, ok := m["genres"].([]any); ok {
		item.Genres = genreNamesFrom(gs)
	} else if gs, ok := m["genre_ids"].([]any); ok {
		item.Genres = genreNamesFrom(gs)
	}

	path := stringField(m, "poster_path")
	item.PosterPath = optionalString(path)
	item.PosterURL = PosterURL(n.PosterBase, path)

	if s, ok := numberField(m, "similarity"); ok {
		item.Similarity = &s
	}
	return item
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
