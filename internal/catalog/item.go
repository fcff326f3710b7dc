// Package catalog normalizes content records from every source into
// ContentItem and looks up content metadata.
package catalog

// ContentItem is a catalog entry in the shape the pipeline emits. TMDBID is
// always a non-negative integer; PosterURL is set only with PosterPath.
type ContentItem struct {
	Title      string   `json:"title"`
	Year       *int     `json:"year"`
	Rating     float64  `json:"rating"`
	Genres     []string `json:"genres"`
	Overview   string   `json:"overview"`
	TMDBID     int      `json:"tmdbId"`
	PosterPath *string  `json:"poster_path"`
	PosterURL  *string  `json:"poster_url"`
	Source     string   `json:"source"`
	Similarity *float64 `json:"similarity,omitempty"`
}

// Filters narrow a metadata search.
type Filters struct {
	Genres    []string
	MinRating float64
	Limit     int
}
