package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/metrics"
)

// ErrNotFound is returned when a source has no record for an id.
var ErrNotFound = errors.New("content not found")

// errCallerDone marks a request abandoned because the caller's context ended.
var errCallerDone = errors.New("caller context done")

// TMDBConfig configures the live metadata client.
type TMDBConfig struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	Failures uint32
	// OpenFor is how long the breaker stays open before probing again.
	OpenFor    time.Duration
	HTTPClient *http.Client
}

// TMDBClient reads movie metadata from the TMDB v3 API. Calls go through a
// circuit breaker so an unreachable API fails fast.
type TMDBClient struct {
	baseURL string
	token   string
	http    *http.Client
	norm    Normalizer
	cb      *gobreaker.CircuitBreaker[[]ContentItem]
}

// NewTMDBClient builds a client whose breaker opens after cfg.Failures
// consecutive failures.
func NewTMDBClient(cfg TMDBConfig, norm Normalizer) *TMDBClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a caller giving up says nothing about the API's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, errCallerDone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	// responses carry no source field
	norm.DefaultSource = "tmdb"

	return &TMDBClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
		norm:    norm,
		cb:      gobreaker.NewCircuitBreaker[[]ContentItem](settings),
	}
}

type tmdbPage struct {
	Results []map[string]any `json:"results"`
}

// Movie fetches a single title by TMDB id.
func (c *TMDBClient) Movie(ctx context.Context, id int) (ContentItem, error) {
	items, err := c.cb.Execute(func() ([]ContentItem, error) {
		var m map[string]any
		if err := c.get(ctx, "/movie/"+strconv.Itoa(id), nil, &m); err != nil {
			return nil, err
		}
		return []ContentItem{c.norm.FromMap(m)}, nil
	})
	if err != nil {
		return ContentItem{}, err
	}
	return items[0], nil
}

// Search runs a title search, or a discover query when text is empty, and
// applies filters to the first page of results.
func (c *TMDBClient) Search(ctx context.Context, text string, f Filters) ([]ContentItem, error) {
	return c.cb.Execute(func() ([]ContentItem, error) {
		var page tmdbPage
		var err error
		if strings.TrimSpace(text) != "" {
			err = c.get(ctx, "/search/movie", url.Values{"query": {text}, "include_adult": {"false"}}, &page)
		} else {
			q := url.Values{"sort_by": {"popularity.desc"}, "include_adult": {"false"}}
			if f.MinRating > 0 {
				q.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', 1, 64))
			}
			if ids := GenreIDs(f.Genres); len(ids) > 0 {
				parts := make([]string, len(ids))
				for i, id := range ids {
					parts[i] = strconv.Itoa(id)
				}
				q.Set("with_genres", strings.Join(parts, "|"))
			}
			err = c.get(ctx, "/discover/movie", q, &page)
		}
		if err != nil {
			return nil, err
		}

		items := make([]ContentItem, 0, len(page.Results))
		for _, m := range page.Results {
			item := c.norm.FromMap(m)
			if !Matches(item, f) {
				continue
			}
			items = append(items, item)
			if f.Limit > 0 && len(items) == f.Limit {
				break
			}
		}
		return items, nil
	})
}

func (c *TMDBClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build tmdb request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("tmdb request abandoned: %w: %w", errCallerDone, ctxErr)
		}
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("tmdb returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode tmdb response: %w", err)
	}
	return nil
}

// Matches reports whether item passes the rating floor and, when genres are
// given, shares at least one of them.
func Matches(item ContentItem, f Filters) bool {
	if item.Rating < f.MinRating {
		return false
	}
	if len(f.Genres) == 0 {
		return true
	}
	for _, g := range item.Genres {
		for _, want := range f.Genres {
			if strings.EqualFold(g, want) {
				return true
			}
		}
	}
	return false
}
