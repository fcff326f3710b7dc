package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/memutils"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/queries.sql
var queriesSQL string

// queries holds parsed SQL queries by name
var queries map[string]string

func init() {
	queries = ParseQueries(queriesSQL)
}

// ParseQueries splits a SQL file on "-- name: QueryName" markers.
func ParseQueries(content string) map[string]string {
	result := make(map[string]string)
	re := regexp.MustCompile(`(?m)^--\s*name:\s*(\w+)\s*$`)
	matches := re.FindAllStringSubmatchIndex(content, -1)

	for i, match := range matches {
		name := content[match[2]:match[3]]
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		result[name] = strings.TrimSpace(content[match[1]:end])
	}
	return result
}

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

type (
	StoredMemory        = memtypes.StoredMemory
	SearchResult        = memtypes.SearchResult
	MemoryFilter        = memtypes.MemoryFilter
	ContentRow          = memtypes.ContentRow
	ContentSearchResult = memtypes.ContentSearchResult
)

// ContentQuery filters a metadata lookup over the catalog.
type ContentQuery struct {
	Text      string
	Genres    []string
	MinRating float64
	Limit     int
}

// Store persists memories and catalog rows in SQLite. Similarity search is
// a linear scan over normalized embeddings.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. An empty path selects the
// default location under the user's home directory.
func Open(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStoreWithDB wraps an existing connection, mostly for tests.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultPath returns ~/.curator/memory.db, creating the directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(homeDir, consts.AppDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", consts.AppName, err)
	}
	return filepath.Join(dir, "memory.db"), nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SaveMemory inserts a memory. ID and CreatedAt are filled when empty and
// the embedding is normalized before it is written.
func (s *Store) SaveMemory(ctx context.Context, item *StoredMemory) error {
	if !item.MemoryType.Valid() {
		return fmt.Errorf("invalid memory type %q", item.MemoryType)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.Embedding = memutils.NormalizeVector(item.Embedding)
	if item.Dim == 0 {
		item.Dim = len(item.Embedding)
	}

	var rating sql.NullFloat64
	if item.Rating != nil {
		rating = sql.NullFloat64{Float64: *item.Rating, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, queries["InsertMemory"],
		item.ID, item.UserID, string(item.MemoryType), item.Document,
		item.MovieTitle, item.ReviewText, rating,
		item.QueryText, item.ResponseText, item.AgentType,
		item.CreatedAt.UnixMilli(), item.Provider, item.ModelID, item.Dim,
		memutils.VectorToBytes(item.Embedding))
	if err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}
	return nil
}

// SearchMemories returns up to topK memories matching filter whose
// similarity to the query is at least minSimilarity, best first.
func (s *Store) SearchMemories(ctx context.Context, filter MemoryFilter, queryEmbedding []float32, topK int, minSimilarity float64) ([]SearchResult, error) {
	memories, err := s.queryMemories(ctx, queries["SelectMemoriesForSearch"],
		filter.UserID, string(filter.MemoryType), string(filter.MemoryType))
	if err != nil {
		return nil, err
	}

	normalizedQuery := memutils.NormalizeVector(queryEmbedding)

	var results []SearchResult
	for _, mem := range memories {
		similarity := memutils.DotProduct(normalizedQuery, mem.Embedding)
		if memutils.MeetsThreshold(similarity, minSimilarity) {
			results = append(results, SearchResult{Item: mem, Similarity: similarity})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Item.ID < results[j].Item.ID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// RecentMemories returns the newest memories matching filter.
func (s *Store) RecentMemories(ctx context.Context, filter MemoryFilter, limit int) ([]StoredMemory, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryMemories(ctx, queries["SelectRecentMemories"],
		filter.UserID, string(filter.MemoryType), string(filter.MemoryType), limit)
}

// DeleteMemory removes a single memory by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, queries["DeleteMemory"], id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMemoriesBefore removes every memory created before cutoff and
// reports how many rows went.
func (s *Store) DeleteMemoriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, queries["DeleteMemoriesBefore"], cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune memories: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) queryMemories(ctx context.Context, query string, args ...any) ([]StoredMemory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var memories []StoredMemory
	for rows.Next() {
		var (
			item          StoredMemory
			memoryType    string
			rating        sql.NullFloat64
			createdAtMs   int64
			embeddingBlob []byte
		)
		err := rows.Scan(&item.ID, &item.UserID, &memoryType, &item.Document,
			&item.MovieTitle, &item.ReviewText, &rating,
			&item.QueryText, &item.ResponseText, &item.AgentType,
			&createdAtMs, &item.Provider, &item.ModelID, &item.Dim, &embeddingBlob)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}

		item.MemoryType = memtypes.MemoryType(memoryType)
		item.CreatedAt = time.UnixMilli(createdAtMs)
		item.Embedding = memutils.BytesToVector(embeddingBlob)
		if rating.Valid {
			r := rating.Float64
			item.Rating = &r
		}
		memories = append(memories, item)
	}
	return memories, rows.Err()
}

// SaveContent inserts or replaces a catalog row.
func (s *Store) SaveContent(ctx context.Context, row *ContentRow) error {
	if row.ExternalID == "" {
		return fmt.Errorf("content row has no external id")
	}
	genres := []byte(row.Genres)
	if len(genres) == 0 {
		genres = []byte("[]")
	}

	var embedding []byte
	if len(row.Embedding) > 0 {
		row.Embedding = memutils.NormalizeVector(row.Embedding)
		embedding = memutils.VectorToBytes(row.Embedding)
	}

	_, err := s.db.ExecContext(ctx, queries["UpsertContent"],
		row.ExternalID, row.Title, row.Overview, row.ReleaseDate, row.Rating,
		string(genres), row.PosterPath, row.Source, embedding)
	if err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	return nil
}

// SearchContent returns up to topK catalog rows at or above minSimilarity.
// Ties are broken by external id so results are stable for a fixed catalog.
func (s *Store) SearchContent(ctx context.Context, queryEmbedding []float32, topK int, minSimilarity float64) ([]ContentSearchResult, error) {
	rows, err := s.queryContent(ctx, queries["SelectContentForSearch"])
	if err != nil {
		return nil, err
	}

	normalizedQuery := memutils.NormalizeVector(queryEmbedding)

	var results []ContentSearchResult
	for _, row := range rows {
		similarity := memutils.DotProduct(normalizedQuery, row.Embedding)
		if memutils.MeetsThreshold(similarity, minSimilarity) {
			results = append(results, ContentSearchResult{Row: row, Similarity: similarity})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Row.ExternalID < results[j].Row.ExternalID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ContentByID returns ErrNotFound when no row carries id.
func (s *Store) ContentByID(ctx context.Context, id string) (*ContentRow, error) {
	rows, err := s.queryContent(ctx, queries["SelectContentByID"], id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// FindContent matches catalog rows on title or overview text, minimum
// rating and genre names, ordered by rating.
func (s *Store) FindContent(ctx context.Context, q ContentQuery) ([]ContentRow, error) {
	text := strings.TrimSpace(q.Text)
	rows, err := s.queryContent(ctx, queries["FindContent"], text, text, text, q.MinRating)
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, row := range rows {
		if len(q.Genres) > 0 && !rowHasGenre(row, q.Genres) {
			continue
		}
		out = append(out, row)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// rowHasGenre is case-insensitive and only understands genre names; rows
// holding numeric genre ids never match a name filter.
func rowHasGenre(row ContentRow, want []string) bool {
	var names []string
	if err := json.Unmarshal(row.Genres, &names); err != nil {
		var objs []struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(row.Genres, &objs); err != nil {
			return false
		}
		for _, o := range objs {
			names = append(names, o.Name)
		}
	}
	for _, n := range names {
		for _, w := range want {
			if strings.EqualFold(n, w) {
				return true
			}
		}
	}
	return false
}

func (s *Store) queryContent(ctx context.Context, query string, args ...any) ([]ContentRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	var out []ContentRow
	for rows.Next() {
		var (
			row           ContentRow
			genres        string
			embeddingBlob []byte
		)
		if err := rows.Scan(&row.ExternalID, &row.Title, &row.Overview, &row.ReleaseDate,
			&row.Rating, &genres, &row.PosterPath, &row.Source, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		row.Genres = json.RawMessage(genres)
		row.Embedding = memutils.BytesToVector(embeddingBlob)
		out = append(out, row)
	}
	return out, rows.Err()
}
