// Package pgvector stores memories and catalog rows in Postgres, using the
// pgvector extension for cosine-distance search.
package pgvector

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/memutils"
	"github.com/austiecodes/curator/internal/memory/store"
)

//go:embed sql/schema.sql
var schemaTemplate string

//go:embed sql/queries.sql
var queriesSQL string

var queries = store.ParseQueries(queriesSQL)

// Store is the Postgres counterpart of store.Store.
type Store struct {
	pool *pgxpool.Pool
	dim  int
}

// Open creates the schema for vectors of the given dimension, then opens a
// pool whose connections know the vector type.
func Open(ctx context.Context, dsn string, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("pgvector store needs a positive embedding dimension, got %d", dim)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	// the extension must exist before AfterConnect can register its types
	conn, err := pgx.ConnectConfig(ctx, cfg.ConnConfig.Copy())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	_, err = conn.Exec(ctx, fmt.Sprintf(schemaTemplate, dim))
	conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, c)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	return &Store{pool: pool, dim: dim}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) vector(v []float32) (pgv.Vector, error) {
	if len(v) != s.dim {
		return pgv.Vector{}, fmt.Errorf("embedding has %d dimensions, store expects %d", len(v), s.dim)
	}
	return pgv.NewVector(memutils.NormalizeVector(v)), nil
}

func (s *Store) SaveMemory(ctx context.Context, item *memtypes.StoredMemory) error {
	if !item.MemoryType.Valid() {
		return fmt.Errorf("invalid memory type %q", item.MemoryType)
	}
	vec, err := s.vector(item.Embedding)
	if err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.Dim == 0 {
		item.Dim = len(item.Embedding)
	}

	_, err = s.pool.Exec(ctx, queries["InsertMemory"],
		item.ID, item.UserID, string(item.MemoryType), item.Document,
		item.MovieTitle, item.ReviewText, item.Rating,
		item.QueryText, item.ResponseText, item.AgentType,
		item.CreatedAt, item.Provider, item.ModelID, item.Dim, vec)
	if err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}
	return nil
}

// SearchMemories lets Postgres rank by cosine distance.
func (s *Store) SearchMemories(ctx context.Context, filter memtypes.MemoryFilter, queryEmbedding []float32, topK int, minSimilarity float64) ([]memtypes.SearchResult, error) {
	vec, err := s.vector(queryEmbedding)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 100
	}

	rows, err := s.pool.Query(ctx, queries["SearchMemories"],
		vec, filter.UserID, string(filter.MemoryType), memutils.ThresholdFloor(minSimilarity), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}
	defer rows.Close()

	var results []memtypes.SearchResult
	for rows.Next() {
		var res memtypes.SearchResult
		dest := append(memoryDest(&res.Item), &res.Similarity)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (s *Store) RecentMemories(ctx context.Context, filter memtypes.MemoryFilter, limit int) ([]memtypes.StoredMemory, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.pool.Query(ctx, queries["SelectRecentMemories"], filter.UserID, string(filter.MemoryType), lim)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var out []memtypes.StoredMemory
	for rows.Next() {
		var item memtypes.StoredMemory
		if err := rows.Scan(memoryDest(&item)...); err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queries["DeleteMemory"], id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMemoriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, queries["DeleteMemoriesBefore"], cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune memories: %w", err)
	}
	return tag.RowsAffected(), nil
}

func memoryDest(item *memtypes.StoredMemory) []any {
	return []any{
		&item.ID, &item.UserID, &item.MemoryType, &item.Document,
		&item.MovieTitle, &item.ReviewText, &item.Rating,
		&item.QueryText, &item.ResponseText, &item.AgentType,
		&item.CreatedAt, &item.Provider, &item.ModelID, &item.Dim,
	}
}

func (s *Store) SaveContent(ctx context.Context, row *memtypes.ContentRow) error {
	if row.ExternalID == "" {
		return fmt.Errorf("content row has no external id")
	}
	genres := string(row.Genres)
	if genres == "" {
		genres = "[]"
	}

	var vec *pgv.Vector
	if len(row.Embedding) > 0 {
		v, err := s.vector(row.Embedding)
		if err != nil {
			return err
		}
		vec = &v
	}

	_, err := s.pool.Exec(ctx, queries["UpsertContent"],
		row.ExternalID, row.Title, row.Overview, row.ReleaseDate, row.Rating,
		genres, row.PosterPath, row.Source, vec)
	if err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	return nil
}

// SearchContent lets Postgres rank catalog rows by cosine distance.
func (s *Store) SearchContent(ctx context.Context, queryEmbedding []float32, topK int, minSimilarity float64) ([]memtypes.ContentSearchResult, error) {
	vec, err := s.vector(queryEmbedding)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 100
	}

	rows, err := s.pool.Query(ctx, queries["SearchContent"], vec, memutils.ThresholdFloor(minSimilarity), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search content: %w", err)
	}
	defer rows.Close()

	var results []memtypes.ContentSearchResult
	for rows.Next() {
		var res memtypes.ContentSearchResult
		dest := append(contentDest(&res.Row), &res.Similarity)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (s *Store) ContentByID(ctx context.Context, id string) (*memtypes.ContentRow, error) {
	var row memtypes.ContentRow
	err := s.pool.QueryRow(ctx, queries["SelectContentByID"], id).Scan(contentDest(&row)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	return &row, nil
}

func (s *Store) FindContent(ctx context.Context, q store.ContentQuery) ([]memtypes.ContentRow, error) {
	genres := make([]string, 0, len(q.Genres))
	for _, g := range q.Genres {
		genres = append(genres, strings.ToLower(g))
	}
	var lim any
	if q.Limit > 0 {
		lim = q.Limit
	}

	rows, err := s.pool.Query(ctx, queries["FindContent"], strings.TrimSpace(q.Text), q.MinRating, genres, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	var out []memtypes.ContentRow
	for rows.Next() {
		var row memtypes.ContentRow
		if err := rows.Scan(contentDest(&row)...); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func contentDest(row *memtypes.ContentRow) []any {
	return []any{
		&row.ExternalID, &row.Title, &row.Overview, &row.ReleaseDate, &row.Rating,
		(*rawJSON)(&row.Genres), &row.PosterPath, &row.Source,
	}
}

// rawJSON scans a text column into a json.RawMessage.
type rawJSON []byte

func (r *rawJSON) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*r = append((*r)[:0], v...)
	case []byte:
		*r = append((*r)[:0], v...)
	case nil:
		*r = rawJSON("[]")
	default:
		return fmt.Errorf("cannot scan %T into json", src)
	}
	return nil
}
