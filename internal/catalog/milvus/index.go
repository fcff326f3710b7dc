// Package milvus serves content similarity search from a Milvus collection.
package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/memory/memutils"
)

// Collection field names.
const (
	FieldID          = "tmdb_id"
	FieldTitle       = "title"
	FieldOverview    = "overview"
	FieldReleaseDate = "release_date"
	FieldRating      = "rating"
	FieldGenres      = "genres"
	FieldPosterPath  = "poster_path"
	FieldEmbedding   = "embedding"
)

var outputFields = []string{
	FieldID, FieldTitle, FieldOverview, FieldReleaseDate, FieldRating, FieldGenres, FieldPosterPath,
}

// Config locates the content collection.
type Config struct {
	Address    string
	Collection string
	NProbe     int
}

// Index runs cosine searches against a collection indexed with IVF_FLAT.
type Index struct {
	client     client.Client
	collection string
	nprobe     int
}

// Open connects to Milvus and loads the collection.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	c, err := client.NewGrpcClient(ctx, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}
	nprobe := cfg.NProbe
	if nprobe <= 0 {
		nprobe = 10
	}
	return &Index{client: c, collection: cfg.Collection, nprobe: nprobe}, nil
}

func (ix *Index) Close() error {
	return ix.client.Close()
}

// Ping checks that the collection is reachable.
func (ix *Index) Ping(ctx context.Context) error {
	ok, err := ix.client.HasCollection(ctx, ix.collection)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("milvus collection %q does not exist", ix.collection)
	}
	return nil
}

// SearchContent returns hits at or above minSimilarity, best first, ties
// broken by id.
func (ix *Index) SearchContent(ctx context.Context, queryEmbedding []float32, topK int, minSimilarity float64) ([]memtypes.ContentSearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	sp, err := entity.NewIndexIvfFlatSearchParam(ix.nprobe)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(memutils.NormalizeVector(queryEmbedding))}
	results, err := ix.client.Search(ctx, ix.collection, []string{}, "", outputFields,
		vectors, FieldEmbedding, entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	var out []memtypes.ContentSearchResult
	for _, rs := range results {
		for i := 0; i < rs.ResultCount; i++ {
			sim := float64(rs.Scores[i])
			if !memutils.MeetsThreshold(sim, minSimilarity) {
				continue
			}
			out = append(out, memtypes.ContentSearchResult{Row: rowAt(rs, i), Similarity: sim})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Row.ExternalID < out[j].Row.ExternalID
	})
	return out, nil
}

func rowAt(rs client.SearchResult, i int) memtypes.ContentRow {
	row := memtypes.ContentRow{
		ExternalID:  stringAt(rs, FieldID, i),
		Title:       stringAt(rs, FieldTitle, i),
		Overview:    stringAt(rs, FieldOverview, i),
		ReleaseDate: stringAt(rs, FieldReleaseDate, i),
		PosterPath:  stringAt(rs, FieldPosterPath, i),
		Source:      "milvus",
	}
	if col := rs.Fields.GetColumn(FieldRating); col != nil {
		if v, err := col.GetAsDouble(i); err == nil {
			row.Rating = v
		}
	}
	if g := stringAt(rs, FieldGenres, i); g != "" && json.Valid([]byte(g)) {
		row.Genres = json.RawMessage(g)
	}
	return row
}

// stringAt reads any scalar column as a string; ids may be stored as int64.
func stringAt(rs client.SearchResult, name string, i int) string {
	col := rs.Fields.GetColumn(name)
	if col == nil {
		return ""
	}
	v, err := col.Get(i)
	if err != nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
