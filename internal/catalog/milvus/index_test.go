package milvus

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowAt(t *testing.T) {
	rs := client.SearchResult{
		ResultCount: 2,
		Scores:      []float32{0.9, 0.6},
		Fields: client.ResultSet{
			entity.NewColumnInt64(FieldID, []int64{603, 27205}),
			entity.NewColumnVarChar(FieldTitle, []string{"The Matrix", "Inception"}),
			entity.NewColumnVarChar(FieldReleaseDate, []string{"1999-03-30", "2010-07-15"}),
			entity.NewColumnDouble(FieldRating, []float64{8.2, 8.4}),
			entity.NewColumnVarChar(FieldGenres, []string{`["Action","Science Fiction"]`, "not json"}),
			entity.NewColumnVarChar(FieldPosterPath, []string{"/matrix.jpg", ""}),
		},
	}

	first := rowAt(rs, 0)
	assert.Equal(t, "603", first.ExternalID)
	assert.Equal(t, "The Matrix", first.Title)
	assert.Equal(t, 8.2, first.Rating)
	assert.JSONEq(t, `["Action","Science Fiction"]`, string(first.Genres))
	assert.Equal(t, "milvus", first.Source)

	second := rowAt(rs, 1)
	require.Equal(t, "27205", second.ExternalID)
	assert.Empty(t, second.Genres)
	assert.Empty(t, second.PosterPath)
	// overview was not returned at all
	assert.Empty(t, second.Overview)
}
