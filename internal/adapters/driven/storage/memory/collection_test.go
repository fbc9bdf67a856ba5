package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driven"
)

func seedCollection(t *testing.T) *Collection {
	t.Helper()
	c := NewCollection(driven.CollectionContent)
	err := c.Upsert(context.Background(), []driven.VectorRecord{
		{ID: "A_0", Document: "a zero", Embedding: []float32{1, 0, 0},
			Metadata: domain.Metadata{"course_title": "A", "lesson_number": 0}},
		{ID: "A_1", Document: "a one", Embedding: []float32{0.9, 0.1, 0},
			Metadata: domain.Metadata{"course_title": "A", "lesson_number": 1}},
		{ID: "B_0", Document: "b zero", Embedding: []float32{0, 1, 0},
			Metadata: domain.Metadata{"course_title": "B", "lesson_number": 1}},
	})
	require.NoError(t, err)
	return c
}

func TestCollection_QueryOrdersByDistance(t *testing.T) {
	c := seedCollection(t)

	res, err := c.Query(context.Background(), driven.VectorQuery{
		Embeddings: [][]float32{{1, 0, 0}},
		NResults:   2,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"A_0", "A_1"}, res.IDs[0])
	assert.Equal(t, []string{"a zero", "a one"}, res.Documents[0])
	assert.Less(t, res.Distances[0][0], res.Distances[0][1])
}

func TestCollection_QueryWithFilter(t *testing.T) {
	c := seedCollection(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		where *domain.Filter
		want  []string
	}{
		{"course", domain.Eq("course_title", "B"), []string{"B_0"}},
		{"lesson", domain.Eq("lesson_number", 1), []string{"A_1", "B_0"}},
		{"both", domain.AllOf(domain.Eq("course_title", "A"), domain.Eq("lesson_number", 1)), []string{"A_1"}},
		{"none", domain.Eq("course_title", "C"), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Query(ctx, driven.VectorQuery{
				Embeddings: [][]float32{{1, 0, 0}},
				NResults:   5,
				Where:      tt.where,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.IDs[0])
		})
	}
}

func TestCollection_UpsertReplacesInPlace(t *testing.T) {
	c := seedCollection(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, []driven.VectorRecord{
		{ID: "A_0", Document: "replaced", Embedding: []float32{0, 0, 1}},
	}))

	ids, err := c.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A_0", "A_1", "B_0"}, ids)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recs, err := c.Get(ctx, []string{"A_0", "missing"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "replaced", recs[0].Document)
	assert.Nil(t, recs[0].Embedding)
}

func TestCollection_GetReturnsCopies(t *testing.T) {
	c := seedCollection(t)
	ctx := context.Background()

	recs, err := c.Get(ctx, []string{"B_0"})
	require.NoError(t, err)
	recs[0].Metadata["course_title"] = "mutated"

	again, err := c.Get(ctx, []string{"B_0"})
	require.NoError(t, err)
	assert.Equal(t, "B", again[0].Metadata.String("course_title"))
}

func TestCollection_Clear(t *testing.T) {
	c := seedCollection(t)
	ctx := context.Background()

	require.NoError(t, c.Clear(ctx))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	ids, err := c.IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)

	res, err := c.Query(ctx, driven.VectorQuery{Embeddings: [][]float32{{1, 0, 0}}, NResults: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Documents[0])
}

func TestCollection_QueryCanceled(t *testing.T) {
	c := seedCollection(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Query(ctx, driven.VectorQuery{Embeddings: [][]float32{{1, 0, 0}}})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollection_Name(t *testing.T) {
	assert.Equal(t, "course_catalog", NewCollection(driven.CollectionCatalog).Name())
}
