package vectorstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx/codectx-mcp/pkg/types"
)

func newCollection(t *testing.T, m *Memory, name string, dims int, metric Metric) {
	t.Helper()
	require.NoError(t, m.CreateCollection(context.Background(), name, dims, metric))
}

func TestCollectionLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	exists, err := m.CollectionExists(ctx, "code")
	require.NoError(t, err)
	assert.False(t, exists)

	newCollection(t, m, "code", 3, MetricCosine)

	exists, err = m.CollectionExists(ctx, "code")
	require.NoError(t, err)
	assert.True(t, exists)

	// Creating an existing collection is a no-op.
	require.NoError(t, m.CreateCollection(ctx, "code", 3, MetricCosine))

	require.NoError(t, m.DeleteCollection(ctx, "code"))
	exists, err = m.CollectionExists(ctx, "code")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing collection is idempotent.
	require.NoError(t, m.DeleteCollection(ctx, "code"))
}

func TestCreateCollectionValidation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	err := m.CreateCollection(ctx, "", 3, MetricCosine)
	assert.True(t, types.IsInvalidArgument(err))

	err = m.CreateCollection(ctx, "code", 0, MetricCosine)
	assert.True(t, types.IsInvalidArgument(err))
}

func TestInsertVectors(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	newCollection(t, m, "code", 2, MetricCosine)

	ids, err := m.InsertVectors(ctx, "code", []Point{
		{ID: "chunk-a", Vector: []float32{1, 0}, Payload: map[string]string{"file_path": "a.go"}},
		{ID: "chunk-b", Vector: []float32{0, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-a", "chunk-b"}, ids, "returned ids keep input order")

	// Re-inserting an id upserts rather than duplicates.
	_, err = m.InsertVectors(ctx, "code", []Point{
		{ID: "chunk-a", Vector: []float32{0.5, 0.5}},
	})
	require.NoError(t, err)

	points, err := m.ListVectors(ctx, "code", 0)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestInsertVectorsDimsMismatch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	newCollection(t, m, "code", 3, MetricCosine)

	_, err := m.InsertVectors(ctx, "code", []Point{{ID: "a", Vector: []float32{1, 0}}})
	require.Error(t, err)
	assert.True(t, types.IsInvalidArgument(err))

	_, err = m.InsertVectors(ctx, "missing", []Point{{ID: "a", Vector: []float32{1, 0, 0}}})
	assert.True(t, types.IsNotFound(err))
}

func TestSearchSimilarOrdering(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	newCollection(t, m, "code", 2, MetricCosine)

	_, err := m.InsertVectors(ctx, "code", []Point{
		{ID: "east", Vector: []float32{1, 0}},
		{ID: "north", Vector: []float32{0, 1}},
		{ID: "northeast", Vector: []float32{1, 1}},
	})
	require.NoError(t, err)

	hits, err := m.SearchSimilar(ctx, "code", []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "east", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "northeast", hits[1].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchSimilarFilter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	newCollection(t, m, "code", 2, MetricCosine)

	_, err := m.InsertVectors(ctx, "code", []Point{
		{ID: "go-chunk", Vector: []float32{1, 0}, Payload: map[string]string{"language": "go"}},
		{ID: "rs-chunk", Vector: []float32{1, 0}, Payload: map[string]string{"language": "rust"}},
	})
	require.NoError(t, err)

	hits, err := m.SearchSimilar(ctx, "code", []float32{1, 0}, 10, &Filter{Must: map[string]string{"language": "go"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "go-chunk", hits[0].ID)
}

func TestSearchSimilarValidation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	newCollection(t, m, "code", 2, MetricCosine)

	_, err := m.SearchSimilar(ctx, "missing", []float32{1, 0}, 5, nil)
	assert.True(t, types.IsNotFound(err))

	_, err = m.SearchSimilar(ctx, "code", []float32{1, 0, 0}, 5, nil)
	assert.True(t, types.IsInvalidArgument(err))

	hits, err := m.SearchSimilar(ctx, "code", []float32{1, 0}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEuclidMetricRanksCloserHigher(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	newCollection(t, m, "code", 1, MetricEuclid)

	_, err := m.InsertVectors(ctx, "code", []Point{
		{ID: "near", Vector: []float32{1}},
		{ID: "far", Vector: []float32{10}},
	})
	require.NoError(t, err)

	hits, err := m.SearchSimilar(ctx, "code", []float32{0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].ID, "smaller distance scores higher")
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestDeleteAndGetVectors(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	newCollection(t, m, "code", 2, MetricCosine)

	_, err := m.InsertVectors(ctx, "code", []Point{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0, 1}},
	})
	require.NoError(t, err)

	points, err := m.GetVectorsByIDs(ctx, "code", []string{"a", "nope"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "a", points[0].ID)

	require.NoError(t, m.DeleteVectors(ctx, "code", []string{"a"}))

	points, err = m.ListVectors(ctx, "code", 0)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "b", points[0].ID)

	// Deleting already-removed ids is a no-op.
	require.NoError(t, m.DeleteVectors(ctx, "code", []string{"a"}))
}

func TestListVectorsLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	newCollection(t, m, "code", 1, MetricCosine)

	_, err := m.InsertVectors(ctx, "code", []Point{
		{ID: "first", Vector: []float32{1}},
		{ID: "second", Vector: []float32{2}},
		{ID: "third", Vector: []float32{3}},
	})
	require.NoError(t, err)

	points, err := m.ListVectors(ctx, "code", 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "first", points[0].ID, "listing follows insertion order")
	assert.Equal(t, "second", points[1].ID)
}

func TestFlushNoop(t *testing.T) {
	m := NewMemory()
	assert.NoError(t, m.Flush(context.Background(), "anything"))
	assert.NoError(t, m.Close())
}

func TestPointUUIDMapping(t *testing.T) {
	a := pointUUID("chunk_src/main.go_1_10")
	b := pointUUID("chunk_src/main.go_1_10")
	assert.Equal(t, a, b, "deterministic for the same id")
	assert.NotEqual(t, a, pointUUID("chunk_src/main.go_1_11"))

	_, err := uuid.Parse(a)
	assert.NoError(t, err, "mapped ids are valid UUIDs")

	existing := uuid.NewString()
	assert.Equal(t, existing, pointUUID(existing), "real UUIDs pass through")
}
