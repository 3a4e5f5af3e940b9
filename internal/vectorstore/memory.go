package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// memCollection holds one collection's points in insertion order.
type memCollection struct {
	dims   int
	metric Metric
	points map[string]Point
	order  []string
}

// Memory is an in-process Store used by tests and the credential-free
// profile. It applies the same contract as the Qdrant backend.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection)}
}

func (m *Memory) CreateCollection(_ context.Context, name string, dims int, metric Metric) error {
	if name == "" {
		return types.NewError(types.KindInvalidArgument, "collection name cannot be empty")
	}
	if dims <= 0 {
		return types.NewError(types.KindInvalidArgument, "collection dimensions must be positive, got %d", dims)
	}
	if metric == "" {
		metric = MetricCosine
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return nil
	}
	m.collections[name] = &memCollection{
		dims:   dims,
		metric: metric,
		points: make(map[string]Point),
	}
	return nil
}

func (m *Memory) DeleteCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	return nil
}

func (m *Memory) CollectionExists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *Memory) InsertVectors(_ context.Context, collection string, points []Point) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "collection %s does not exist", collection)
	}

	for _, p := range points {
		if len(p.Vector) != coll.dims {
			return nil, types.NewError(types.KindInvalidArgument,
				"vector length %d does not match collection dimensions %d", len(p.Vector), coll.dims)
		}
	}

	ids := make([]string, len(points))
	for i, p := range points {
		id := pointUUID(p.ID)
		if _, exists := coll.points[id]; !exists {
			coll.order = append(coll.order, id)
		}
		stored := Point{ID: p.ID, Vector: append([]float32(nil), p.Vector...), Payload: clonePayload(p.Payload)}
		coll.points[id] = stored
		ids[i] = p.ID
	}
	return ids, nil
}

func (m *Memory) SearchSimilar(_ context.Context, collection string, vector []float32, k int, filter *Filter) ([]ScoredPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[collection]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "collection %s does not exist", collection)
	}
	if len(vector) != coll.dims {
		return nil, types.NewError(types.KindInvalidArgument,
			"query vector length %d does not match collection dimensions %d", len(vector), coll.dims)
	}
	if k <= 0 {
		return []ScoredPoint{}, nil
	}

	hits := make([]ScoredPoint, 0, len(coll.points))
	for _, id := range coll.order {
		p := coll.points[id]
		if !matchesFilter(p.Payload, filter) {
			continue
		}
		hits = append(hits, ScoredPoint{Point: p, Score: similarity(coll.metric, vector, p.Vector)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *Memory) DeleteVectors(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		return types.NewError(types.KindNotFound, "collection %s does not exist", collection)
	}

	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		key := pointUUID(id)
		if _, exists := coll.points[key]; exists {
			delete(coll.points, key)
			removed[key] = true
		}
	}
	if len(removed) == 0 {
		return nil
	}

	order := coll.order[:0]
	for _, key := range coll.order {
		if !removed[key] {
			order = append(order, key)
		}
	}
	coll.order = order
	return nil
}

func (m *Memory) GetVectorsByIDs(_ context.Context, collection string, ids []string) ([]Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[collection]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "collection %s does not exist", collection)
	}

	points := make([]Point, 0, len(ids))
	for _, id := range ids {
		if p, exists := coll.points[pointUUID(id)]; exists {
			points = append(points, p)
		}
	}
	return points, nil
}

func (m *Memory) ListVectors(_ context.Context, collection string, limit int) ([]Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[collection]
	if !ok {
		return nil, types.NewError(types.KindNotFound, "collection %s does not exist", collection)
	}

	points := make([]Point, 0, len(coll.order))
	for _, id := range coll.order {
		if limit > 0 && len(points) >= limit {
			break
		}
		points = append(points, coll.points[id])
	}
	return points, nil
}

// Flush is a no-op: in-memory writes are immediately visible.
func (m *Memory) Flush(context.Context, string) error { return nil }

func (m *Memory) Close() error { return nil }

func clonePayload(payload map[string]string) map[string]string {
	if payload == nil {
		return nil
	}
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// similarity scores candidate against query; higher is always better, so
// the euclid metric returns the negated distance.
func similarity(metric Metric, query, candidate []float32) float32 {
	switch metric {
	case MetricDot:
		return dot(query, candidate)
	case MetricEuclid:
		var sum float64
		for i := range query {
			d := float64(query[i]) - float64(candidate[i])
			sum += d * d
		}
		return float32(-math.Sqrt(sum))
	default:
		return cosine(query, candidate)
	}
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

func cosine(a, b []float32) float32 {
	var dotSum, normA, normB float64
	for i := range a {
		dotSum += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dotSum / (math.Sqrt(normA) * math.Sqrt(normB)))
}
