package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// Metric selects the similarity function for a collection.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
	MetricEuclid Metric = "euclid"
)

// Point is a stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// ScoredPoint is a search hit with its similarity score.
type ScoredPoint struct {
	Point
	Score float32
}

// Filter restricts a search to points whose payload matches every listed
// key/value pair exactly. A nil filter matches everything.
type Filter struct {
	Must map[string]string
}

// Store is the vector store port. All methods are safe for concurrent use.
// InsertVectors returns point ids in input order; inserting a vector whose
// length differs from the collection's dimensions is an invalid-argument
// error. Searching a missing collection is a not-found error.
type Store interface {
	CreateCollection(ctx context.Context, name string, dims int, metric Metric) error
	DeleteCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) (bool, error)

	InsertVectors(ctx context.Context, collection string, points []Point) ([]string, error)
	SearchSimilar(ctx context.Context, collection string, vector []float32, k int, filter *Filter) ([]ScoredPoint, error)
	DeleteVectors(ctx context.Context, collection string, ids []string) error
	GetVectorsByIDs(ctx context.Context, collection string, ids []string) ([]Point, error)
	ListVectors(ctx context.Context, collection string, limit int) ([]Point, error)

	Flush(ctx context.Context, collection string) error
	Close() error
}

// pointUUID maps an arbitrary string id onto a stable UUID. Ids that
// already are UUIDs pass through unchanged.
func pointUUID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String()
}

// matchesFilter reports whether a payload satisfies the filter.
func matchesFilter(payload map[string]string, filter *Filter) bool {
	if filter == nil || len(filter.Must) == 0 {
		return true
	}
	for key, want := range filter.Must {
		if payload[key] != want {
			return false
		}
	}
	return true
}
