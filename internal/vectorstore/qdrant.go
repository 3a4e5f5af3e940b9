package vectorstore

import (
	"context"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// payloadKeyID carries the caller's point id through Qdrant, whose native
// ids must be UUIDs.
const payloadKeyID = "_id"

// Qdrant implements Store over the Qdrant gRPC API. Upserts and deletes
// use Wait so acknowledged writes are immediately searchable.
type Qdrant struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
}

// NewQdrant connects to a Qdrant instance at addr (host:port, gRPC).
func NewQdrant(addr string) (*Qdrant, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, types.WrapError(types.KindVectorStore, err, "connect to qdrant at %s", addr)
	}

	return &Qdrant{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
	}, nil
}

func (q *Qdrant) CreateCollection(ctx context.Context, name string, dims int, metric Metric) error {
	if dims <= 0 {
		return types.NewError(types.KindInvalidArgument, "collection dimensions must be positive, got %d", dims)
	}

	exists, err := q.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = q.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: distanceFor(metric),
		}),
	})
	if err != nil {
		return types.WrapError(types.KindVectorStore, err, "create collection %s", name)
	}
	return nil
}

func (q *Qdrant) DeleteCollection(ctx context.Context, name string) error {
	_, err := q.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: name})
	if err != nil {
		return types.WrapError(types.KindVectorStore, err, "delete collection %s", name)
	}
	return nil
}

func (q *Qdrant) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := q.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return false, types.WrapError(types.KindVectorStore, err, "list collections")
	}
	for _, coll := range resp.GetCollections() {
		if coll.GetName() == name {
			return true, nil
		}
	}
	return false, nil
}

func (q *Qdrant) InsertVectors(ctx context.Context, collection string, points []Point) ([]string, error) {
	if len(points) == 0 {
		return []string{}, nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	ids := make([]string, len(points))
	for i, p := range points {
		payload := make(map[string]*qdrant.Value, len(p.Payload)+1)
		for k, v := range p.Payload {
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		}
		payload[payloadKeyID] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: p.ID}}

		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: pointUUID(p.ID)}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: p.Vector}}},
			Payload: payload,
		}
		ids[i] = p.ID
	}

	_, err := q.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qdrantPoints,
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return nil, types.WrapError(types.KindVectorStore, err, "upsert %d points into %s", len(points), collection)
	}
	return ids, nil
}

func (q *Qdrant) SearchSimilar(ctx context.Context, collection string, vector []float32, k int, filter *Filter) ([]ScoredPoint, error) {
	if k <= 0 {
		return []ScoredPoint{}, nil
	}

	req := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: true}},
	}
	if qf := qdrantFilter(filter); qf != nil {
		req.Filter = qf
	}

	resp, err := q.points.Search(ctx, req)
	if err != nil {
		return nil, types.WrapError(types.KindVectorStore, err, "search collection %s", collection)
	}

	hits := make([]ScoredPoint, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		point := pointFromPayload(hit.GetPayload(), hit.GetVectors())
		hits = append(hits, ScoredPoint{Point: point, Score: hit.GetScore()})
	}
	return hits, nil
}

func (q *Qdrant) DeleteVectors(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: pointUUID(id)}}
	}

	_, err := q.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
		Wait: proto.Bool(true),
	})
	if err != nil {
		return types.WrapError(types.KindVectorStore, err, "delete %d points from %s", len(ids), collection)
	}
	return nil
}

func (q *Qdrant) GetVectorsByIDs(ctx context.Context, collection string, ids []string) ([]Point, error) {
	if len(ids) == 0 {
		return []Point{}, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: pointUUID(id)}}
	}

	resp, err := q.points.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            pointIDs,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, types.WrapError(types.KindVectorStore, err, "get %d points from %s", len(ids), collection)
	}

	points := make([]Point, 0, len(resp.GetResult()))
	for _, retrieved := range resp.GetResult() {
		points = append(points, pointFromPayload(retrieved.GetPayload(), retrieved.GetVectors()))
	}
	return points, nil
}

func (q *Qdrant) ListVectors(ctx context.Context, collection string, limit int) ([]Point, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: true}},
	}
	if limit > 0 {
		req.Limit = proto.Uint32(uint32(limit))
	}

	resp, err := q.points.Scroll(ctx, req)
	if err != nil {
		return nil, types.WrapError(types.KindVectorStore, err, "list points in %s", collection)
	}

	points := make([]Point, 0, len(resp.GetResult()))
	for _, retrieved := range resp.GetResult() {
		points = append(points, pointFromPayload(retrieved.GetPayload(), retrieved.GetVectors()))
	}
	return points, nil
}

// Flush is satisfied by Wait on every write; acknowledged writes are
// already durable and searchable.
func (q *Qdrant) Flush(context.Context, string) error { return nil }

func (q *Qdrant) Close() error {
	return q.conn.Close()
}

func distanceFor(metric Metric) qdrant.Distance {
	switch metric {
	case MetricDot:
		return qdrant.Distance_Dot
	case MetricEuclid:
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}

func qdrantFilter(filter *Filter) *qdrant.Filter {
	if filter == nil || len(filter.Must) == 0 {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filter.Must))
	for key, value := range filter.Must {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   key,
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: value}},
				},
			},
		})
	}
	return &qdrant.Filter{Must: conditions}
}

// pointFromPayload rebuilds a port-level Point from a Qdrant payload,
// restoring the caller's id from its payload slot.
func pointFromPayload(payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput) Point {
	point := Point{Payload: make(map[string]string, len(payload))}
	for key, value := range payload {
		if key == payloadKeyID {
			point.ID = value.GetStringValue()
			continue
		}
		point.Payload[key] = value.GetStringValue()
	}
	if vector := vectors.GetVector(); vector != nil {
		point.Vector = vector.GetData()
	}
	return point
}
