package store

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/geoweather/tracker/internal/weather"
)

// MongoObservationStore is the document-side observation log. Documents
// are only ever inserted; the _id assigned by the driver is monotonic
// per process and supplies the insertion-order tie-break for reads.
type MongoObservationStore struct {
	coll *mongo.Collection
}

// NewMongoObservationStore connects, pings, and binds to the configured
// collection.
func NewMongoObservationStore(ctx context.Context, uri, database, collection string) (*MongoObservationStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoObservationStore{
		coll: client.Database(database).Collection(collection),
	}, nil
}

// Append inserts one observation document.
func (s *MongoObservationStore) Append(ctx context.Context, obs weather.Observation) error {
	if _, err := s.coll.InsertOne(ctx, obs); err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// LatestPerLocation groups the log by key and takes the newest document
// per group. Sorting by fetched_at then _id descending before the group
// makes the $first document the latest one, tie-broken by insertion
// order. The trailing sort keeps output deterministic across calls.
func (s *MongoObservationStore) LatestPerLocation(ctx context.Context) ([]weather.Observation, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "fetched_at", Value: -1},
			{Key: "_id", Value: -1},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$location_key"},
			{Key: "latest", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate latest: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]weather.Observation, 0)
	for cursor.Next(ctx) {
		var group struct {
			Latest weather.Observation `bson:"latest"`
		}
		if err := cursor.Decode(&group); err != nil {
			return nil, fmt.Errorf("decode latest group: %w", err)
		}
		out = append(out, group.Latest)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate latest groups: %w", err)
	}
	return out, nil
}

// History returns all observations for the key, ascending by fetched_at
// with _id as the insertion-order tie-break. Unknown keys come back as
// an empty slice.
func (s *MongoObservationStore) History(ctx context.Context, locationKey string) ([]weather.Observation, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "fetched_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := s.coll.Find(ctx, bson.M{"location_key": locationKey}, opts)
	if err != nil {
		return nil, fmt.Errorf("find history: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]weather.Observation, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return out, nil
}

// DistinctKeys returns the sorted set of location keys in the log.
func (s *MongoObservationStore) DistinctKeys(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "location_key", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct keys: %w", err)
	}

	keys := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			keys = append(keys, s)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close disconnects the underlying client.
func (s *MongoObservationStore) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}
