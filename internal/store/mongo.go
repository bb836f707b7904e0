package store

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
)

// MongoConfig locates the experiments collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore serves records from a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects and pings the deployment so misconfiguration fails
// at startup rather than on first request.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Load returns every record in the collection.
func (s *MongoStore) Load(ctx context.Context) ([]graph.Record, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "query experiments")
	}
	defer cur.Close(ctx)

	var records []graph.Record
	if err := cur.All(ctx, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode experiments")
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
	}
	return records, nil
}

// Import bulk-inserts records, assigning IDs where missing. Used by the CLI
// to seed a collection from a JSON file.
func (s *MongoStore) Import(ctx context.Context, records []graph.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		docs = append(docs, r)
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "insert experiments")
	}
	return nil
}

// Close disconnects from the deployment.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
