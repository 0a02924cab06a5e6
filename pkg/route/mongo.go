package route

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pferrors "github.com/matzehuels/packetflow/pkg/errors"
)

// MongoConfig configures a MongoDB-backed route source.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration // per-operation timeout, default 5s
}

// mongoRoute is the stored document shape, one document per destination.
type mongoRoute struct {
	Destination string `bson:"destination"`
	Hops        []Hop  `bson:"hops"`
}

// MongoStore reads routes from a MongoDB collection.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, pferrors.New(pferrors.ErrCodeInvalidInput, "mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = "packetflow"
	}
	if cfg.Collection == "" {
		cfg.Collection = "routes"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeNetwork, err, "connect to mongo")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pferrors.Wrap(pferrors.ErrCodeNetwork, err, "ping mongo")
	}

	return &MongoStore{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: cfg.Timeout,
	}, nil
}

// Lookup fetches the route document for dest.
func (s *MongoStore) Lookup(ctx context.Context, dest string) ([]Hop, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc mongoRoute
	err := s.coll.FindOne(ctx, bson.M{"destination": dest}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pferrors.New(pferrors.ErrCodeRouteNotFound, "no route to %s", dest)
	}
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeNetwork, err, "find route %s", dest)
	}
	return doc.Hops, nil
}

// Destinations lists the distinct destinations in sorted order.
func (s *MongoStore) Destinations(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"destination": 1}).
		SetSort(bson.D{{Key: "destination", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, pferrors.Wrap(pferrors.ErrCodeNetwork, err, "list routes")
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc mongoRoute
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode route: %w", err)
		}
		out = append(out, doc.Destination)
	}
	return out, cur.Err()
}

// Put upserts the route for dest.
func (s *MongoStore) Put(ctx context.Context, dest string, hops []Hop) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"destination": dest},
		mongoRoute{Destination: dest, Hops: hops},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return pferrors.Wrap(pferrors.ErrCodeNetwork, err, "store route %s", dest)
	}
	return nil
}

// Import upserts every route of t.
func (s *MongoStore) Import(ctx context.Context, t Table) error {
	for dest, hops := range t {
		if err := s.Put(ctx, dest, hops); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Source = (*MongoStore)(nil)
