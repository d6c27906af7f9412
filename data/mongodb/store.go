// Package mongodb provides the document store used by apikit services.
//
// Store is constructed explicitly and passed to the code that needs it; there
// is no package-level connection. Collections are created on first access so
// services can start against an empty database.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mentorhub/apikit/logging/logger"
)

const (
	defaultServerSelectionTimeout = 2 * time.Second
	defaultSocketTimeout          = 5 * time.Second
)

// Config holds document store connection settings.
type Config struct {
	URI      string
	Database string

	// Zero values fall back to the package defaults above.
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
}

func (c *Config) validate() error {
	if c == nil || c.URI == "" {
		return errors.New("mongodb: connection URI is required")
	}
	if c.Database == "" {
		return errors.New("mongodb: database name is required")
	}
	return nil
}

func (c *Config) normalize() {
	if c.ServerSelectionTimeout == 0 {
		c.ServerSelectionTimeout = defaultServerSelectionTimeout
	}
	if c.SocketTimeout == 0 {
		c.SocketTimeout = defaultSocketTimeout
	}
}

// Store wraps a MongoDB database handle with the document operations the
// HTTP layer needs.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logger.Logger
}

// New connects to MongoDB, pings it, and returns a ready Store.
func New(ctx context.Context, cfg *Config, log *logger.Logger) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	if log == nil {
		log = logger.StdLogger()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetSocketTimeout(cfg.SocketTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb: ping error: %w", err)
	}

	log.Info(ctx, "Connected to MongoDB", "database", cfg.Database)

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
		logger: log,
	}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb: disconnect error: %w", err)
	}
	s.logger.Info(ctx, "Disconnected from MongoDB")
	return nil
}

// Health pings the server.
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Collection returns the named collection, creating it when absent.
func (s *Store) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return nil, fmt.Errorf("mongodb: failed to list collections: %w", err)
	}
	if len(names) == 0 {
		if err := s.db.CreateCollection(ctx, name); err != nil {
			// A concurrent creator winning the race is fine.
			var cmdErr mongo.CommandError
			if !(errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists") {
				return nil, fmt.Errorf("mongodb: failed to create collection %s: %w", name, err)
			}
		} else {
			s.logger.Info(ctx, "Created collection", "collection", name)
		}
	}
	return s.db.Collection(name), nil
}

// DropCollection drops the named collection. It reports whether the
// collection existed.
func (s *Store) DropCollection(ctx context.Context, name string) (bool, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, fmt.Errorf("mongodb: failed to list collections: %w", err)
	}
	if len(names) == 0 {
		return false, nil
	}
	if err := s.db.Collection(name).Drop(ctx); err != nil {
		return false, fmt.Errorf("mongodb: failed to drop collection %s: %w", name, err)
	}
	s.logger.Info(ctx, "Dropped collection", "collection", name)
	return true, nil
}

// CreateDocument inserts a document and returns the hex id it was assigned.
func (s *Store) CreateDocument(ctx context.Context, collection string, document any) (string, error) {
	coll, err := s.Collection(ctx, collection)
	if err != nil {
		return "", err
	}
	result, err := coll.InsertOne(ctx, document)
	if err != nil {
		return "", fmt.Errorf("mongodb: failed to create document: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", result.InsertedID), nil
}

// GetDocument fetches a single document by its hex id. A missing document is
// (nil, nil), not an error.
func (s *Store) GetDocument(ctx context.Context, collection, id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("mongodb: invalid document id %q", id)
	}

	coll, err := s.Collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: failed to get document: %w", err)
	}
	return doc, nil
}

// GetDocuments fetches all documents matching match, optionally projected and
// sorted. A nil match fetches everything.
func (s *Store) GetDocuments(ctx context.Context, collection string, match bson.M, project bson.M, sort bson.D) ([]bson.M, error) {
	coll, err := s.Collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	if match == nil {
		match = bson.M{}
	}
	opts := options.Find()
	if project != nil {
		opts.SetProjection(project)
	}
	if sort != nil {
		opts.SetSort(sort)
	}

	cursor, err := coll.Find(ctx, match, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: failed to query collection %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: failed to decode documents: %w", err)
	}
	return docs, nil
}
