// Package mongo implements db.Store on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fieldops/trackapi/internal/db"
	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const (
	defaultDatabase     = "trackapi"
	defaultQueryTimeout = 10 * time.Second
	disconnectTimeout   = 5 * time.Second
)

// Config holds connection parameters for a MongoDB store.
type Config struct {
	URI             string
	DefaultDatabase string        // used when a collection names no database
	QueryTimeout    time.Duration // per Find call; 0 means 10s
	ConnectTimeout  time.Duration
}

// Store implements db.Store via the official MongoDB driver.
type Store struct {
	client       *mongodriver.Client
	open         func(db.Collection) collection
	ping         func(ctx context.Context) error
	defaultDB    string
	queryTimeout time.Duration
}

// NewStore creates a MongoDB store. The driver connects lazily; use WaitForReady
// to block until the server answers.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	client, err := mongodriver.Connect(ctx, opts)
	if err != nil {
		return nil, &db.Error{Op: db.OpConnect, Err: err}
	}

	s := newStore(cfg, func(c db.Collection) collection {
		return mongoCollection{coll: client.Database(c.Database).Collection(c.Name)}
	}, func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
	s.client = client
	return s, nil
}

func newStore(cfg Config, open func(db.Collection) collection, ping func(context.Context) error) *Store {
	defaultDB := cfg.DefaultDatabase
	if defaultDB == "" {
		defaultDB = defaultDatabase
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Store{
		open:         open,
		ping:         ping,
		defaultDB:    defaultDB,
		queryTimeout: timeout,
	}
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() {
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Find runs an equality query with the _id field projected out.
func (s *Store) Find(ctx context.Context, coll db.Collection, f query.Filter) ([]domain.Record, error) {
	if coll.Name == "" {
		return nil, errors.New("collection name is required")
	}
	if coll.Database == "" {
		coll.Database = s.defaultDB
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{domain.InternalKeyField: 0})
	cur, err := s.open(coll).Find(ctx, buildFilter(f), opts)
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: fmt.Errorf("%s: %w", coll, err)}
	}
	defer func() { _ = cur.Close(ctx) }()

	records := make([]domain.Record, 0)
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, &db.Error{Op: db.OpDecode, Err: fmt.Errorf("%s: %w", coll, err)}
		}
		records = append(records, domain.Record(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: fmt.Errorf("%s: %w", coll, err)}
	}
	return records, nil
}

// buildFilter translates a query.Filter into an implicit-AND equality document.
func buildFilter(f query.Filter) bson.D {
	doc := bson.D{}
	for _, c := range f.Conditions() {
		doc = append(doc, bson.E{Key: c.Field(), Value: c.Value()})
	}
	return doc
}

type collection interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error)
}

type cursor interface {
	Close(ctx context.Context) error
	Decode(val any) error
	Err() error
	Next(ctx context.Context) bool
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (cursor, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return cur, nil
}
