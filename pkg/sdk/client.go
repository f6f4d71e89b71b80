package trackapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/fieldops/trackapi/internal/db"
	dbMongo "github.com/fieldops/trackapi/internal/db/mongo"
	dbRedis "github.com/fieldops/trackapi/internal/db/redis"
	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/resource"
	recordrepo "github.com/fieldops/trackapi/internal/repository/record"
	healthuc "github.com/fieldops/trackapi/internal/usecase/health"
	recorduc "github.com/fieldops/trackapi/internal/usecase/record"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type recordUseCase interface {
	List(ctx context.Context, resourceName string, params url.Values) ([]domain.Record, error)
}

// Client is the trackapi SDK entry point.
type Client struct {
	store     db.Store
	recordSvc recordUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a trackapi Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		resources:        resource.Defaults(),
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.err != nil {
		return nil, fmt.Errorf("trackapi: %w", cfg.err)
	}

	if cfg.uri == "" && len(cfg.addrs) == 0 {
		return nil, errors.New("trackapi: database address required (use WithMongo or WithRedis)")
	}

	registry, err := resource.NewRegistry(cfg.resources...)
	if err != nil {
		return nil, fmt.Errorf("trackapi: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("trackapi: database not ready: %w", err)
	}

	if err := prepareCollections(ctx, store, registry); err != nil {
		store.Close()
		return nil, err
	}

	return wireClient(store, registry, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "mongo":
		s, err := dbMongo.NewStore(dbMongo.Config{
			URI:          cfg.uri,
			QueryTimeout: cfg.queryTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("trackapi: create mongo store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:        cfg.addrs,
			Password:     cfg.password,
			QueryTimeout: cfg.queryTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("trackapi: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("trackapi: unknown driver %q", cfg.driver)
	}
}

func prepareCollections(ctx context.Context, store db.Store, registry *resource.Registry) error {
	preparer, ok := store.(db.CollectionPreparer)
	if !ok {
		return nil
	}
	for _, res := range registry.All() {
		coll := db.Collection{Database: res.Database(), Name: res.Collection()}
		if err := preparer.PrepareCollection(ctx, coll, res.Fields()); err != nil {
			return fmt.Errorf("trackapi: prepare %s: %w", coll, err)
		}
	}
	return nil
}

func wireClient(store db.Store, registry *resource.Registry, obs *observer) *Client {
	return &Client{
		store:     store,
		recordSvc: recorduc.New(recordrepo.New(store), registry),
		healthSvc: healthuc.New(store),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, 0, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Personnel returns the record service for personnel.
func (c *Client) Personnel() *RecordService {
	return c.Resource("personnel")
}

// Vehicles returns the record service for vehicles.
func (c *Client) Vehicles() *RecordService {
	return c.Resource("vehicles")
}

// Resource returns the record service for any registered resource.
func (c *Client) Resource(name string) *RecordService {
	return &RecordService{resource: name, svc: c.recordSvc, obs: c.obs}
}
