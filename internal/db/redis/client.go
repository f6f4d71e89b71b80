// Package redis implements db.Store on Redis 8+ using RedisJSON documents
// and a search index with case-sensitive TAG fields.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/fieldops/trackapi/internal/db"
)

// Compile-time checks: Store implements db.Store and db.CollectionPreparer.
var (
	_ db.Store              = (*Store)(nil)
	_ db.CollectionPreparer = (*Store)(nil)
)

const (
	defaultKeyPrefix    = "trackapi:"
	defaultPageSize     = 500
	defaultQueryTimeout = 10 * time.Second
)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs        []string
	Username     string
	Password     string
	DB           int
	KeyPrefix    string        // default "trackapi:"
	PageSize     int           // FT.SEARCH LIMIT and SCAN/JSON.GET batch per round trip, default 500
	QueryTimeout time.Duration // per Find call, default 10s
}

// Store implements db.Store via rueidis.
type Store struct {
	client       rueidis.Client
	keyPrefix    string
	pageSize     int
	queryTimeout time.Duration
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg), nil
}

func newStore(client rueidis.Client, cfg Config) *Store {
	s := &Store{
		client:       client,
		keyPrefix:    cfg.KeyPrefix,
		pageSize:     cfg.PageSize,
		queryTimeout: cfg.QueryTimeout,
	}
	if s.keyPrefix == "" {
		s.keyPrefix = defaultKeyPrefix
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	if s.queryTimeout <= 0 {
		s.queryTimeout = defaultQueryTimeout
	}
	return s
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
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

// KeyPrefix returns the key prefix under which documents of coll must be stored.
func (s *Store) KeyPrefix(coll db.Collection) string {
	return s.keyPrefix + coll.String() + ":"
}

func (s *Store) indexName(coll db.Collection) string {
	return s.keyPrefix + "idx:" + coll.String()
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	ls := len(s)
	lsub := len(substr)
	if lsub > ls {
		return false
	}
	for i := 0; i <= ls-lsub; i++ {
		match := true
		for j := 0; j < lsub; j++ {
			sc := s[i+j]
			tc := substr[j]
			if sc >= 'A' && sc <= 'Z' {
				sc += 'a' - 'A'
			}
			if tc >= 'A' && tc <= 'Z' {
				tc += 'a' - 'A'
			}
			if sc != tc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
