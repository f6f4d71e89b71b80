package trackapi

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldops/trackapi/internal/domain/resource"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "mongo" or "redis"
	uri      string
	addrs    []string
	password string

	resources        []resource.Resource
	queryTimeout     time.Duration
	readinessTimeout time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer

	err error // first invalid option
}

// WithMongo reads records from a MongoDB deployment.
func WithMongo(uri string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "mongo"
		c.uri = uri
	})
}

// WithRedis reads records from a Redis 8+ instance holding RedisJSON documents.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithResource registers an extra resource, or rebinds personnel/vehicles when the name matches.
// fields nil means id, name, location, status, lastUpdate.
func WithResource(name, database, collection string, fields []string) Option {
	return optionFunc(func(c *clientConfig) {
		r, err := resource.New(name, database, collection, fields)
		if err != nil {
			c.err = err
			return
		}
		c.resources = upsertResource(c.resources, r)
	})
}

// WithQueryTimeout bounds each List call. Default: 10s.
func WithQueryTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = d
	})
}

// WithReadinessTimeout bounds the connection check in New. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

func upsertResource(list []resource.Resource, r resource.Resource) []resource.Resource {
	for i := range list {
		if list[i].Name() == r.Name() {
			list[i] = r
			return list
		}
	}
	return append(list, r)
}
