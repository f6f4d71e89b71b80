package db

import (
	"context"
	"time"

	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
)

// Store is the database facade used by the composition root.
type Store interface {
	Pinger
	Finder
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Collection addresses one stored collection.
type Collection struct {
	Database string
	Name     string
}

// String returns database.collection.
func (c Collection) String() string {
	if c.Database == "" {
		return c.Name
	}
	return c.Database + "." + c.Name
}

// Finder runs equality-filtered reads.
type Finder interface {
	// Find returns every record in coll matching f, in storage order,
	// without the storage-assigned key.
	Find(ctx context.Context, coll Collection, f query.Filter) ([]domain.Record, error)
}

// CollectionPreparer is implemented by stores that need per-collection setup
// (search indexes) before Find can be served.
type CollectionPreparer interface {
	PrepareCollection(ctx context.Context, coll Collection, fields []string) error
}
