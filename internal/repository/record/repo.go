package record

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fieldops/trackapi/internal/db"
	"github.com/fieldops/trackapi/internal/domain"
	"github.com/fieldops/trackapi/internal/domain/query"
	"github.com/fieldops/trackapi/internal/domain/resource"
	"github.com/fieldops/trackapi/internal/logger"
)

// store is the consumer interface for record reads (ISP).
type store interface {
	Find(ctx context.Context, coll db.Collection, f query.Filter) ([]domain.Record, error)
}

// Repo implements usecase/record.Repository on top of a db.Finder.
type Repo struct {
	store         store
	queryDuration *prometheus.HistogramVec
	recordsTotal  *prometheus.CounterVec
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// WithMetrics attaches storage metrics. queryDuration is labelled by resource and status,
// recordsTotal by resource. Either may be nil.
func (r *Repo) WithMetrics(queryDuration *prometheus.HistogramVec, recordsTotal *prometheus.CounterVec) *Repo {
	r.queryDuration = queryDuration
	r.recordsTotal = recordsTotal
	return r
}

// Find returns every record of res matching f. The storage key is never part of the result,
// whichever backend produced it.
func (r *Repo) Find(ctx context.Context, res resource.Resource, f query.Filter) ([]domain.Record, error) {
	coll := db.Collection{Database: res.Database(), Name: res.Collection()}

	start := time.Now()
	recs, err := r.store.Find(ctx, coll, f)
	r.observe(res.Name(), time.Since(start), err)
	if err != nil {
		logger.FromContext(ctx).Error("storage query failed",
			zap.String("resource", res.Name()),
			zap.Stringer("collection", coll),
			zap.Int("filters", len(f.Conditions())),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find %s: %w: %w", res.Name(), domain.ErrStorageUnavailable, err)
	}

	out := make([]domain.Record, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		out = append(out, rec.StripInternalKey())
	}

	if r.recordsTotal != nil {
		r.recordsTotal.WithLabelValues(res.Name()).Add(float64(len(out)))
	}
	return out, nil
}

func (r *Repo) observe(resourceName string, d time.Duration, err error) {
	if r.queryDuration == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.queryDuration.WithLabelValues(resourceName, status).Observe(d.Seconds())
}
