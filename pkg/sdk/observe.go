package trackapi

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	records    *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trackapi",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type, resource and status.",
		}, []string{"operation", "resource", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trackapi",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "resource"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trackapi",
			Subsystem: "sdk",
			Name:      "records_returned_total",
			Help:      "Records returned by SDK list calls.",
		}, []string{"resource"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.records); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("trackapi: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("trackapi: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for SDK operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// observe records one operation. resource is empty for client-wide calls such as ping;
// records is the number of records returned, ignored on error.
func (o *observer) observe(op, resource string, start time.Time, records int, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, resource, status).Inc()
		o.metrics.duration.WithLabelValues(op, resource).Observe(dur.Seconds())
		if err == nil && records > 0 {
			o.metrics.records.WithLabelValues(resource).Add(float64(records))
		}
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("operation failed",
			"op", op,
			"resource", resource,
			"duration", dur,
			"error", err,
		)
		return
	}
	o.logger.Debug("operation completed",
		"op", op,
		"resource", resource,
		"duration", dur,
		"records", records,
	)
}
