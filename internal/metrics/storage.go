package metrics

import "github.com/prometheus/client_golang/prometheus"

// Storage Prometheus metrics.
var (
	StorageQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trackapi",
			Name:      "storage_query_duration_seconds",
			Help:      "Storage query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"resource", "status"},
	)

	RecordsReturnedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trackapi",
			Name:      "records_returned_total",
			Help:      "Total records returned to clients",
		},
		[]string{"resource"},
	)
)

var storageMetricsRegistered bool

// RegisterStorageMetrics registers Prometheus storage metrics. Must be called once from main.
func RegisterStorageMetrics() {
	if storageMetricsRegistered {
		return
	}
	prometheus.MustRegister(StorageQueryDuration)
	prometheus.MustRegister(RecordsReturnedTotal)
	storageMetricsRegistered = true
}
