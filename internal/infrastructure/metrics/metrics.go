package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ggpx",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ggpx",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	UploadGrantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ggpx",
			Subsystem: "api",
			Name:      "upload_grants_total",
			Help:      "Upload authorizations issued, by content type and outcome",
		},
		[]string{"content_type", "status"},
	)

	PostBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ggpx",
			Subsystem: "api",
			Name:      "post_batches_total",
			Help:      "Post creation batches, by outcome",
		},
		[]string{"status"},
	)

	PostsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ggpx",
			Subsystem: "api",
			Name:      "posts_created_total",
			Help:      "Posts persisted",
		},
	)

	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ggpx",
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Requests sent to the game catalog",
		},
		[]string{"resource", "status"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ggpx",
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Game catalog request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ggpx",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by key family and result",
		},
		[]string{"family", "result"},
	)

	OrphanedUploadsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ggpx",
			Subsystem: "uploads",
			Name:      "orphans_swept_total",
			Help:      "Orphaned upload ledger entries removed by the sweeper",
		},
	)
)

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordUploadGrant records an upload authorization attempt
func RecordUploadGrant(contentType, status string) {
	if contentType == "" {
		contentType = "unknown"
	}
	UploadGrantsTotal.WithLabelValues(contentType, status).Inc()
}

// RecordPostBatch records a post creation batch outcome
func RecordPostBatch(status string, created int) {
	PostBatchesTotal.WithLabelValues(status).Inc()
	if created > 0 {
		PostsCreatedTotal.Add(float64(created))
	}
}

// RecordCatalogRequest records a single catalog HTTP exchange
func RecordCatalogRequest(resource, status string, duration time.Duration) {
	CatalogRequestsTotal.WithLabelValues(resource, status).Inc()
	CatalogRequestDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(family string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(family, result).Inc()
}

// RecordOrphanSweep records how many orphaned uploads were removed
func RecordOrphanSweep(removed int) {
	OrphanedUploadsSwept.Add(float64(removed))
}
