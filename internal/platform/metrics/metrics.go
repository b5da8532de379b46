// Package metrics provides Prometheus metrics for the friends feed service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedGenerationsTotal counts generateFeed calls by outcome (created, reused, rejected, failed).
	FeedGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendsfeed",
			Subsystem: "feed",
			Name:      "generations_total",
			Help:      "Total number of feed generation requests by outcome",
		},
		[]string{"outcome"},
	)

	// FeedGenerationDuration tracks end-to-end feed generation time.
	FeedGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "friendsfeed",
			Subsystem: "feed",
			Name:      "generation_duration_seconds",
			Help:      "Duration of feed generation in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// FeedProducts observes how many products a generated feed holds.
	FeedProducts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "friendsfeed",
			Subsystem: "feed",
			Name:      "products",
			Help:      "Number of combined products per generated feed",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// UploadsTotal counts finished upload jobs by terminal status.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendsfeed",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total number of processed uploads by terminal status",
		},
		[]string{"status"},
	)

	// UploadRowErrors counts row level problems found while ingesting.
	UploadRowErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendsfeed",
			Subsystem: "ingest",
			Name:      "row_errors_total",
			Help:      "Total number of row errors recorded during ingestion by kind",
		},
		[]string{"kind"},
	)

	// CatalogCacheLookups counts product cache hits and misses.
	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendsfeed",
			Subsystem: "catalog_cache",
			Name:      "lookups_total",
			Help:      "Total number of catalog cache lookups by result",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal tracks inbound HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendsfeed",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "friendsfeed",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)
