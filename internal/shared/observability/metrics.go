package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ContentFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repo2text_content_fetches_total",
		Help: "Content fetches issued against a source, by source kind and outcome.",
	}, []string{"source", "outcome"})

	ContentCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repo2text_content_cache_hits_total",
		Help: "Content lookups served from a resolution-scoped cache.",
	})

	SourceCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repo2text_source_cache_hits_total",
		Help: "Content lookups served from a source-level cache.",
	}, []string{"source"})

	ListingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repo2text_listing_seconds",
		Help:    "Time spent building a file catalog from a source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	ResolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "repo2text_resolution_seconds",
		Help:    "Time spent resolving the dependency closure of a root file.",
		Buckets: prometheus.DefBuckets,
	})

	ResolvedFiles = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "repo2text_resolved_files",
		Help:    "Number of files in a resolved dependency closure.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	DocumentsRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repo2text_documents_rendered_total",
		Help: "Total number of context documents rendered.",
	})

	DocumentBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "repo2text_document_bytes",
		Help:    "Size of rendered context documents.",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})

	SecretsRedactedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repo2text_secrets_redacted_total",
		Help: "Total number of secrets masked in rendered documents, by kind.",
	}, []string{"kind"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repo2text_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
