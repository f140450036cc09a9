package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CamerasInitialized = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediahub_cameras_initialized",
		Help: "Number of cameras in the active registry",
	})

	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediahub_queries_total",
		Help: "Total media queries executed, by query type",
	}, []string{"type"})

	QueryFragmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediahub_query_fragments_total",
		Help: "Per-engine query fragment outcomes",
	}, []string{"engine", "result"})

	QueryCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediahub_query_cache_hits_total",
		Help: "Query results served from cache, by cache layer",
	}, []string{"layer"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediahub_query_fanout_duration_seconds",
		Help:    "Wall time of a full query fan-out",
		Buckets: prometheus.DefBuckets,
	})

	MediaNotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediahub_media_notifications_total",
		Help: "Discovered-media notifications published",
	})
)
