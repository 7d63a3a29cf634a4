package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xbrowse_search_requests_total",
		Help: "Search requests by data type and outcome.",
	}, []string{"data_type", "status"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xbrowse_search_duration_seconds",
		Help:    "End to end search latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"data_type"})

	lookupRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xbrowse_lookup_requests_total",
		Help: "Variant lookup requests by data type and outcome.",
	}, []string{"data_type", "status"})
)
