package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphql",
		Name:      "requests_total",
		Help:      "GraphQL HTTP requests, by operation type and HTTP status.",
	}, []string{"operation", "status"})

	metricPayloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphql",
		Name:      "incremental_payloads_total",
		Help:      "Incremental-delivery payloads written, by kind (initial, patch, terminator).",
	}, []string{"kind"})

	metricRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "graphql",
		Name:      "request_duration_seconds",
		Help:      "Wall time of GraphQL HTTP requests, incremental delivery included.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
	})
)

func init() {
	prometheus.MustRegister(metricRequests, metricPayloads, metricRequestDuration)
}
