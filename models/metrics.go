package models

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	indexLabel = "index"
	queryLabel = "query"

	queryCircle = "circle"
	queryAll    = "all"
)

var (
	indexCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "index_count",
		Help: "The number of indexes.",
	})

	indexCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "index_count_total",
		Help: "The total number of created indexes.",
	})

	pointsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadtree_points_inserted_total",
		Help: "The number of points stored in an index.",
	}, []string{indexLabel})

	pointsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadtree_points_dropped_total",
		Help: "The number of points dropped because they were outside of an index bounds.",
	}, []string{indexLabel})

	queryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "quadtree_query_latency",
		Help: "The time to run a query on an index.",
	}, []string{indexLabel, queryLabel})

	queryResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quadtree_query_results",
		Help:    "The number of points returned by a query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{indexLabel, queryLabel})
)

func instrumentIncreaseIndexGauge() {
	indexCount.Inc()
	indexCountTotal.Inc()
}

func instrumentDecreaseIndexGauge() {
	indexCount.Dec()
}

// instrumentRemoveIndex deletes the series labelled with a removed index.
func instrumentRemoveIndex(index string) {
	pointsInserted.DeleteLabelValues(index)
	pointsDropped.DeleteLabelValues(index)

	labels := prometheus.Labels{indexLabel: index}
	queryLatency.DeletePartialMatch(labels)
	queryResults.DeletePartialMatch(labels)
}

func instrumentInsert(index string, inserted bool) {
	if !inserted {
		pointsDropped.
			With(prometheus.Labels{indexLabel: index}).
			Inc()
		return
	}

	pointsInserted.
		With(prometheus.Labels{indexLabel: index}).
		Inc()
}

func instrumentQuery(index, query string, start time.Time, results int) {
	labels := prometheus.Labels{
		indexLabel: index,
		queryLabel: query,
	}

	queryLatency.With(labels).Observe(time.Since(start).Seconds())
	queryResults.With(labels).Observe(float64(results))
}
