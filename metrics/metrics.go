// Package metrics exposes Prometheus collectors for the derivation
// pipeline: refresh outcomes, per-stage errors, and the diagnostic
// counters (stops dropped, predictions matched) the host observes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	RefreshTotal    *prometheus.CounterVec // result label: success|failure|no_service
	StageErrors     *prometheus.CounterVec // stage label: fetch_static|fetch_realtime|resolve
	RefreshDuration prometheus.Histogram

	StopsDropped        prometheus.Counter
	PredictionsMatched  prometheus.Counter
	FeedEntitiesSkipped prometheus.Counter
	MalformedFeeds      *prometheus.CounterVec // resource label

	TimelineStops    *prometheus.GaugeVec // route_id, direction_id labels
	RealTimeStops    *prometheus.GaugeVec
	ActiveVehicles   *prometheus.GaugeVec
	LastRefreshEpoch *prometheus.GaugeVec
}

var keyLabels = []string{"route_id", "direction_id"}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_refresh_total",
			Help: "Refresh cycles by outcome.",
		}, []string{"result"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_stage_errors_total",
			Help: "Errors per pipeline stage.",
		}, []string{"stage"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "explorer_refresh_duration_seconds",
			Help:    "Duration of one refresh cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		StopsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "explorer_stops_dropped_total",
			Help: "Stop_times excluded because their stop_id has no stops entry.",
		}),
		PredictionsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "explorer_predictions_matched_total",
			Help: "Real-time predictions matched to pattern stops.",
		}),
		FeedEntitiesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "explorer_feed_entities_skipped_total",
			Help: "Feed entities that failed to decode individually.",
		}),
		MalformedFeeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "explorer_malformed_feeds_total",
			Help: "Feed payloads with an unrecognized shape.",
		}, []string{"resource"}),
		TimelineStops: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "explorer_timeline_stops",
			Help: "Stops in the most recently built timeline, per route+direction.",
		}, keyLabels),
		RealTimeStops: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "explorer_timeline_realtime_stops",
			Help: "Stops with live predictions in the most recent timeline, per route+direction.",
		}, keyLabels),
		ActiveVehicles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "explorer_active_vehicles",
			Help: "Vehicles reported per watched route+direction.",
		}, keyLabels),
		LastRefreshEpoch: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "explorer_last_refresh_epoch",
			Help: "Unix time of the last successful refresh, per route+direction.",
		}, keyLabels),
	}

	reg.MustRegister(
		c.RefreshTotal, c.StageErrors, c.RefreshDuration,
		c.StopsDropped, c.PredictionsMatched, c.FeedEntitiesSkipped, c.MalformedFeeds,
		c.TimelineStops, c.RealTimeStops, c.ActiveVehicles, c.LastRefreshEpoch,
	)
	return c
}

// Handler serves the registry in Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
