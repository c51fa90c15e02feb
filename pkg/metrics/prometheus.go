package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ingested   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	errorsTot  *prometheus.CounterVec
	lastValue  *prometheus.GaugeVec
	latency    *prometheus.HistogramVec
	forecasts  *prometheus.CounterVec
}

// New registers the AirCast collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		ingested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aircast_readings_ingested_total",
				Help: "Readings newly stored, by source",
			},
			[]string{"source"},
		),
		duplicates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aircast_readings_duplicate_total",
				Help: "Readings skipped because the timestamp was already stored",
			},
			[]string{"source"},
		),
		errorsTot: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aircast_errors_total",
				Help: "Errors encountered, by kind",
			},
			[]string{"type"},
		),
		lastValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aircast_last_pm25",
				Help: "Last ingested PM2.5 concentration (µg/m³)",
			},
			[]string{"location"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aircast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aircast_forecasts_total",
				Help: "Forecast requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordReadingIngested counts a newly stored reading.
func (r *Recorder) RecordReadingIngested(source string) {
	r.ingested.WithLabelValues(source).Inc()
}

// RecordDuplicate counts a reading dropped by timestamp deduplication.
func (r *Recorder) RecordDuplicate(source string) {
	r.duplicates.WithLabelValues(source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTot.WithLabelValues(kind).Inc()
}

// RecordLastValue sets the latest concentration for a location.
func (r *Recorder) RecordLastValue(locationID int64, value float64) {
	r.lastValue.WithLabelValues(strconv.FormatInt(locationID, 10)).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordForecast counts a forecast by outcome (ok, cached, or an error class).
func (r *Recorder) RecordForecast(outcome string) {
	r.forecasts.WithLabelValues(outcome).Inc()
}
