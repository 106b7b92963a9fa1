package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	uploads        *prometheus.CounterVec
	uploadBytes    *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
}

// New registers the upload metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asset_uploads_total",
			Help: "Upload attempts by asset class and outcome",
		}, []string{"class", "outcome"}),
		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asset_upload_bytes_total",
			Help: "Bytes written to the asset store",
		}, []string{"class", "variant"}),
		uploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asset_upload_duration_seconds",
			Help:    "Time spent in the upload pipeline",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"class"}),
	}
	reg.MustRegister(m.uploads, m.uploadBytes, m.uploadDuration)
	return m
}

// ObserveUpload records one pipeline run. A nil receiver is a no-op.
func (m *Metrics) ObserveUpload(class, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(class, outcome).Inc()
	m.uploadDuration.WithLabelValues(class).Observe(took.Seconds())
}

func (m *Metrics) AddStoredBytes(class, variant string, n int64) {
	if m == nil {
		return
	}
	m.uploadBytes.WithLabelValues(class, variant).Add(float64(n))
}

// Handler returns an http.Handler for Prometheus scraping
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
