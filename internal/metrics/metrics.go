// Package metrics holds the Prometheus collectors for the dashboard backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anomalydash"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups      *prometheus.CounterVec
	imageFetches      *prometheus.HistogramVec
	galleryLoads      *prometheus.CounterVec
	streamState       *prometheus.GaugeVec
	streamFrames      *prometheus.CounterVec
	streamDecodeFails prometheus.Counter
	streamReconnects  prometheus.Counter
	viewers           prometheus.Gauge
}

// New creates collectors on a private registry, plus Go runtime and process metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_cache_lookups_total",
				Help:      "Image loads by cache outcome",
			},
			[]string{"result"}, // hit, miss, shared
		),
		imageFetches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "image_fetch_duration_seconds",
				Help:      "Duration of origin image retrievals in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"status"}, // success, error
		),
		galleryLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gallery_loads_total",
				Help:      "Metadata list loads by outcome",
			},
			[]string{"status"},
		),
		streamState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_state",
				Help:      "1 for the current live stream state, 0 otherwise",
			},
			[]string{"state"},
		),
		streamFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_frames_total",
				Help:      "Decoded live frames by anomaly flag",
			},
			[]string{"anomaly"},
		),
		streamDecodeFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_decode_failures_total",
			Help:      "Inbound stream messages dropped as malformed",
		}),
		streamReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_reconnect_attempts_total",
			Help:      "Reconnection attempts made by the live stream",
		}),
		viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewers_connected",
			Help:      "Browser viewers attached to the event websocket",
		}),
	}

	reg.MustRegister(
		m.cacheLookups, m.imageFetches, m.galleryLoads, m.streamState,
		m.streamFrames, m.streamDecodeFails, m.streamReconnects, m.viewers,
	)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ImageFetch(status string, seconds float64) {
	if m == nil {
		return
	}
	m.imageFetches.WithLabelValues(status).Observe(seconds)
}

func (m *Metrics) GalleryLoad(status string) {
	if m == nil {
		return
	}
	m.galleryLoads.WithLabelValues(status).Inc()
}

// StreamState flips the gauge so exactly one state label reads 1.
func (m *Metrics) StreamState(current string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.streamState.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) StreamFrame(anomaly bool) {
	if m == nil {
		return
	}
	label := "false"
	if anomaly {
		label = "true"
	}
	m.streamFrames.WithLabelValues(label).Inc()
}

func (m *Metrics) StreamDecodeFailure() {
	if m == nil {
		return
	}
	m.streamDecodeFails.Inc()
}

func (m *Metrics) StreamReconnect() {
	if m == nil {
		return
	}
	m.streamReconnects.Inc()
}

func (m *Metrics) SetViewers(n int) {
	if m == nil {
		return
	}
	m.viewers.Set(float64(n))
}
