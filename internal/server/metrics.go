package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	reg *prometheus.Registry

	uploads   *prometheus.CounterVec // by result: ok, rejected, error
	toggles   *prometheus.CounterVec // by result: on, off, not_found, error
	favorites prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		reg: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediapage",
			Name:      "avatar_uploads_total",
			Help:      "Avatar upload attempts by result.",
		}, []string{"result"}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediapage",
			Name:      "favorite_toggles_total",
			Help:      "Favorite toggles by result.",
		}, []string{"result"}),
		favorites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mediapage",
			Name:      "favorites",
			Help:      "Tracks currently favorited.",
		}),
	}
	reg.MustRegister(m.uploads, m.toggles, m.favorites)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
