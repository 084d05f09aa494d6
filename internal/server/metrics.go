package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's collectors on a private registry
type Metrics struct {
	Registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	charts       *prometheus.CounterVec
	malformed    *prometheus.CounterVec
}

// NewMetrics creates and registers the server collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests processed, labeled by status code and method.",
			},
			[]string{"code", "method"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "Duration of HTTP requests.",
			},
			[]string{"handler", "method"},
		),
		charts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billchart_charts_rendered_total",
				Help: "Charts rendered, labeled by commodity and format.",
			},
			[]string{"commodity", "format"},
		),
		malformed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billchart_malformed_points_total",
				Help: "Records whose date or consumption could not be parsed.",
			},
			[]string{"commodity"},
		),
	}
	m.Registry.MustRegister(m.httpRequests, m.httpDuration, m.charts, m.malformed)
	return m
}
