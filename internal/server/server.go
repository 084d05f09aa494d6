// Package server exposes stored bill data and rendered charts over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jgoulah/billchart/internal/chart"
	"github.com/jgoulah/billchart/pkg/models"
)

const datasetSuffix = "-bill-data"

// RecordStore is where the server reads records from
type RecordStore interface {
	ListRecords(kind models.Commodity) ([]models.RawRecord, error)
}

// Server implements the bill-data API and chart endpoint
type Server struct {
	store   RecordStore
	addr    string
	layout  chart.Layout
	log     logrus.FieldLogger
	metrics *Metrics
	server  *http.Server
}

// NewServer creates a new server
func NewServer(addr string, store RecordStore, layout chart.Layout, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		store:   store,
		addr:    addr,
		layout:  layout,
		log:     log,
		metrics: NewMetrics(),
	}
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler builds the routed, instrumented and compressed handler tree
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /monitoring/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /monitoring/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	mux.Handle("GET /api/{dataset}", s.instrument("api", s.handleRecords))
	mux.Handle("GET /chart/{commodity}", s.instrument("chart", s.handleChart))

	return gzhttp.GzipHandler(mux)
}

func (s *Server) instrument(name string, h http.HandlerFunc) http.Handler {
	return promhttp.InstrumentHandlerDuration(
		s.metrics.httpDuration.MustCurryWith(prometheus.Labels{"handler": name}),
		promhttp.InstrumentHandlerCounter(s.metrics.httpRequests, h),
	)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.WithField("addr", s.addr).Info("starting server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleRecords serves GET /api/<commodity>-bill-data
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	dataset := r.PathValue("dataset")
	name, ok := strings.CutSuffix(dataset, datasetSuffix)
	if !ok {
		http.NotFound(w, r)
		return
	}
	kind, err := models.ParseCommodity(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	records, err := s.store.ListRecords(kind)
	if err != nil {
		s.log.WithError(err).WithField("commodity", kind).Warn("failed to list records")
		http.Error(w, "failed to load records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.RawRecord{}
	}

	body, err := json.Marshal(records, json.Deterministic(true))
	if err != nil {
		s.log.WithError(err).Warn("failed to encode records")
		http.Error(w, "failed to encode records", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// chartParams are the query parameters of the chart endpoint
type chartParams struct {
	filter chart.DateFilter
	layout chart.Layout
	format chart.Format
}

func (s *Server) parseChartParams(r *http.Request) (chartParams, error) {
	q := r.URL.Query()
	p := chartParams{
		filter: chart.DateFilter{
			From: chart.ParseFilterDate(q.Get("from")),
			To:   chart.ParseFilterDate(q.Get("to")),
		},
		layout: s.layout,
	}

	format, err := chart.ParseFormat(q.Get("format"))
	if err != nil {
		return p, err
	}
	p.format = format

	if v := q.Get("width"); v != "" {
		w, err := parseDimension(v)
		if err != nil {
			return p, fmt.Errorf("invalid 'width' parameter: %w", err)
		}
		p.layout.Width = w
		s.log.Debugf("Overriding width to: %v", w)
	}
	if v := q.Get("height"); v != "" {
		h, err := parseDimension(v)
		if err != nil {
			return p, fmt.Errorf("invalid 'height' parameter: %w", err)
		}
		p.layout.Height = h
		p.layout.Strategy = chart.HeightFixed
		s.log.Debugf("Overriding height to: %v", h)
	}
	return p, nil
}

func parseDimension(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if !(f > 0) || f > 10000 {
		return 0, fmt.Errorf("must be between 0 and 10000, got %s", v)
	}
	return f, nil
}

// handleChart serves GET /chart/<commodity>
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseCommodity(r.PathValue("commodity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	params, err := s.parseChartParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log := s.log.WithFields(logrus.Fields{"commodity": kind, "format": params.format})

	records, err := s.store.ListRecords(kind)
	if err != nil {
		log.WithError(err).Warn("failed to list records")
		http.Error(w, "failed to load records", http.StatusInternalServerError)
		return
	}

	canvas := chart.NewCanvas()
	res, err := chart.NewRenderer(params.layout, log).RenderCommodity(canvas, kind, records, params.filter)
	if res.Malformed > 0 {
		s.metrics.malformed.WithLabelValues(kind.String()).Add(float64(res.Malformed))
	}
	if errors.Is(err, chart.ErrEmptyDomain) {
		http.Error(w, fmt.Sprintf("no bill data for %s", kind), http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).Warn("failed to render chart")
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := chart.Write(canvas, params.format, &buf); err != nil {
		log.WithError(err).Warn("failed to encode chart")
		http.Error(w, "failed to encode chart", http.StatusInternalServerError)
		return
	}
	s.metrics.charts.WithLabelValues(kind.String(), string(params.format)).Inc()

	log.WithField("points", res.Stats.Points).Debug("chart served")
	w.Header().Set("Content-Type", params.format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}
