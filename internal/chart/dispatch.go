package chart

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jgoulah/billchart/pkg/models"
)

// ErrUnknownCommodity is returned for a commodity outside the descriptor table
var ErrUnknownCommodity = errors.New("unknown commodity")

// Result summarizes one RenderCommodity call
type Result struct {
	Commodity models.Commodity
	Surface   Surface
	Domain    Domain
	Scales    Scales
	Stats     Stats
	// points that failed numeric coercion during normalization
	Malformed int
}

// Renderer runs the normalize, resolve, scale and compose steps for a commodity
type Renderer struct {
	Layout Layout
	Log    logrus.FieldLogger
}

// NewRenderer creates a renderer with the given layout
func NewRenderer(layout Layout, log logrus.FieldLogger) *Renderer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Renderer{Layout: layout, Log: log}
}

// RenderCommodity draws the chart for one commodity's records onto c. Unknown
// commodities and empty domains return an error and leave c untouched.
func (r *Renderer) RenderCommodity(c *Canvas, kind models.Commodity, records []models.RawRecord, filter DateFilter) (Result, error) {
	desc, ok := kind.Descriptor()
	if !ok {
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownCommodity, kind)
	}

	series, malformed := Normalize(records, desc)
	series.Sort()

	log := r.logger().WithField("commodity", desc.Name)
	if malformed > 0 {
		log.WithField("malformed", malformed).Warn("records with unparseable date or consumption")
	}

	domain, err := ResolveDomain(series, filter.From, filter.To)
	if err != nil {
		return Result{Commodity: kind, Malformed: malformed}, fmt.Errorf("resolving %s domain: %w", desc.Name, err)
	}

	surface := r.Layout.SurfaceFor(len(series))
	scales := BuildScales(domain, surface)
	stats := Compose(c, surface, series, scales, LabelsFor(desc))

	log.WithFields(logrus.Fields{
		"points":  stats.Points,
		"markers": stats.Markers,
		"width":   surface.Width,
		"height":  surface.Height,
	}).Debug("chart composed")

	return Result{
		Commodity: kind,
		Surface:   surface,
		Domain:    domain,
		Scales:    scales,
		Stats:     stats,
		Malformed: malformed,
	}, nil
}

func (r *Renderer) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
