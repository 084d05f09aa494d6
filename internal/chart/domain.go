package chart

import (
	"errors"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/constraints"
)

// ErrEmptyDomain is returned when a series has no extent to chart
var ErrEmptyDomain = errors.New("empty domain: no points to chart")

// Domain is the date and value extent a chart spans
type Domain struct {
	MinDate  time.Time
	MaxDate  time.Time
	MaxValue float64
}

// DateFilter holds the optional user-supplied date bounds. A zero time means no bound.
type DateFilter struct {
	From time.Time
	To   time.Time
}

// filter inputs are accepted in these layouts, all interpreted as UTC
var filterLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// ParseFilterDate parses a date filter input. Anything unparseable yields the zero
// time, which ResolveDomain treats as an absent bound.
func ParseFilterDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range filterLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ResolveDomain computes the chart extent of a series. Valid overrides replace the
// series' own date extrema; the value maximum is always taken from the series.
func ResolveDomain(series TimeSeries, from, to time.Time) (Domain, error) {
	if len(series) == 0 {
		return Domain{}, ErrEmptyDomain
	}

	var (
		minDate, maxDate time.Time
		maxValue         = math.NaN()
	)
	for _, p := range series {
		if p.ValidDate() {
			if minDate.IsZero() || p.Date.Before(minDate) {
				minDate = p.Date
			}
			if maxDate.IsZero() || p.Date.After(maxDate) {
				maxDate = p.Date
			}
		}
		if finite(p.Value) {
			maxValue = nanMax(maxValue, p.Value)
		}
	}

	if !from.IsZero() {
		minDate = from
	}
	if !to.IsZero() {
		maxDate = to
	}
	if minDate.IsZero() || maxDate.IsZero() {
		return Domain{}, ErrEmptyDomain
	}
	if math.IsNaN(maxValue) {
		maxValue = 0
	}

	return Domain{MinDate: minDate, MaxDate: maxDate, MaxValue: maxValue}, nil
}

// nanMax returns the larger of a and b, preferring b when a is NaN
func nanMax[T constraints.Float](a, b T) T {
	if a != a || b > a {
		return b
	}
	return a
}

func finite[T constraints.Float](f T) bool {
	return f == f && f-f == 0
}

// plotSpan orders 0 and size along an axis of the given inner size
func plotSpan[T constraints.Float](size T) (lo, hi T) {
	if size < 0 {
		return size, 0
	}
	return 0, size
}
