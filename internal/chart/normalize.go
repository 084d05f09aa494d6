// Package chart turns bill-data records into scaled line-chart geometry.
package chart

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/billchart/pkg/models"
)

// TimePoint is one normalized sample. An invalid date is the zero time, an invalid value is NaN.
type TimePoint struct {
	Date  time.Time
	Value float64
}

// ValidDate reports whether the point carries a usable date
func (p TimePoint) ValidDate() bool {
	return !p.Date.IsZero()
}

// Malformed reports whether the point cannot be placed on a chart
func (p TimePoint) Malformed() bool {
	return !p.ValidDate() || math.IsNaN(p.Value) || math.IsInf(p.Value, 0)
}

// TimeSeries is an ordered sequence of points
type TimeSeries []TimePoint

// Sort orders the series in place by ascending date. Points with an invalid date
// go after every valid point and keep their relative order.
func (s TimeSeries) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if !a.ValidDate() || !b.ValidDate() {
			return a.ValidDate() && !b.ValidDate()
		}
		return a.Date.Before(b.Date)
	})
}

// Malformed counts the points that cannot be drawn
func (s TimeSeries) Malformed() int {
	n := 0
	for _, p := range s {
		if p.Malformed() {
			n++
		}
	}
	return n
}

// Normalize converts raw records into a time series using the descriptor's value field.
// Records keep their input order. The second result is the number of malformed points.
func Normalize(records []models.RawRecord, d models.Descriptor) (TimeSeries, int) {
	series := make(TimeSeries, 0, len(records))
	malformed := 0
	for _, r := range records {
		p := TimePoint{
			Date:  monthDate(coerce(r, models.FieldYear), coerce(r, models.FieldMonth)),
			Value: coerce(r, d.ValueField),
		}
		if p.Malformed() {
			malformed++
		}
		series = append(series, p)
	}
	return series, malformed
}

func coerce(r models.RawRecord, field string) float64 {
	s, ok := r[field]
	if !ok {
		return math.NaN()
	}
	return toNumber(s)
}

// toNumber converts a string the way a loose numeric cast does: blank is zero,
// unparseable is NaN.
func toNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			n, err := strconv.ParseUint(s, 0, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "inf", "infinity", "nan":
		return math.NaN()
	}
	if strings.ContainsAny(s, "_xXpP") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// calendar limits of a representable date
const maxYear = 275760

// monthDate combines a year and a zero-indexed month into the first day of that month (UTC)
func monthDate(year, month float64) time.Time {
	if math.IsNaN(year) || math.IsNaN(month) || math.IsInf(year, 0) || math.IsInf(month, 0) {
		return time.Time{}
	}
	y, m := math.Trunc(year), math.Trunc(month)
	if math.Abs(y+math.Floor(m/12)) > maxYear {
		return time.Time{}
	}
	return time.Date(int(y), time.Month(int(m)+1), 1, 0, 0, 0, 0, time.UTC)
}
