package chart

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultTickCount is the approximate number of ticks scales aim for
const DefaultTickCount = 10

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Scales pairs the horizontal time scale with the vertical value scale
type Scales struct {
	X TimeScale
	Y LinearScale
}

// BuildScales maps the domain onto the inner plotting rectangle of the surface.
// The value axis is inverted so larger values draw higher. A negative inner size
// (a surface smaller than its margins) extends the range the other way from the
// plot origin, so later dates still map right and larger values still map up.
func BuildScales(d Domain, s Surface) Scales {
	x0, x1 := plotSpan(s.InnerWidth())
	y0, y1 := plotSpan(s.InnerHeight())
	return Scales{
		X: NewTimeScale(d.MinDate, d.MaxDate, x0, x1).Nice(DefaultTickCount),
		Y: NewLinearScale(0, d.MaxValue, y1, y0).Nice(DefaultTickCount),
	}
}

// LinearScale maps a continuous value interval onto a pixel interval
type LinearScale struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinearScale creates a scale mapping [d0, d1] onto [r0, r1]
func NewLinearScale(d0, d1, r0, r1 float64) LinearScale {
	return LinearScale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Domain returns the (possibly niced) domain bounds
func (s LinearScale) Domain() (float64, float64) { return s.d0, s.d1 }

// Range returns the pixel bounds
func (s LinearScale) Range() (float64, float64) { return s.r0, s.r1 }

// Map returns the pixel position of v. A zero-width domain maps everything to the
// range start, the zero baseline of a value axis.
func (s LinearScale) Map(v float64) float64 {
	if s.d1 == s.d0 {
		return s.r0
	}
	t := (v - s.d0) / (s.d1 - s.d0)
	return s.r0 + t*(s.r1-s.r0)
}

// Nice extends the domain to multiples of the tick step for roughly count ticks
func (s LinearScale) Nice(count int) LinearScale {
	start, stop := s.d0, s.d1
	reversed := stop < start
	if reversed {
		start, stop = stop, start
	}
	if start == stop || !finite(start) || !finite(stop) {
		return s
	}

	var prestep float64
loop:
	for i := 0; i < 10; i++ {
		step := tickIncrement(start, stop, count)
		if step == prestep {
			break
		}
		switch {
		case step > 0:
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		case step < 0:
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		default:
			break loop
		}
		prestep = step
	}

	if reversed {
		start, stop = stop, start
	}
	s.d0, s.d1 = start, stop
	return s
}

// Ticks returns roughly count round values spanning the domain
func (s LinearScale) Ticks(count int) []float64 {
	return ticks(s.d0, s.d1, count)
}

// TickFormat formats tick values with thousands separators and just enough
// decimals for the tick step.
func (s LinearScale) TickFormat(count int) func(float64) string {
	lo, hi := s.d0, s.d1
	if hi < lo {
		lo, hi = hi, lo
	}
	precision := 0
	if step := tickStepSize(lo, hi, count); step > 0 && finite(step) {
		precision = max(0, -int(math.Floor(math.Log10(step))))
	}
	return func(v float64) string {
		return humanize.CommafWithDigits(v, precision)
	}
}

// tickIncrement returns the tick step for [start, stop]; negative results are
// inverted steps (-10 means 0.1) so fractional steps stay exact.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

// tickStepSize is tickIncrement expressed as a plain (positive) step
func tickStepSize(start, stop float64, count int) float64 {
	reversed := stop < start
	var inc float64
	if reversed {
		inc = tickIncrement(stop, start, count)
	} else {
		inc = tickIncrement(start, stop, count)
	}
	if inc < 0 {
		inc = 1 / -inc
	}
	if reversed {
		return -inc
	}
	return inc
}

func ticks(start, stop float64, count int) []float64 {
	if count <= 0 || !finite(start) || !finite(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reversed := stop < start
	if reversed {
		start, stop = stop, start
	}
	step := tickIncrement(start, stop, count)
	if step == 0 || !finite(step) {
		return nil
	}

	var out []float64
	if step > 0 {
		for i := math.Ceil(start / step); i <= math.Floor(stop/step); i++ {
			out = append(out, i*step)
		}
	} else {
		inv := -step
		for i := math.Ceil(start * inv); i <= math.Floor(stop*inv); i++ {
			out = append(out, i/inv)
		}
	}

	if reversed {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// TimeScale maps a date interval onto a pixel interval
type TimeScale struct {
	d0, d1 time.Time
	r0, r1 float64
}

// NewTimeScale creates a scale mapping [d0, d1] onto [r0, r1]
func NewTimeScale(d0, d1 time.Time, r0, r1 float64) TimeScale {
	return TimeScale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Domain returns the (possibly niced) date bounds
func (s TimeScale) Domain() (time.Time, time.Time) { return s.d0, s.d1 }

// Range returns the pixel bounds
func (s TimeScale) Range() (float64, float64) { return s.r0, s.r1 }

// Map returns the pixel position of t. Identical domain bounds collapse every
// date onto the middle of the range.
func (s TimeScale) Map(t time.Time) float64 {
	a, b := msec(s.d0), msec(s.d1)
	if a == b {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (msec(t)-a)/(b-a)*(s.r1-s.r0)
}

// Nice extends the domain outward to the boundaries of the calendar interval
// used for roughly count ticks.
func (s TimeScale) Nice(count int) TimeScale {
	lo, hi := s.d0, s.d1
	reversed := hi.Before(lo)
	if reversed {
		lo, hi = hi, lo
	}
	if lo.Equal(hi) {
		return s
	}
	iv := chooseInterval(lo, hi, count)
	lo, hi = iv.floor(lo), iv.ceil(hi)
	if reversed {
		lo, hi = hi, lo
	}
	s.d0, s.d1 = lo, hi
	return s
}

// maxTimeTicks bounds tick generation on pathological domains
const maxTimeTicks = 1000

// Ticks returns calendar-aligned dates spanning the domain
func (s TimeScale) Ticks(count int) []time.Time {
	lo, hi := s.d0, s.d1
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	if count <= 0 {
		return nil
	}
	if lo.Equal(hi) {
		return []time.Time{lo}
	}
	iv := chooseInterval(lo, hi, count)
	var out []time.Time
	for t := iv.ceil(lo); !t.After(hi) && len(out) < maxTimeTicks; t = iv.floor(iv.offset(t, 1)) {
		out = append(out, t)
	}
	return out
}

// TickFormat picks the coarsest label that still distinguishes t: a year, a
// month name, a day, an hour or a time of day.
func (s TimeScale) TickFormat(t time.Time) string {
	t = t.UTC()
	switch {
	case t.Nanosecond() != 0:
		return t.Format(".000")
	case t.Second() != 0:
		return t.Format(":05")
	case t.Minute() != 0:
		return t.Format("03:04")
	case t.Hour() != 0:
		return t.Format("03 PM")
	case t.Day() != 1:
		if t.Weekday() != time.Sunday {
			return t.Format("Mon 02")
		}
		return t.Format("Jan 02")
	case t.Month() != time.January:
		return t.Format("January")
	default:
		return t.Format("2006")
	}
}

func msec(t time.Time) float64 {
	return float64(t.UnixMilli())
}
