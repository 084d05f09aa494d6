package chart

import (
	"math"
	"sort"
	"time"
)

type intervalUnit int

const (
	unitMillisecond intervalUnit = iota
	unitSecond
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonth
	unitYear
)

const (
	durationSecond = 1e3
	durationMinute = durationSecond * 60
	durationHour   = durationMinute * 60
	durationDay    = durationHour * 24
	durationWeek   = durationDay * 7
	durationMonth  = durationDay * 30
	durationYear   = durationDay * 365
)

// timeInterval is a calendar-aligned step of step units
type timeInterval struct {
	unit intervalUnit
	step int
	// approximate length in milliseconds
	size float64
}

var tickIntervals = []timeInterval{
	{unitSecond, 1, durationSecond},
	{unitSecond, 5, 5 * durationSecond},
	{unitSecond, 15, 15 * durationSecond},
	{unitSecond, 30, 30 * durationSecond},
	{unitMinute, 1, durationMinute},
	{unitMinute, 5, 5 * durationMinute},
	{unitMinute, 15, 15 * durationMinute},
	{unitMinute, 30, 30 * durationMinute},
	{unitHour, 1, durationHour},
	{unitHour, 3, 3 * durationHour},
	{unitHour, 6, 6 * durationHour},
	{unitHour, 12, 12 * durationHour},
	{unitDay, 1, durationDay},
	{unitDay, 2, 2 * durationDay},
	{unitWeek, 1, durationWeek},
	{unitMonth, 1, durationMonth},
	{unitMonth, 3, 3 * durationMonth},
	{unitYear, 1, durationYear},
}

// chooseInterval picks the interval whose length is closest to span/count
func chooseInterval(lo, hi time.Time, count int) timeInterval {
	start, stop := msec(lo), msec(hi)
	target := math.Abs(stop-start) / float64(count)
	i := sort.Search(len(tickIntervals), func(i int) bool {
		return tickIntervals[i].size > target
	})
	switch {
	case i == len(tickIntervals):
		step := tickStepSize(start/durationYear, stop/durationYear, count)
		return timeInterval{unitYear, max(1, int(math.Abs(step))), durationYear}
	case i == 0:
		step := tickStepSize(start, stop, count)
		return timeInterval{unitMillisecond, max(1, int(math.Abs(step))), 1}
	}
	if target/tickIntervals[i-1].size < tickIntervals[i].size/target {
		return tickIntervals[i-1]
	}
	return tickIntervals[i]
}

// floor rounds t down to the interval boundary (UTC)
func (iv timeInterval) floor(t time.Time) time.Time {
	t = t.UTC()
	k := iv.step
	switch iv.unit {
	case unitMillisecond:
		ms := t.UnixMilli()
		return time.UnixMilli(ms - mod(ms, int64(k))).UTC()
	case unitSecond:
		t = t.Truncate(time.Second)
		return t.Add(-time.Duration(t.Second()%k) * time.Second)
	case unitMinute:
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
		return t.Add(-time.Duration(t.Minute()%k) * time.Minute)
	case unitHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()-t.Hour()%k, 0, 0, 0, time.UTC)
	case unitDay:
		d := t.Day() - 1
		return time.Date(t.Year(), t.Month(), t.Day()-d%k, 0, 0, 0, 0, time.UTC)
	case unitWeek:
		return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, time.UTC)
	case unitMonth:
		m := int(t.Month()) - 1
		return time.Date(t.Year(), time.Month(m-m%k+1), 1, 0, 0, 0, 0, time.UTC)
	default:
		y := t.Year()
		return time.Date(y-int(mod(int64(y), int64(k))), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// offset moves t forward by n intervals
func (iv timeInterval) offset(t time.Time, n int) time.Time {
	k := iv.step * n
	switch iv.unit {
	case unitMillisecond:
		return t.Add(time.Duration(k) * time.Millisecond)
	case unitSecond:
		return t.Add(time.Duration(k) * time.Second)
	case unitMinute:
		return t.Add(time.Duration(k) * time.Minute)
	case unitHour:
		return t.Add(time.Duration(k) * time.Hour)
	case unitDay:
		return t.AddDate(0, 0, k)
	case unitWeek:
		return t.AddDate(0, 0, 7*k)
	case unitMonth:
		return t.AddDate(0, k, 0)
	default:
		return t.AddDate(k, 0, 0)
	}
}

// ceil rounds t up to the interval boundary
func (iv timeInterval) ceil(t time.Time) time.Time {
	f := iv.floor(t.Add(-time.Millisecond))
	return iv.floor(iv.offset(f, 1))
}

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
