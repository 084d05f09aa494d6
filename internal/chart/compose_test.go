package chart

import (
	"math"
	"testing"
	"time"
)

func fixedSurface() Surface {
	return Layout{Width: 400, Height: 300, Strategy: HeightFixed, Margins: DefaultMargins}.SurfaceFor(0)
}

func composeSample(c *Canvas, series TimeSeries) Stats {
	s := fixedSurface()
	d, err := ResolveDomain(series, time.Time{}, time.Time{})
	if err != nil {
		panic(err)
	}
	return Compose(c, s, series, BuildScales(d, s), Labels{Title: "Test", YAxis: "Consumption (x)"})
}

func TestComposeOrder(t *testing.T) {
	c := NewCanvas()
	composeSample(c, sampleSeries())

	var kinds []string
	for _, e := range c.Elements {
		switch e := e.(type) {
		case *ClipRegion:
			kinds = append(kinds, "clip")
		case *Line:
			kinds = append(kinds, "line")
		case *Marker:
			kinds = append(kinds, "marker")
		case *Axis:
			if e.Orient == AxisLeft {
				kinds = append(kinds, "left")
			} else {
				kinds = append(kinds, "bottom")
			}
		case *Title:
			kinds = append(kinds, "title")
		}
	}
	want := []string{"clip", "line", "marker", "marker", "marker", "left", "bottom", "title"}
	if len(kinds) != len(want) {
		t.Fatalf("elements = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("elements = %v, want %v", kinds, want)
		}
	}
}

func TestComposeIdempotent(t *testing.T) {
	c := NewCanvas()
	series := sampleSeries()
	composeSample(c, series)
	first := len(c.Elements)
	composeSample(c, series)

	if len(c.Elements) != first {
		t.Fatalf("second render left %d elements, first left %d", len(c.Elements), first)
	}
	if n := len(c.Lines()); n != 1 {
		t.Errorf("lines = %d, want 1", n)
	}
	if n := len(c.Markers()); n != len(series) {
		t.Errorf("markers = %d, want %d", n, len(series))
	}
	if n := len(c.Axes()); n != 2 {
		t.Errorf("axes = %d, want 2", n)
	}
	if n := len(c.Titles()); n != 1 {
		t.Errorf("titles = %d, want 1", n)
	}
}

func TestComposeClipping(t *testing.T) {
	c := NewCanvas()
	composeSample(c, sampleSeries())
	s := fixedSurface()

	clip := c.ClipRegion(ClipID)
	if clip == nil {
		t.Fatal("no clip region")
	}
	if clip.Width != s.InnerWidth() || clip.Height != s.InnerHeight() {
		t.Errorf("clip = %vx%v, want %vx%v", clip.Width, clip.Height, s.InnerWidth(), s.InnerHeight())
	}
	if l := c.Lines()[0]; l.ClipPath != ClipID {
		t.Errorf("line clip path = %q", l.ClipPath)
	}
	for _, m := range c.Markers() {
		if m.ClipPath != ClipID {
			t.Errorf("marker clip path = %q", m.ClipPath)
		}
	}
	if c.Origin != (Point{X: s.Margins.Left, Y: s.Margins.Top}) {
		t.Errorf("origin = %+v", c.Origin)
	}
}

func TestComposeLabels(t *testing.T) {
	c := NewCanvas()
	composeSample(c, sampleSeries())
	s := fixedSurface()

	title := c.Titles()[0]
	if title.Body != "Test" {
		t.Errorf("title = %q", title.Body)
	}
	if want := s.InnerWidth()/2 - s.Margins.Left/2; title.Pos.X != want || title.Pos.Y != -10 {
		t.Errorf("title at %+v", title.Pos)
	}

	var left, bottom *Axis
	for _, a := range c.Axes() {
		if a.Orient == AxisLeft {
			left = a
		} else {
			bottom = a
		}
	}
	if left == nil || bottom == nil {
		t.Fatal("missing axis")
	}
	if left.Label == nil || left.Label.Body != "Consumption (x)" || left.Label.Rotation != -90 {
		t.Errorf("value axis label = %+v", left.Label)
	}
	if math.Abs(left.Label.Pos.X+70) > 1e-9 || math.Abs(left.Label.Pos.Y-s.InnerHeight()/2) > 1e-9 {
		t.Errorf("value axis label at %+v", left.Label.Pos)
	}
	if left.TickSize != -s.InnerWidth() {
		t.Errorf("value axis tick size = %v, want gridlines of %v", left.TickSize, -s.InnerWidth())
	}
	if bottom.Offset.Y != s.InnerHeight() || bottom.LabelRotation != -45 {
		t.Errorf("time axis = %+v", bottom)
	}
	if len(bottom.Ticks) == 0 || len(left.Ticks) == 0 {
		t.Error("axes have no ticks")
	}
}

func TestComposeMalformedGap(t *testing.T) {
	series := TimeSeries{
		{Date: month(2023, time.January), Value: 10},
		{Date: month(2023, time.February), Value: 20},
		{Date: month(2023, time.March), Value: math.NaN()},
		{Date: month(2023, time.April), Value: 30},
		{Value: 50},
	}
	c := NewCanvas()
	stats := composeSample(c, series)

	if stats.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", stats.Skipped)
	}
	if stats.Segments != 2 {
		t.Errorf("segments = %d, want 2", stats.Segments)
	}
	if stats.Markers != 3 || len(c.Markers()) != 3 {
		t.Errorf("markers = %d/%d, want 3", stats.Markers, len(c.Markers()))
	}
	for _, v := range c.Lines()[0].Vertices() {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) {
			t.Errorf("non-finite vertex %+v", v)
		}
	}
}
