package chart

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jgoulah/billchart/pkg/models"
)

// ClipID identifies the plotting rectangle clip region
const ClipID = "clip"

// Chart styling
var (
	BackgroundColor = drawing.ColorFromHex("d3d3d3")
	LineColor       = drawing.ColorFromHex("008000")
	GridColor       = drawing.ColorFromHex("d1e8ff")
	TextColor       = drawing.ColorFromHex("000000")
)

const (
	markerRadius  = 3
	tickSize      = 6
	tickPadding   = 3
	yLabelOffset  = -70
	titleOffset   = -10
	xLabelShift   = -30
	xLabelRotate  = -45
	yLabelRotate  = -90
	lineWidth     = 1.5
	lineClassName = "line-path"
)

// Labels are the texts a chart is annotated with
type Labels struct {
	Title string
	YAxis string
}

// LabelsFor returns the title and value axis label for a commodity
func LabelsFor(d models.Descriptor) Labels {
	return Labels{
		Title: d.TitleLabel,
		YAxis: "Consumption " + d.YAxisLabel,
	}
}

// Stats describes what a Compose call drew
type Stats struct {
	Points   int
	Markers  int
	Segments int
	Skipped  int
}

// Compose clears the canvas and draws the chart for a sorted series: the clip
// region, the line, one marker per point, the value axis, the time axis and the
// title, in that order. The line and markers are clipped to the plotting
// rectangle. Points that cannot be placed are skipped and break the line.
func Compose(c *Canvas, s Surface, series TimeSeries, scales Scales, labels Labels) Stats {
	c.Clear()
	c.Width, c.Height = s.Width, s.Height
	c.Origin = Point{X: s.Margins.Left, Y: s.Margins.Top}

	innerWidth, innerHeight := s.InnerWidth(), s.InnerHeight()
	stats := Stats{Points: len(series)}

	x0, x1 := plotSpan(innerWidth)
	y0, y1 := plotSpan(innerHeight)
	c.Add(&ClipRegion{ID: ClipID, X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0})

	line := &Line{Class: lineClassName, Stroke: LineColor, Width: lineWidth, ClipPath: ClipID}
	var (
		segment []Point
		markers []*Marker
	)
	for _, p := range series {
		if p.Malformed() {
			stats.Skipped++
			if len(segment) > 0 {
				line.Segments = append(line.Segments, segment)
				segment = nil
			}
			continue
		}
		pt := Point{X: scales.X.Map(p.Date), Y: scales.Y.Map(p.Value)}
		segment = append(segment, pt)
		markers = append(markers, &Marker{
			Center:   pt,
			Radius:   markerRadius,
			Fill:     LineColor,
			ClipPath: ClipID,
			Datum:    p,
		})
	}
	if len(segment) > 0 {
		line.Segments = append(line.Segments, segment)
	}
	c.Add(line)
	for _, m := range markers {
		c.Add(m)
	}
	stats.Markers = len(markers)
	stats.Segments = len(line.Segments)

	c.Add(valueAxis(scales.Y, innerWidth, innerHeight, labels.YAxis))
	c.Add(timeAxis(scales.X, innerWidth, y1))
	c.Add(&Title{Text{
		Body:   labels.Title,
		Pos:    Point{X: innerWidth/2 - s.Margins.Left/2, Y: titleOffset},
		Anchor: "start",
		Class:  "title",
	}})

	return stats
}

func valueAxis(y LinearScale, innerWidth, innerHeight float64, label string) *Axis {
	format := y.TickFormat(DefaultTickCount)
	var ticks []Tick
	for _, v := range y.Ticks(DefaultTickCount) {
		ticks = append(ticks, Tick{Pos: y.Map(v), Label: format(v)})
	}
	return &Axis{
		Orient:      AxisLeft,
		Length:      innerHeight,
		Ticks:       ticks,
		TickSize:    -innerWidth,
		LabelOffset: Point{X: -(math.Max(-innerWidth, 0) + tickPadding)},
		LabelAnchor: "end",
		GridColor:   GridColor,
		Label: &Text{
			Body:     label,
			Pos:      rotate(Point{X: -innerHeight / 2, Y: yLabelOffset}, yLabelRotate),
			Rotation: yLabelRotate,
			Anchor:   "middle",
			Class:    "axis-label",
		},
	}
}

// timeAxis sits on the zero baseline of the value axis
func timeAxis(x TimeScale, innerWidth, baseline float64) *Axis {
	var ticks []Tick
	for _, t := range x.Ticks(DefaultTickCount) {
		ticks = append(ticks, Tick{Pos: x.Map(t), Label: x.TickFormat(t)})
	}
	return &Axis{
		Orient:        AxisBottom,
		Offset:        Point{Y: baseline},
		Length:        innerWidth,
		Ticks:         ticks,
		TickSize:      tickSize,
		LabelOffset:   rotate(Point{X: xLabelShift, Y: tickSize + tickPadding}, xLabelRotate),
		LabelRotation: xLabelRotate,
		LabelAnchor:   "start",
		GridColor:     TextColor,
	}
}

// rotate turns p about the origin by deg degrees, clockwise on a y-down canvas
func rotate(p Point, deg float64) Point {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return Point{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
}
