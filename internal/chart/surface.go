package chart

import (
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Margins reserve space around the plotting rectangle for axes and the title
type Margins struct {
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
}

// DefaultMargins leave room for the rotated axis labels
var DefaultMargins = Margins{Top: 30, Right: 85, Bottom: 50, Left: 85}

// Surface is the drawing area a chart is laid out on
type Surface struct {
	Width   float64
	Height  float64
	Margins Margins
}

// InnerWidth is the width of the plotting rectangle; it may be zero or negative
func (s Surface) InnerWidth() float64 {
	return s.Width - s.Margins.Left - s.Margins.Right
}

// InnerHeight is the height of the plotting rectangle; it may be zero or negative
func (s Surface) InnerHeight() float64 {
	return s.Height - s.Margins.Top - s.Margins.Bottom
}

// HeightStrategy decides how tall a surface is
type HeightStrategy int

const (
	// HeightFromPoints makes the surface one unit tall per data point. Short
	// series get very small canvases and long ones very large canvases; below
	// Top+Bottom points the inner height is negative and the plot extends above
	// the origin, with the value axis still pointing up.
	HeightFromPoints HeightStrategy = iota
	// HeightFixed uses Layout.Height regardless of the series length.
	HeightFixed
)

// Layout describes how to size surfaces for a series
type Layout struct {
	Width    float64
	Height   float64
	Strategy HeightStrategy
	Margins  Margins
}

// DefaultLayout returns a layout with the default margins and point-count height
func DefaultLayout(width float64) Layout {
	return Layout{Width: width, Strategy: HeightFromPoints, Margins: DefaultMargins}
}

// SurfaceFor returns the surface for a series of the given length
func (l Layout) SurfaceFor(points int) Surface {
	height := l.Height
	if l.Strategy == HeightFromPoints {
		height = float64(points)
	}
	return Surface{Width: l.Width, Height: height, Margins: l.Margins}
}

// Point is a position in canvas coordinates
type Point struct {
	X, Y float64
}

// Element is a piece of chart geometry held by a Canvas
type Element interface {
	isElement()
}

// ClipRegion is a rectangle that clipped elements are confined to
type ClipRegion struct {
	ID     string
	X, Y   float64
	Width  float64
	Height float64
}

// Contains reports whether p lies inside the region (edges included)
func (c *ClipRegion) Contains(p Point) bool {
	return p.X >= c.X && p.X <= c.X+c.Width && p.Y >= c.Y && p.Y <= c.Y+c.Height
}

// Line is a polyline broken into segments wherever a point could not be placed
type Line struct {
	Class    string
	Segments [][]Point
	Stroke   drawing.Color
	Width    float64
	ClipPath string
}

// Vertices returns every vertex of the line in drawing order
func (l *Line) Vertices() []Point {
	var out []Point
	for _, seg := range l.Segments {
		out = append(out, seg...)
	}
	return out
}

// Marker is a filled circle at a data point
type Marker struct {
	Center   Point
	Radius   float64
	Fill     drawing.Color
	ClipPath string
	Datum    TimePoint
}

// Orientation tells which side of the plot an axis sits on
type Orientation int

const (
	AxisLeft Orientation = iota
	AxisBottom
)

// Tick is one axis tick at Pos along the axis
type Tick struct {
	Pos   float64
	Label string
}

// Text is a positioned, optionally rotated, text node
type Text struct {
	Body     string
	Pos      Point
	Rotation float64 // degrees, clockwise
	Anchor   string  // start, middle or end
	Class    string
}

// Axis is a tick/label group translated by Offset
type Axis struct {
	Orient Orientation
	Offset Point
	// length of the axis line
	Length float64
	Ticks  []Tick
	// tick line length; negative values draw gridlines across the plot
	TickSize float64
	// tick label placement relative to the tick position
	LabelOffset   Point
	LabelRotation float64
	LabelAnchor   string
	GridColor     drawing.Color
	Label         *Text
}

// Title is the chart title text
type Title struct {
	Text
}

func (*ClipRegion) isElement() {}
func (*Line) isElement()       {}
func (*Marker) isElement()     {}
func (*Axis) isElement()       {}
func (*Title) isElement()      {}

// Canvas is the mutable drawing target. Element coordinates are relative to
// Origin, the top-left corner of the plotting rectangle.
type Canvas struct {
	Width      float64
	Height     float64
	Origin     Point
	Background drawing.Color
	Elements   []Element
}

// NewCanvas returns an empty canvas with the default background
func NewCanvas() *Canvas {
	return &Canvas{Background: BackgroundColor}
}

// Clear removes all chart geometry
func (c *Canvas) Clear() {
	c.Elements = nil
}

// Add appends an element in drawing order
func (c *Canvas) Add(e Element) {
	c.Elements = append(c.Elements, e)
}

// Empty reports whether nothing has been drawn
func (c *Canvas) Empty() bool {
	return len(c.Elements) == 0
}

// Lines returns the line elements on the canvas
func (c *Canvas) Lines() []*Line { return elementsOf[*Line](c) }

// Markers returns the marker elements on the canvas
func (c *Canvas) Markers() []*Marker { return elementsOf[*Marker](c) }

// Axes returns the axis elements on the canvas
func (c *Canvas) Axes() []*Axis { return elementsOf[*Axis](c) }

// Titles returns the title elements on the canvas
func (c *Canvas) Titles() []*Title { return elementsOf[*Title](c) }

// ClipRegion returns the clip region with the given id, or nil
func (c *Canvas) ClipRegion(id string) *ClipRegion {
	for _, r := range elementsOf[*ClipRegion](c) {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func elementsOf[T Element](c *Canvas) []T {
	var out []T
	for _, e := range c.Elements {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
