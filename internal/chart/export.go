package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// Format is an output image format
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat parses an output format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG, "":
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown format: %s (available: png, svg)", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

const fontSize = 9

// Write renders the canvas in the given format
func Write(c *Canvas, f Format, w io.Writer) error {
	provider := gochart.PNG
	if f == FormatSVG {
		provider = gochart.SVG
	}

	width, height := pixels(c.Width), pixels(c.Height)
	r, err := provider(width, height)
	if err != nil {
		return fmt.Errorf("creating %s renderer: %w", f, err)
	}
	if err := Draw(c, r); err != nil {
		return err
	}
	if err := r.Save(w); err != nil {
		return fmt.Errorf("writing %s: %w", f, err)
	}
	return nil
}

// WritePNG renders the canvas as a PNG image
func WritePNG(c *Canvas, w io.Writer) error { return Write(c, FormatPNG, w) }

// WriteSVG renders the canvas as an SVG document
func WriteSVG(c *Canvas, w io.Writer) error { return Write(c, FormatSVG, w) }

func pixels(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	return int(math.Ceil(v))
}

// Draw replays the canvas elements onto a go-chart renderer. Renderers have no
// clip paths, so clipped lines and markers are cut to their region here.
func Draw(c *Canvas, r gochart.Renderer) error {
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("loading font: %w", err)
	}
	r.SetFont(font)
	r.SetFontSize(fontSize)
	r.SetFontColor(TextColor)

	d := &drawer{r: r, origin: c.Origin, clips: map[string]*ClipRegion{}}
	d.background(c)
	for _, e := range c.Elements {
		switch e := e.(type) {
		case *ClipRegion:
			d.clips[e.ID] = e
		case *Line:
			d.line(e)
		case *Marker:
			d.marker(e)
		case *Axis:
			d.axis(e)
		case *Title:
			d.text(e.Text, c.Origin)
		}
	}
	return nil
}

type drawer struct {
	r      gochart.Renderer
	origin Point
	clips  map[string]*ClipRegion
}

func (d *drawer) background(c *Canvas) {
	w, h := pixels(c.Width), pixels(c.Height)
	d.r.SetFillColor(c.Background)
	d.r.SetStrokeWidth(0)
	d.r.MoveTo(0, 0)
	d.r.LineTo(w, 0)
	d.r.LineTo(w, h)
	d.r.LineTo(0, h)
	d.r.Close()
	d.r.Fill()
}

func (d *drawer) moveTo(p Point) { d.r.MoveTo(round(d.origin.X+p.X), round(d.origin.Y+p.Y)) }
func (d *drawer) lineTo(p Point) { d.r.LineTo(round(d.origin.X+p.X), round(d.origin.Y+p.Y)) }

func (d *drawer) line(l *Line) {
	clip := d.clips[l.ClipPath]
	d.r.SetStrokeColor(l.Stroke)
	d.r.SetStrokeWidth(l.Width)

	drawn := false
	for _, seg := range l.Segments {
		var last Point
		open := false
		for i := 1; i < len(seg); i++ {
			a, b, ok := seg[i-1], seg[i], true
			if clip != nil {
				a, b, ok = clipSegment(a, b, clip)
			}
			if !ok {
				open = false
				continue
			}
			if !open || a != last {
				d.moveTo(a)
			}
			d.lineTo(b)
			last, open, drawn = b, true, true
		}
	}
	if drawn {
		d.r.Stroke()
	}
}

func (d *drawer) marker(m *Marker) {
	if clip := d.clips[m.ClipPath]; clip != nil && !clip.Contains(m.Center) {
		return
	}
	d.r.SetFillColor(m.Fill)
	d.r.SetStrokeColor(m.Fill)
	d.r.SetStrokeWidth(1)
	d.r.Circle(m.Radius, round(d.origin.X+m.Center.X), round(d.origin.Y+m.Center.Y))
	d.r.FillStroke()
}

func (d *drawer) axis(a *Axis) {
	at := Point{X: d.origin.X + a.Offset.X, Y: d.origin.Y + a.Offset.Y}
	r := d.r

	r.SetStrokeColor(TextColor)
	r.SetStrokeWidth(1)
	if a.Orient == AxisLeft {
		r.MoveTo(round(at.X), round(at.Y))
		r.LineTo(round(at.X), round(at.Y+a.Length))
	} else {
		r.MoveTo(round(at.X), round(at.Y))
		r.LineTo(round(at.X+a.Length), round(at.Y))
	}
	r.Stroke()

	if len(a.Ticks) > 0 {
		r.SetStrokeColor(a.GridColor)
		for _, t := range a.Ticks {
			if a.Orient == AxisLeft {
				r.MoveTo(round(at.X), round(at.Y+t.Pos))
				r.LineTo(round(at.X-a.TickSize), round(at.Y+t.Pos))
			} else {
				r.MoveTo(round(at.X+t.Pos), round(at.Y))
				r.LineTo(round(at.X+t.Pos), round(at.Y+a.TickSize))
			}
		}
		r.Stroke()
	}

	for _, t := range a.Ticks {
		label := Text{Body: t.Label, Rotation: a.LabelRotation, Anchor: a.LabelAnchor}
		if a.Orient == AxisLeft {
			// vertically centre the label on the tick
			label.Pos = Point{X: a.LabelOffset.X, Y: t.Pos + a.LabelOffset.Y + fontSize/2}
		} else {
			label.Pos = Point{X: t.Pos + a.LabelOffset.X, Y: a.LabelOffset.Y}
		}
		d.text(label, at)
	}
	if a.Label != nil {
		d.text(*a.Label, at)
	}
}

func (d *drawer) text(t Text, at Point) {
	if t.Body == "" {
		return
	}
	r := d.r
	r.SetFontColor(TextColor)
	r.SetFontSize(fontSize)

	x, y := at.X+t.Pos.X, at.Y+t.Pos.Y
	width := float64(r.MeasureText(t.Body).Width())
	var shift float64
	switch t.Anchor {
	case "middle":
		shift = width / 2
	case "end":
		shift = width
	}
	rad := t.Rotation * math.Pi / 180
	x -= shift * math.Cos(rad)
	y -= shift * math.Sin(rad)

	if rad != 0 {
		r.SetTextRotation(rad)
		defer r.ClearTextRotation()
	}
	r.Text(t.Body, round(x), round(y))
}

func round(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}

// clipSegment cuts the segment a-b to the clip rectangle (Liang–Barsky)
func clipSegment(a, b Point, c *ClipRegion) (Point, Point, bool) {
	if c.Width < 0 || c.Height < 0 {
		return a, b, false
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, a.X - c.X},
		{dx, c.X + c.Width - a.X},
		{-dy, a.Y - c.Y},
		{dy, c.Y + c.Height - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, t)
		}
	}
	return Point{X: a.X + t0*dx, Y: a.Y + t0*dy}, Point{X: a.X + t1*dx, Y: a.Y + t1*dy}, true
}
