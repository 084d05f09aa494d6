package chart

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteSVG(t *testing.T) {
	c := NewCanvas()
	composeSample(c, sampleSeries())

	var buf bytes.Buffer
	if err := WriteSVG(c, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Fatalf("output is not an SVG document: %.80q", out)
	}
	if !strings.Contains(out, "Test") {
		t.Error("title text missing from SVG")
	}
}

func TestWritePNG(t *testing.T) {
	c := NewCanvas()
	composeSample(c, sampleSeries())

	var buf bytes.Buffer
	if err := WritePNG(c, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("output is not a PNG image")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPNG, "PNG": FormatPNG, "svg": FormatSVG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Error("expected error for gif")
	}
	if FormatSVG.ContentType() != "image/svg+xml" || FormatPNG.ContentType() != "image/png" {
		t.Error("unexpected content types")
	}
}

func TestClipSegment(t *testing.T) {
	r := &ClipRegion{Width: 10, Height: 10}
	for _, tc := range []struct {
		name   string
		a, b   Point
		ok     bool
		wa, wb Point
	}{
		{name: "inside", a: Point{1, 1}, b: Point{9, 9}, ok: true, wa: Point{1, 1}, wb: Point{9, 9}},
		{name: "outside", a: Point{11, 1}, b: Point{20, 5}, ok: false},
		{name: "crossing right edge", a: Point{5, 5}, b: Point{15, 5}, ok: true, wa: Point{5, 5}, wb: Point{10, 5}},
		{name: "crossing top edge", a: Point{5, -5}, b: Point{5, 5}, ok: true, wa: Point{5, 0}, wb: Point{5, 5}},
	} {
		a, b, ok := clipSegment(tc.a, tc.b, r)
		if ok != tc.ok {
			t.Errorf("%s: ok = %v", tc.name, ok)
			continue
		}
		if ok && (a != tc.wa || b != tc.wb) {
			t.Errorf("%s: got %v-%v, want %v-%v", tc.name, a, b, tc.wa, tc.wb)
		}
	}

	if _, _, ok := clipSegment(Point{0, 0}, Point{1, 1}, &ClipRegion{Width: -5, Height: 10}); ok {
		t.Error("negative clip region should hide everything")
	}
}
