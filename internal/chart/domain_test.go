package chart

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sampleSeries() TimeSeries {
	return TimeSeries{
		{Date: month(2023, time.January), Value: 100},
		{Date: month(2023, time.February), Value: 150},
		{Date: month(2023, time.March), Value: 120},
	}
}

func TestResolveDomain(t *testing.T) {
	got, err := ResolveDomain(sampleSeries(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	want := Domain{MinDate: month(2023, time.January), MaxDate: month(2023, time.March), MaxValue: 150}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveDomain() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveDomainIdempotent(t *testing.T) {
	s := sampleSeries()
	a, errA := ResolveDomain(s, time.Time{}, time.Time{})
	b, errB := ResolveDomain(s, time.Time{}, time.Time{})
	if errA != nil || errB != nil {
		t.Fatal(errA, errB)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("second resolution differs:\n%s", diff)
	}
}

func TestResolveDomainOverrides(t *testing.T) {
	from := time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	got, err := ResolveDomain(sampleSeries(), from, to)
	if err != nil {
		t.Fatal(err)
	}
	if !got.MinDate.Equal(from) {
		t.Errorf("MinDate = %v, want %v", got.MinDate, from)
	}
	if !got.MaxDate.Equal(to) {
		t.Errorf("MaxDate = %v, want %v", got.MaxDate, to)
	}
	if got.MaxValue != 150 {
		t.Errorf("MaxValue = %v, want 150", got.MaxValue)
	}
}

func TestResolveDomainInvalidOverride(t *testing.T) {
	s := sampleSeries()
	plain, err := ResolveDomain(s, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := ResolveDomain(s, ParseFilterDate("not a date"), ParseFilterDate("2023-13-45"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(plain, got); diff != "" {
		t.Errorf("invalid overrides changed the domain:\n%s", diff)
	}
}

func TestResolveDomainEmpty(t *testing.T) {
	_, err := ResolveDomain(nil, time.Time{}, time.Time{})
	if !errors.Is(err, ErrEmptyDomain) {
		t.Fatalf("expected ErrEmptyDomain, got %v", err)
	}

	// every date invalid and no overrides: no extent
	_, err = ResolveDomain(TimeSeries{{Value: 3}}, time.Time{}, time.Time{})
	if !errors.Is(err, ErrEmptyDomain) {
		t.Fatalf("expected ErrEmptyDomain for undated series, got %v", err)
	}
}

func TestResolveDomainDegenerate(t *testing.T) {
	s := TimeSeries{
		{Date: month(2023, time.January), Value: 0},
		{Date: month(2023, time.February), Value: 0},
	}
	got, err := ResolveDomain(s, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("flat series should resolve, got %v", err)
	}
	if got.MaxValue != 0 {
		t.Errorf("MaxValue = %v, want 0", got.MaxValue)
	}
}

func TestResolveDomainIgnoresNaN(t *testing.T) {
	s := TimeSeries{
		{Date: month(2023, time.January), Value: math.NaN()},
		{Date: month(2023, time.February), Value: 42},
		{Date: month(2023, time.March), Value: math.Inf(1)},
	}
	got, err := ResolveDomain(s, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxValue != 42 {
		t.Errorf("MaxValue = %v, want 42", got.MaxValue)
	}

	allNaN := TimeSeries{{Date: month(2023, time.January), Value: math.NaN()}}
	got, err = ResolveDomain(allNaN, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxValue != 0 {
		t.Errorf("MaxValue = %v, want 0 for all-NaN series", got.MaxValue)
	}
}

func TestParseFilterDate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want time.Time
	}{
		{in: "2023-04-01", want: time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2023-04-01 00:00", want: time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2023-04-01T12:30:00Z", want: time.Date(2023, time.April, 1, 12, 30, 0, 0, time.UTC)},
		{in: "", want: time.Time{}},
		{in: "yesterday", want: time.Time{}},
	} {
		if got := ParseFilterDate(tc.in); !got.Equal(tc.want) {
			t.Errorf("ParseFilterDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFloatHelpers(t *testing.T) {
	if !finite(1.5) || finite(math.NaN()) || finite(math.Inf(-1)) {
		t.Error("finite(float64) misclassifies")
	}
	if !finite(float32(2)) || finite(float32(math.Inf(1))) {
		t.Error("finite(float32) misclassifies")
	}
	if got := nanMax(math.NaN(), 3.0); got != 3 {
		t.Errorf("nanMax(NaN, 3) = %v", got)
	}
	if lo, hi := plotSpan(float32(-78)); lo != -78 || hi != 0 {
		t.Errorf("plotSpan(-78) = %v, %v", lo, hi)
	}
	if lo, hi := plotSpan(230.0); lo != 0 || hi != 230 {
		t.Errorf("plotSpan(230) = %v, %v", lo, hi)
	}
}
