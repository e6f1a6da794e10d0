package timeseries

import (
	"math"
	"testing"
	"time"
)

func TestMonthlySeriesBasics(t *testing.T) {
	s := New(
		[]string{"2024-01", "2024-02", "2024-03", "2024-04"},
		[]float64{10, math.NaN(), 30, 20},
	)

	if s.Len() != 4 {
		t.Fatalf("expected length 4, got %d", s.Len())
	}
	if s.CountKnown() != 3 {
		t.Errorf("expected 3 known values, got %d", s.CountKnown())
	}
	if !s.IsMissing(1) || s.IsMissing(0) {
		t.Error("missing mask does not match input")
	}
	if math.Abs(s.Mean()-20) > 1e-12 {
		t.Errorf("expected mean 20, got %f", s.Mean())
	}
	if math.Abs(s.Std()-10) > 1e-12 {
		t.Errorf("expected sample std 10, got %f", s.Std())
	}
}

func TestNewLengthMismatch(t *testing.T) {
	s := New([]string{"2024-01"}, []float64{1, 2})
	if s.Len() != 0 {
		t.Errorf("mismatched input should yield empty series, got length %d", s.Len())
	}
}

func TestStdRequiresTwoValues(t *testing.T) {
	s := New([]string{"2024-01"}, []float64{5})
	if !math.IsNaN(s.Std()) {
		t.Errorf("std of single value should be NaN, got %f", s.Std())
	}
}

func TestMonthRange(t *testing.T) {
	start := time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	months := MonthRange(start, end)
	expected := []string{"2024-11", "2024-12", "2025-01", "2025-02"}

	if len(months) != len(expected) {
		t.Fatalf("expected %d months, got %d", len(expected), len(months))
	}
	for i, m := range expected {
		if months[i] != m {
			t.Errorf("month %d: expected %s, got %s", i, m, months[i])
		}
	}
}

func TestMonthRangeReversed(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if months := MonthRange(start, end); months != nil {
		t.Errorf("reversed range should return nil, got %v", months)
	}
}

func TestMonthEnd(t *testing.T) {
	cases := []struct {
		in   time.Time
		want int
	}{
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 31},
	}
	for _, c := range cases {
		if got := MonthEnd(c.in).Day(); got != c.want {
			t.Errorf("MonthEnd(%v): expected day %d, got %d", c.in, c.want, got)
		}
	}
}

func TestUnionMonths(t *testing.T) {
	got := UnionMonths(
		[]string{"2024-03", "2024-01"},
		[]string{"2024-01", "2024-02"},
	)
	expected := []string{"2024-01", "2024-02", "2024-03"}
	if len(got) != len(expected) {
		t.Fatalf("expected %d months, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}
