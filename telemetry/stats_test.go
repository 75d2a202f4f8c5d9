package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 2.5},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
		{"clamped high", []float64{1, 2, 3}, 1.5, 3.0},
		{"clamped low", []float64{1, 2, 3}, -1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{0.9, 0.1, 0.5, 0.3, 0.7}
	d := ComputeDistribution(values)

	if math.Abs(d.Mean-0.5) > 1e-9 {
		t.Errorf("mean = %v, want 0.5", d.Mean)
	}
	// Population std of {0.1, 0.3, 0.5, 0.7, 0.9}
	if math.Abs(d.Std-math.Sqrt(0.08)) > 1e-9 {
		t.Errorf("std = %v, want %v", d.Std, math.Sqrt(0.08))
	}
	if d.Min != 0.1 || d.Max != 0.9 {
		t.Errorf("min/max = %v/%v, want 0.1/0.9", d.Min, d.Max)
	}
	if d.P10 > d.P50 || d.P50 > d.P90 {
		t.Errorf("percentiles not ordered: %v %v %v", d.P10, d.P50, d.P90)
	}

	// Input order untouched
	if values[0] != 0.9 || values[1] != 0.1 {
		t.Errorf("values were modified: %v", values)
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	if d := ComputeDistribution(nil); d != (Distribution{}) {
		t.Errorf("empty distribution = %+v, want zero", d)
	}
}
