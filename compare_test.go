package ppghr

import (
	"math"
	"testing"
	"time"
)

func TestCompare(t *testing.T) {
	est := []Estimate{
		{Offset: 0, BPM: 62, Peaks: 3},
		{Offset: time.Second, BPM: 0, Peaks: 1},
		{Offset: 2 * time.Second, BPM: 58, Peaks: 3},
		{Offset: 3 * time.Second, BPM: 64, Peaks: 4},
	}
	ref := func(time.Duration) float64 { return 60 }

	c := Compare(est, ref)
	if c.N != 3 {
		t.Fatalf("N = %d, want 3", c.N)
	}
	if math.Abs(c.MAE-8.0/3) > 1e-9 {
		t.Fatalf("MAE = %v", c.MAE)
	}
	if math.Abs(c.RMSE-math.Sqrt(24.0/3)) > 1e-9 {
		t.Fatalf("RMSE = %v", c.RMSE)
	}
	if math.Abs(c.Bias-4.0/3) > 1e-9 {
		t.Fatalf("Bias = %v", c.Bias)
	}
	if c.Correlation != 0 {
		t.Fatalf("Correlation = %v, want 0 for a constant reference", c.Correlation)
	}
}

func TestCompareSmoothed(t *testing.T) {
	est := []Estimate{
		{Offset: 0, BPM: 60, Peaks: 3},
		{Offset: time.Second, BPM: 70, Peaks: 3},
		{Offset: 2 * time.Second, BPM: 80, Peaks: 4},
	}
	ref := func(t time.Duration) float64 { return 62 + 10*t.Seconds() }

	c := Compare(est, ref)
	if c.N != 3 {
		t.Fatalf("N = %d, want 3", c.N)
	}
	if math.Abs(c.Bias+2) > 1e-9 || math.Abs(c.MAE-2) > 1e-9 {
		t.Fatalf("unexpected comparison: %+v", c)
	}
	if math.Abs(c.Correlation-1) > 1e-9 {
		t.Fatalf("Correlation = %v, want 1", c.Correlation)
	}
}

func TestCompareEmpty(t *testing.T) {
	c := Compare(nil, func(time.Duration) float64 { return 60 })
	if c != (Comparison{}) {
		t.Fatalf("unexpected comparison: %+v", c)
	}
}

func TestCompareWithoutPeaks(t *testing.T) {
	ref := func(time.Duration) float64 { return 70 }

	flat := Windows(make([]float64, 300), 50, 0.3, 200, 50)
	if len(flat) == 0 {
		t.Fatalf("no windows")
	}
	if c := Compare(flat, ref); c != (Comparison{}) {
		t.Fatalf("flat signal: unexpected comparison: %+v", c)
	}

	single := []Estimate{
		{Offset: 0, Peaks: 1},
		{Offset: time.Second, Peaks: 1},
	}
	if c := Compare(single, ref); c != (Comparison{}) {
		t.Fatalf("single peaks: unexpected comparison: %+v", c)
	}
}
