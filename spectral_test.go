package ppghr

import (
	"math"
	"testing"
)

func TestDominantRate(t *testing.T) {
	in := sine(1000, 50, 1.5, 1)
	for i := range in {
		in[i] += 0.3 * math.Sin(2*math.Pi*4.5*float64(i)/50)
	}

	if got := DominantRate(in, 50, 1, 8.5); math.Abs(got-90) > 1e-9 {
		t.Fatalf("DominantRate = %v, want 90", got)
	}
	// Restricting the band picks the harmonic.
	if got := DominantRate(in, 50, 3, 8.5); math.Abs(got-270) > 1e-9 {
		t.Fatalf("DominantRate = %v, want 270", got)
	}
}

func TestDominantRateEmpty(t *testing.T) {
	if got := DominantRate(nil, 50, 1, 8.5); got != 0 {
		t.Fatalf("DominantRate = %v, want 0", got)
	}
	if got := DominantRate(sine(10, 50, 1, 1), 50, 1, 2); got != 0 {
		t.Fatalf("DominantRate = %v, want 0 without bins in band", got)
	}
}
