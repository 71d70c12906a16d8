package ppghr

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Comparison summarizes the agreement between estimates and a reference
// heart rate.
type Comparison struct {
	// N is the number of estimates compared.
	N int
	// MAE is the mean absolute error and RMSE the root mean square error, in
	// beats per minute.
	MAE  float64
	RMSE float64
	// Bias is the mean of estimate minus reference.
	Bias float64
	// Correlation is the Pearson correlation between estimates and reference,
	// or 0 when either series is constant.
	Correlation float64
}

// Compare evaluates ref at the offset of every defined estimate and
// summarizes the differences. Estimates with fewer than two peaks are skipped.
func Compare(est []Estimate, ref func(time.Duration) float64) Comparison {
	var got, want []float64
	for _, e := range est {
		if !e.Defined() {
			continue
		}
		got = append(got, e.BPM)
		want = append(want, ref(e.Offset))
	}

	c := Comparison{N: len(got)}
	if c.N == 0 {
		return c
	}

	diff := make([]float64, c.N)
	floats.SubTo(diff, got, want)
	c.Bias = stat.Mean(diff, nil)

	sq := 0.0
	for i, d := range diff {
		sq += d * d
		diff[i] = math.Abs(d)
	}
	c.MAE = stat.Mean(diff, nil)
	c.RMSE = math.Sqrt(sq / float64(c.N))

	if c.N > 1 {
		if r := stat.Correlation(got, want, nil); !math.IsNaN(r) {
			c.Correlation = r
		}
	}

	return c
}
