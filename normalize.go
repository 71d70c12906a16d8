package ppghr

import "gonum.org/v1/gonum/floats"

// Normalize rescales signal linearly so that its minimum maps to low and its
// maximum to high. A flat signal maps to low everywhere.
func Normalize(signal []float64, low, high float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) == 0 {
		return out
	}

	lo, hi := floats.Min(signal), floats.Max(signal)
	span := hi - lo
	for i, v := range signal {
		if span == 0 {
			out[i] = low
			continue
		}
		out[i] = (v-lo)/span*(high-low) + low
	}

	return out
}
