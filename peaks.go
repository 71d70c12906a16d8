package ppghr

import "gonum.org/v1/gonum/floats"

// FindPeaks marks the samples of segment that rise above threshold times the
// segment maximum, then collapses every run of adjacent marks into a single
// peak with NormalizePeaks. threshold is expected in (0, 1).
func FindPeaks(segment []float64, threshold float64) []bool {
	mask := make([]bool, len(segment))
	if len(segment) == 0 {
		return mask
	}

	limit := floats.Max(segment) * threshold
	for i, v := range segment {
		mask[i] = v > limit
	}

	return NormalizePeaks(segment, mask)
}

// NormalizePeaks returns a copy of mask where each maximal run of adjacent
// true flags is replaced by one flag at the highest sample of data within the
// run. Ties go to the earliest index. Normalizing twice changes nothing.
func NormalizePeaks(data []float64, mask []bool) []bool {
	n := min(len(data), len(mask))
	out := make([]bool, len(mask))

	for i := 0; i < n; {
		if !mask[i] {
			i++
			continue
		}
		start := i
		for i < n && mask[i] {
			i++
		}
		out[start+floats.MaxIdx(data[start:i])] = true
	}

	return out
}

// PeakIndices returns the indices of the true flags of mask in increasing
// order.
func PeakIndices(mask []bool) []int {
	var idx []int
	for i, p := range mask {
		if p {
			idx = append(idx, i)
		}
	}
	return idx
}
