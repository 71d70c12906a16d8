package ppghr

// MovingAverage smooths signal with a window of size samples. Output sample i
// (i >= 1) is the mean of the last min(i, size) samples up to and including
// i. Output sample 0 is 0.
func MovingAverage(signal []float64, size int) []float64 {
	out := make([]float64, len(signal))
	w := NewSlidingWindow(size)
	for i := 1; i < len(signal); i++ {
		w.Push(signal[i])
		out[i] = w.Mean()
	}
	return out
}

// SSF applies the slope sum function to signal. Output sample i (i >= 1) is
// the sum of the positive first differences over the last size samples;
// falling edges count as 0. Output sample 0 is 0.
func SSF(signal []float64, size int) []float64 {
	out := make([]float64, len(signal))
	w := NewSlidingWindow(size)
	for i := 1; i < len(signal); i++ {
		delta := signal[i] - signal[i-1]
		if delta < 0 {
			delta = 0
		}
		sum := w.Push(delta)
		if sum < 0 { // rounding after evictions
			sum = 0
		}
		out[i] = sum
	}
	return out
}
