package ppghr

// SlidingWindow is a bounded FIFO of the most recent values with a running
// sum. Pushing into a full window evicts the oldest value.
type SlidingWindow struct {
	buffer []float64
	idx    int
	n      int
	sum    float64
}

// NewSlidingWindow returns an empty window holding at most size values. A size
// lower than 1 is treated as 1.
func NewSlidingWindow(size int) *SlidingWindow {
	if size < 1 {
		size = 1
	}
	return &SlidingWindow{
		buffer: make([]float64, size),
	}
}

// Push adds v to the window and returns the updated sum.
func (w *SlidingWindow) Push(v float64) float64 {
	if w.n == len(w.buffer) {
		w.sum -= w.buffer[w.idx]
	} else {
		w.n++
	}
	w.buffer[w.idx] = v
	w.sum += v

	w.idx++
	w.idx %= len(w.buffer)

	return w.sum
}

// Sum returns the sum of the values currently in the window.
func (w *SlidingWindow) Sum() float64 {
	return w.sum
}

// Len returns the number of values currently in the window.
func (w *SlidingWindow) Len() int {
	return w.n
}

// Cap returns the maximum number of values the window holds.
func (w *SlidingWindow) Cap() int {
	return len(w.buffer)
}

// Mean returns the arithmetic mean of the window, or 0 if it is empty.
func (w *SlidingWindow) Mean() float64 {
	if w.n == 0 {
		return 0
	}
	return w.sum / float64(w.n)
}
