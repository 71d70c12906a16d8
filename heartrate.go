package ppghr

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Estimate is a heart rate measured over one analysis window.
type Estimate struct {
	// Index is the first sample of the window.
	Index int
	// Offset is the time of Index from the start of the signal.
	Offset time.Duration
	// BPM is the rate in beats per minute. It is 0 when fewer than two peaks
	// were found in the window.
	BPM float64
	// Peaks is the number of peaks found in the window.
	Peaks int
}

// Defined reports whether the window held enough peaks to measure a rate.
func (e Estimate) Defined() bool {
	return e.Peaks >= 2
}

// AveragePeriods returns the mean distance, in samples, between adjacent
// peaks of mask. It returns 0 when mask has fewer than two peaks.
func AveragePeriods(mask []bool) float64 {
	idx := PeakIndices(mask)
	if len(idx) < 2 {
		return 0
	}

	periods := make([]float64, len(idx)-1)
	for i := 1; i < len(idx); i++ {
		periods[i-1] = float64(idx[i] - idx[i-1])
	}

	return floats.Sum(periods) / float64(len(periods))
}

// Rate converts a mean period in samples into beats per minute for a signal
// sampled at fs Hz. A period of 0 means no rate and returns 0.
func Rate(period, fs float64) float64 {
	if period == 0 {
		return 0
	}
	return 60 / (period / fs)
}

// Windows slides a window of length samples over ssf, advancing stride
// samples at a time, and estimates one heart rate per step. The last windows
// are clipped at the end of the signal, so len(ssf)/stride estimates are
// returned, rounded up.
func Windows(ssf []float64, fs float64, threshold float64, length, stride int) []Estimate {
	if length < 1 || stride < 1 || len(ssf) == 0 {
		return nil
	}

	est := make([]Estimate, 0, (len(ssf)+stride-1)/stride)
	for i := 0; i < len(ssf); i += stride {
		end := min(i+length, len(ssf))
		peaks := FindPeaks(ssf[i:end], threshold)

		est = append(est, Estimate{
			Index:  i,
			Offset: offset(i, fs),
			BPM:    Rate(AveragePeriods(peaks), fs),
			Peaks:  len(PeakIndices(peaks)),
		})
	}

	return est
}

func offset(i int, fs float64) time.Duration {
	if fs <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(i) / fs * float64(time.Second)))
}
