package ppghr

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// DominantRate returns the rate, in beats per minute, of the strongest
// frequency of signal between low and high Hz. The signal is Hann windowed
// before the transform. It returns 0 if no frequency bin falls in the band.
func DominantRate(signal []float64, fs, low, high float64) float64 {
	n := len(signal)
	if n < 2 || fs <= 0 {
		return 0
	}

	x := append([]float64(nil), signal...)
	window.Apply(x, window.Hann)
	spectrum := fft.FFTReal(x)

	best, bestPower := -1, 0.0
	for i := 1; i <= n/2; i++ {
		f := float64(i) * fs / float64(n)
		if f < low || f > high {
			continue
		}
		power := cmplx.Abs(spectrum[i])
		if best < 0 || power > bestPower {
			best, bestPower = i, power
		}
	}
	if best < 0 {
		return 0
	}

	return 60 * float64(best) * fs / float64(n)
}
