package ppghr

import "go.uber.org/zap"

// An Option configures an Estimator. It returns an Option that restores the
// previous value.
type Option func(e *Estimator) Option

// SampleRate sets the sampling frequency of the input signal in Hz.
// By default, the sample rate is 50 Hz.
func SampleRate(fs float64) Option {
	return func(e *Estimator) Option {
		old := e.fs
		e.fs = fs
		return SampleRate(old)
	}
}

// NormalizeRange sets the range the raw signal is rescaled into before
// filtering. By default, the range is [0.5, 1.0].
func NormalizeRange(low, high float64) Option {
	return func(e *Estimator) Option {
		oldLow, oldHigh := e.normLow, e.normHigh
		e.normLow, e.normHigh = low, high
		return NormalizeRange(oldLow, oldHigh)
	}
}

// BandpassCutoffs sets the pass band of the filter in Hz.
// By default, the pass band is [1.0, 8.5] Hz.
func BandpassCutoffs(low, high float64) Option {
	return func(e *Estimator) Option {
		oldLow, oldHigh := e.bandLow, e.bandHigh
		e.bandLow, e.bandHigh = low, high
		return BandpassCutoffs(oldLow, oldHigh)
	}
}

// FilterOrder sets the Butterworth prototype order of the band-pass filter.
// By default, the order is 8.
func FilterOrder(order int) Option {
	return func(e *Estimator) Option {
		old := e.order
		e.order = order
		return FilterOrder(old)
	}
}

// SSFWindow sets the number of differences summed by the slope sum function.
// By default, 8 differences are summed.
func SSFWindow(size int) Option {
	return func(e *Estimator) Option {
		old := e.ssfWindow
		e.ssfWindow = size
		return SSFWindow(old)
	}
}

// Threshold sets the peak threshold relative to the window maximum. It must be
// in (0, 1). By default, the threshold is 0.3.
func Threshold(t float64) Option {
	return func(e *Estimator) Option {
		old := e.threshold
		e.threshold = t
		return Threshold(old)
	}
}

// Window sets the analysis window length and the stride between windows, in
// samples. The stride must be shorter than the window. By default, windows of
// 200 samples are taken every 50 samples.
func Window(length, stride int) Option {
	return func(e *Estimator) Option {
		oldLength, oldStride := e.length, e.stride
		e.length, e.stride = length, stride
		return Window(oldLength, oldStride)
	}
}

// Smoothing sets the moving average window applied to the rate estimates.
// By default, 20 estimates are averaged.
func Smoothing(size int) Option {
	return func(e *Estimator) Option {
		old := e.smoothing
		e.smoothing = size
		return Smoothing(old)
	}
}

// Logger sets the logger used by the estimator. By default, nothing is
// logged.
func Logger(l *zap.Logger) Option {
	return func(e *Estimator) Option {
		old := e.log
		e.log = l
		return Logger(old)
	}
}
