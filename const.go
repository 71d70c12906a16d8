package ppghr

// Defaults tuned for a finger PPG sampled at 50 Hz.
const (
	DefaultSampleRate = 50.0

	DefaultNormalizeLow  = 0.5
	DefaultNormalizeHigh = 1.0

	DefaultBandpassLow  = 1.0
	DefaultBandpassHigh = 8.5
	DefaultFilterOrder  = 8

	DefaultSSFWindow = 8
	DefaultThreshold = 0.3

	DefaultWindowLength = 200
	DefaultWindowStride = 50

	DefaultSmoothing = 20
)
