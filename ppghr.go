// Package ppghr estimates heart rate from a photoplethysmography (PPG)
// waveform.
//
// The raw channel is normalized, band-pass filtered without phase shift and
// passed through a slope sum function. Peaks are then searched in overlapping
// windows and the mean distance between them is converted into beats per
// minute. The sequence of estimates is finally smoothed with a moving average.
package ppghr

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig is returned when an Estimator option is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidFilter is returned when the band-pass cutoffs or order cannot
	// produce a filter for the sample rate.
	ErrInvalidFilter = errors.New("invalid filter parameters")
	// ErrUnstableFilter is returned when the designed band-pass filter is
	// numerically unstable.
	ErrUnstableFilter = errors.New("unstable filter")
)

// Estimator runs the heart rate pipeline over complete signals. An Estimator
// keeps no state between calls to Estimate.
type Estimator struct {
	fs                float64
	normLow, normHigh float64
	bandLow, bandHigh float64
	order             int
	ssfWindow         int
	threshold         float64
	length, stride    int
	smoothing         int

	filter *Bandpass
	log    *zap.Logger
}

// Result holds the output of one run of the pipeline.
type Result struct {
	// Raw holds one estimate per window.
	Raw []Estimate
	// Smoothed holds the moving average of Raw, at the same offsets and with
	// the same peak counts.
	Smoothed []Estimate

	// Filtered is the band-passed signal and SSF its slope sum.
	Filtered []float64
	SSF      []float64
}

// New returns an Estimator configured with the defaults, modified by opts.
func New(opts ...Option) (*Estimator, error) {
	e := &Estimator{
		fs:        DefaultSampleRate,
		normLow:   DefaultNormalizeLow,
		normHigh:  DefaultNormalizeHigh,
		bandLow:   DefaultBandpassLow,
		bandHigh:  DefaultBandpassHigh,
		order:     DefaultFilterOrder,
		ssfWindow: DefaultSSFWindow,
		threshold: DefaultThreshold,
		length:    DefaultWindowLength,
		stride:    DefaultWindowStride,
		smoothing: DefaultSmoothing,
		log:       zap.NewNop(),
	}

	if _, err := e.Options(opts...); err != nil {
		return nil, err
	}

	return e, nil
}

// Options applies opts to the estimator and returns an Option restoring the
// previous value of the last one. If the resulting configuration is invalid,
// all of opts are reverted and an error is returned.
func (e *Estimator) Options(opts ...Option) (Option, error) {
	var old Option
	undo := make([]Option, 0, len(opts))
	for _, opt := range opts {
		old = opt(e)
		undo = append(undo, old)
	}

	if err := e.setup(); err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i](e)
		}
		return nil, err
	}

	return old, nil
}

func (e *Estimator) setup() error {
	switch {
	case e.fs <= 0:
		return fmt.Errorf("ppghr: sample rate %v Hz: %w", e.fs, ErrInvalidConfig)
	case e.normLow >= e.normHigh:
		return fmt.Errorf("ppghr: normalize range [%v, %v]: %w", e.normLow, e.normHigh, ErrInvalidConfig)
	case e.ssfWindow < 1:
		return fmt.Errorf("ppghr: SSF window %d: %w", e.ssfWindow, ErrInvalidConfig)
	case e.threshold <= 0 || e.threshold >= 1:
		return fmt.Errorf("ppghr: threshold %v not in (0, 1): %w", e.threshold, ErrInvalidConfig)
	case e.length < 1 || e.stride < 1 || e.stride >= e.length:
		return fmt.Errorf("ppghr: window %d with stride %d: %w", e.length, e.stride, ErrInvalidConfig)
	case e.smoothing < 1:
		return fmt.Errorf("ppghr: smoothing window %d: %w", e.smoothing, ErrInvalidConfig)
	}

	filter, err := NewBandpass(e.fs, e.bandLow, e.bandHigh, e.order)
	if err != nil {
		return fmt.Errorf("ppghr: could not build band-pass filter: %w", err)
	}
	e.filter = filter

	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.log.Debug("estimator configured",
		zap.Float64("sample_rate", e.fs),
		zap.Float64s("bandpass", []float64{e.bandLow, e.bandHigh}),
		zap.Int("order", e.order),
		zap.Int("ssf_window", e.ssfWindow),
		zap.Float64("threshold", e.threshold),
		zap.Int("window", e.length),
		zap.Int("stride", e.stride),
		zap.Int("smoothing", e.smoothing),
	)

	return nil
}

// SampleRate returns the sampling frequency the estimator expects, in Hz.
func (e *Estimator) SampleRate() float64 {
	return e.fs
}

// Filter returns the band-pass filter used by the estimator.
func (e *Estimator) Filter() *Bandpass {
	return e.filter
}

// Estimate runs the pipeline over samples. An empty signal returns an empty
// Result.
func (e *Estimator) Estimate(samples []float64) (*Result, error) {
	if len(samples) == 0 {
		return &Result{}, nil
	}

	filtered := e.filter.Apply(Normalize(samples, e.normLow, e.normHigh))
	ssf := SSF(filtered, e.ssfWindow)
	raw := Windows(ssf, e.fs, e.threshold, e.length, e.stride)

	bpm := make([]float64, len(raw))
	for i, r := range raw {
		bpm[i] = r.BPM
	}
	smooth := MovingAverage(bpm, e.smoothing)

	smoothed := make([]Estimate, len(raw))
	undefined := 0
	for i, r := range raw {
		smoothed[i] = Estimate{
			Index:  r.Index,
			Offset: r.Offset,
			BPM:    smooth[i],
			Peaks:  r.Peaks,
		}
		if !r.Defined() {
			undefined++
		}
	}

	e.log.Debug("signal processed",
		zap.Int("samples", len(samples)),
		zap.Int("windows", len(raw)),
		zap.Int("undefined", undefined),
	)

	return &Result{
		Raw:      raw,
		Smoothed: smoothed,
		Filtered: filtered,
		SSF:      ssf,
	}, nil
}
