package ppghr

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// MaxFilterOrder is the highest Butterworth prototype order accepted by
// NewBandpass.
const MaxFilterOrder = 10

// biquad is a second order IIR section in Direct-Form II (transposed). The
// coefficients are normalized so that a0 is 1.
type biquad struct {
	b [3]float64
	a [2]float64
	w [2]float64
}

func (f *biquad) filter(x float64) float64 {
	y := f.w[0] + f.b[0]*x
	f.w[0] = f.w[1] - f.a[0]*y + f.b[1]*x
	f.w[1] = f.b[2]*x - f.a[1]*y
	return y
}

// dcGain returns the response of the section to a constant input.
func (f *biquad) dcGain() float64 {
	return (f.b[0] + f.b[1] + f.b[2]) / (1 + f.a[0] + f.a[1])
}

// steady sets the state the section would hold after a long run of constant
// input x.
func (f *biquad) steady(x float64) {
	k := f.dcGain()
	f.w[1] = (f.b[2] - k*f.a[1]) * x
	f.w[0] = f.w[1] + (f.b[1]-k*f.a[0])*x
}

func (f *biquad) response(z complex128) complex128 {
	zi := 1 / z
	num := complex(f.b[0], 0) + complex(f.b[1], 0)*zi + complex(f.b[2], 0)*zi*zi
	den := 1 + complex(f.a[0], 0)*zi + complex(f.a[1], 0)*zi*zi
	return num / den
}

// Bandpass is a Butterworth band-pass filter applied forward and backward so
// that the output has no phase shift against the input.
type Bandpass struct {
	sections []biquad

	SampleRate float64
	Low        float64
	High       float64
	Order      int
}

// NewBandpass designs a Butterworth band-pass filter for signals sampled at fs
// Hz passing [low, high] Hz. The band-pass has 2*order poles. It returns an
// error wrapping ErrInvalidFilter if the cutoffs or order cannot produce a
// filter, or ErrUnstableFilter if the design is numerically unstable.
func NewBandpass(fs, low, high float64, order int) (*Bandpass, error) {
	nyq := fs / 2
	switch {
	case fs <= 0:
		return nil, fmt.Errorf("ppghr: sample rate %v Hz: %w", fs, ErrInvalidFilter)
	case order < 1 || order > MaxFilterOrder:
		return nil, fmt.Errorf("ppghr: order %d not in [1, %d]: %w", order, MaxFilterOrder, ErrInvalidFilter)
	case low <= 0 || high >= nyq || low >= high:
		return nil, fmt.Errorf("ppghr: cutoffs [%v, %v] Hz outside (0, %v): %w", low, high, nyq, ErrInvalidFilter)
	}

	// Pre-warped analog band edges for a bilinear transform with fs = 2.
	const fs2 = 4.0
	wl := fs2 * math.Tan(math.Pi*(low/nyq)/2)
	wh := fs2 * math.Tan(math.Pi*(high/nyq)/2)
	bw := wh - wl
	w0 := math.Sqrt(wl * wh)

	var complexPoles, realPoles []complex128
	for k := 0; k < order; k++ {
		theta := math.Pi * float64(2*k+order+1) / float64(2*order)
		p := cmplx.Exp(complex(0, theta))

		// Low-pass to band-pass: each prototype pole becomes two poles.
		a := p * complex(bw/2, 0)
		d := cmplx.Sqrt(a*a - complex(w0*w0, 0))
		for _, s := range []complex128{a + d, a - d} {
			z := (fs2 + s) / (fs2 - s)
			if cmplx.Abs(z) >= 1 {
				return nil, fmt.Errorf("ppghr: pole %v: %w", z, ErrUnstableFilter)
			}
			switch {
			case math.Abs(imag(z)) <= 1e-12:
				realPoles = append(realPoles, complex(real(z), 0))
			case imag(z) > 0:
				complexPoles = append(complexPoles, z)
			}
		}
	}
	if 2*len(complexPoles)+len(realPoles) != 2*order || len(realPoles)%2 != 0 {
		return nil, fmt.Errorf("ppghr: could not pair %d poles: %w", 2*order, ErrUnstableFilter)
	}

	f := &Bandpass{
		SampleRate: fs,
		Low:        low,
		High:       high,
		Order:      order,
	}

	// Every section carries one zero at z = 1 and one at z = -1.
	for _, p := range complexPoles {
		f.sections = append(f.sections, biquad{
			b: [3]float64{1, 0, -1},
			a: [2]float64{-2 * real(p), real(p)*real(p) + imag(p)*imag(p)},
		})
	}
	sort.Slice(realPoles, func(i, j int) bool { return real(realPoles[i]) < real(realPoles[j]) })
	for i := 0; i < len(realPoles); i += 2 {
		r1, r2 := real(realPoles[i]), real(realPoles[i+1])
		f.sections = append(f.sections, biquad{
			b: [3]float64{1, 0, -1},
			a: [2]float64{-(r1 + r2), r1 * r2},
		})
	}

	// Unity gain at the centre of the band.
	wc := 2 * math.Atan(w0/fs2)
	z := cmplx.Exp(complex(0, wc))
	h := complex(1, 0)
	for i := range f.sections {
		h *= f.sections[i].response(z)
	}
	g := 1 / cmplx.Abs(h)
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return nil, fmt.Errorf("ppghr: gain %v: %w", g, ErrUnstableFilter)
	}
	for i := range f.sections[0].b {
		f.sections[0].b[i] *= g
	}

	return f, nil
}

// padding returns the number of samples reflected at each end of the signal.
func (f *Bandpass) padding() int {
	return 3 * (2*len(f.sections) + 1)
}

// Apply filters signal forward and backward and returns a new signal of the
// same length. The ends are extended with an odd reflection before filtering.
func (f *Bandpass) Apply(signal []float64) []float64 {
	n := len(signal)
	if n < 2 {
		return append([]float64(nil), signal...)
	}
	pad := min(f.padding(), n-1)

	ext := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		ext = append(ext, 2*signal[0]-signal[i])
	}
	ext = append(ext, signal...)
	for i := 1; i <= pad; i++ {
		ext = append(ext, 2*signal[n-1]-signal[n-1-i])
	}

	f.cascade(ext)
	reverse(ext)
	f.cascade(ext)
	reverse(ext)

	return append([]float64(nil), ext[pad:pad+n]...)
}

// cascade runs every section over x in place, starting each section from the
// steady state of the first sample it sees.
func (f *Bandpass) cascade(x []float64) {
	sections := make([]biquad, len(f.sections))
	copy(sections, f.sections)

	x0 := x[0]
	for i := range sections {
		sections[i].steady(x0)
		x0 *= sections[i].dcGain()
	}
	for i, v := range x {
		for j := range sections {
			v = sections[j].filter(v)
		}
		x[i] = v
	}
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
