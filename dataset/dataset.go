// Package dataset loads recorded PPG channels and their reference heart rate
// from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoColumn is returned when the sample column is missing from the
	// header.
	ErrNoColumn = errors.New("dataset: sample column not found")
	// ErrEmpty is returned when the file holds no samples.
	ErrEmpty = errors.New("dataset: no samples")
)

// Column names recognized in the header, besides the sample column.
const (
	TimeColumn    = "time"
	RefTimeColumn = "ref_time"
	RefBPMColumn  = "ref_bpm"
)

// Recording is a single PPG channel with its time axis and, optionally, a
// reference heart rate sampled on its own time axis.
type Recording struct {
	Samples []float64
	// Time is the time of each sample in seconds.
	Time []float64
	// SampleRate is the sampling frequency in Hz.
	SampleRate float64

	// RefTime and RefBPM hold the reference heart rate, sorted by time.
	RefTime []float64
	RefBPM  []float64
}

type config struct {
	column string
	fs     float64
}

// An Option configures how a recording is read.
type Option func(c *config)

// Column selects the sample column. By default, the column is "ppg".
func Column(name string) Option {
	return func(c *config) {
		c.column = name
	}
}

// SampleRate sets the sampling frequency used to build the time axis when
// the file has no time column. By default, the sample rate is 50 Hz.
func SampleRate(fs float64) Option {
	return func(c *config) {
		c.fs = fs
	}
}

// Load reads a recording from the CSV file at path.
func Load(path string, opts ...Option) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: could not open %q: %w", path, err)
	}
	defer f.Close()

	r, err := Read(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("dataset: could not read %q: %w", path, err)
	}
	return r, nil
}

// Read reads a recording from CSV data. The first row must be a header. Empty
// cells are skipped, so the reference columns may be shorter than the sample
// column.
func Read(r io.Reader, opts ...Option) (*Recording, error) {
	c := config{column: "ppg", fs: 50}
	for _, opt := range opts {
		opt(&c)
	}
	if c.fs <= 0 {
		return nil, fmt.Errorf("dataset: invalid sample rate %v Hz", c.fs)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: could not read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	sampleCol, ok := cols[strings.ToLower(c.column)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, c.column)
	}

	rec := &Recording{SampleRate: c.fs}
	var refs []refPoint

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}

		v, ok, err := cell(row, sampleCol)
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}
		if ok {
			rec.Samples = append(rec.Samples, v)
			if i, has := cols[TimeColumn]; has {
				t, ok, err := cell(row, i)
				if err != nil {
					return nil, fmt.Errorf("dataset: line %d: %w", line, err)
				}
				if !ok {
					return nil, fmt.Errorf("dataset: line %d: missing time", line)
				}
				rec.Time = append(rec.Time, t)
			}
		}

		ti, hasT := cols[RefTimeColumn]
		bi, hasB := cols[RefBPMColumn]
		if hasT && hasB {
			t, okT, err := cell(row, ti)
			if err != nil {
				return nil, fmt.Errorf("dataset: line %d: %w", line, err)
			}
			b, okB, err := cell(row, bi)
			if err != nil {
				return nil, fmt.Errorf("dataset: line %d: %w", line, err)
			}
			if okT && okB {
				refs = append(refs, refPoint{t, b})
			}
		}
	}

	if len(rec.Samples) == 0 {
		return nil, ErrEmpty
	}
	if rec.Time == nil {
		rec.Time = make([]float64, len(rec.Samples))
		for i := range rec.Time {
			rec.Time[i] = float64(i) / c.fs
		}
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].t < refs[j].t })
	for _, p := range refs {
		rec.RefTime = append(rec.RefTime, p.t)
		rec.RefBPM = append(rec.RefBPM, p.bpm)
	}

	return rec, nil
}

type refPoint struct {
	t, bpm float64
}

func cell(row []string, i int) (float64, bool, error) {
	if i >= len(row) {
		return 0, false, nil
	}
	s := strings.TrimSpace(row[i])
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("could not parse %q: %w", s, err)
	}
	return v, true, nil
}

// Duration returns the length of the recording.
func (r *Recording) Duration() time.Duration {
	return time.Duration(math.Round(float64(len(r.Samples)) / r.SampleRate * float64(time.Second)))
}

// HasReference reports whether the recording carries a reference heart rate.
func (r *Recording) HasReference() bool {
	return len(r.RefTime) > 0
}

// Reference returns the reference heart rate at t, linearly interpolated
// between the surrounding reference points and clamped to the first and last
// ones. It returns 0 if the recording has no reference.
func (r *Recording) Reference(t time.Duration) float64 {
	return Interpolate(t.Seconds(), r.RefTime, r.RefBPM)
}

// Interpolate returns the value at x of the piecewise linear function through
// the points (xp[i], fp[i]). xp must be increasing. Values outside xp take
// the value of the nearest end.
func Interpolate(x float64, xp, fp []float64) float64 {
	n := min(len(xp), len(fp))
	if n == 0 {
		return 0
	}
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}

	i := sort.SearchFloat64s(xp[:n], x)
	if xp[i] == x {
		return fp[i]
	}
	x0, x1 := xp[i-1], xp[i]
	if x1 == x0 {
		return fp[i]
	}
	return fp[i-1] + (fp[i]-fp[i-1])*(x-x0)/(x1-x0)
}
