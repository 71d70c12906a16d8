package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/stat"

	"github.com/cgxeiji/ppghr"
	"github.com/cgxeiji/ppghr/config"
	"github.com/cgxeiji/ppghr/dataset"
	"github.com/cgxeiji/ppghr/max30102"
)

func main() {
	var (
		in       = flag.String("in", "", "CSV recording to analyze")
		column   = flag.String("column", "ppg", "sample column of the CSV recording")
		cfgPath  = flag.String("config", "", "YAML configuration file")
		sensor   = flag.Bool("sensor", false, "record from a MAX30102 sensor instead of a file")
		bus      = flag.String("bus", "", "I2C bus of the sensor")
		addr     = flag.Uint("addr", max30102.Addr, "I2C address of the sensor")
		duration = flag.Duration("duration", 30*time.Second, "recording length in sensor mode")
		red      = flag.Bool("red", false, "use the red LED instead of IR in sensor mode")
		raw      = flag.Bool("raw", false, "print raw estimates instead of smoothed ones")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	log := newLogger(*verbose)
	defer log.Sync()

	if err := config.LoadEnv(); err != nil {
		log.Fatal("could not load environment", zap.Error(err))
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("could not load configuration", zap.Error(err))
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal("could not load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var rec *dataset.Recording
	switch {
	case *sensor:
		rec, err = record(ctx, log, *bus, uint16(*addr), *duration, *red)
		if err == nil {
			cfg.SampleRate = rec.SampleRate
		}
	case *in != "":
		rec, err = dataset.Load(*in, dataset.Column(*column), dataset.SampleRate(cfg.SampleRate))
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("could not get signal", zap.Error(err))
	}

	est, err := ppghr.New(append(cfg.Options(), ppghr.Logger(log))...)
	if err != nil {
		log.Fatal("could not build estimator", zap.Error(err))
	}

	res, err := est.Estimate(rec.Samples)
	if err != nil {
		log.Fatal("could not estimate heart rate", zap.Error(err))
	}

	series := res.Smoothed
	if *raw {
		series = res.Raw
	}
	printEstimates(series, rec)
	summary(log, series, res, rec, cfg)
}

func newLogger(verbose bool) *zap.Logger {
	c := zap.NewProductionConfig()
	if verbose {
		c = zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	c.OutputPaths = []string{"stderr"}

	log, err := c.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return log
}

func record(ctx context.Context, log *zap.Logger, bus string, addr uint16, d time.Duration, red bool) (*dataset.Recording, error) {
	if d <= 0 {
		return nil, fmt.Errorf("invalid recording duration %v", d)
	}
	sensor, err := max30102.New(bus, addr)
	if err != nil {
		return nil, err
	}
	defer sensor.Close()

	rev, err := sensor.RevID()
	if err != nil {
		return nil, err
	}
	temp, err := sensor.Temperature(ctx)
	if err != nil {
		return nil, err
	}
	irAmp, redAmp, err := sensor.Calibrate(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("MAX30102 ready",
		zap.Uint8("rev", rev),
		zap.Float64("temperature", temp),
		zap.Float64("ir_mA", irAmp),
		zap.Float64("red_mA", redAmp),
	)

	fs := sensor.SampleRate()
	n := int(d.Seconds() * fs)
	log.Info("recording", zap.Duration("duration", d), zap.Int("samples", n))

	ir, r, err := sensor.Record(ctx, n)
	if errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("recording interrupted: %w", err)
	} else if err != nil {
		return nil, err
	}

	samples := ir
	if red {
		samples = r
	}
	rec := &dataset.Recording{
		Samples:    samples,
		Time:       make([]float64, len(samples)),
		SampleRate: fs,
	}
	for i := range rec.Time {
		rec.Time[i] = float64(i) / fs
	}

	return rec, nil
}

func printEstimates(series []ppghr.Estimate, rec *dataset.Recording) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
	defer w.Flush()

	fmt.Fprint(w, "t [s]\tpeaks\tbpm\t")
	if rec.HasReference() {
		fmt.Fprint(w, "reference\t")
	}
	fmt.Fprintln(w)

	for _, e := range series {
		fmt.Fprintf(w, "%.1f\t%d\t%.1f\t", e.Offset.Seconds(), e.Peaks, e.BPM)
		if rec.HasReference() {
			fmt.Fprintf(w, "%.1f\t", rec.Reference(e.Offset))
		}
		fmt.Fprintln(w)
	}
}

func summary(log *zap.Logger, series []ppghr.Estimate, res *ppghr.Result, rec *dataset.Recording, cfg *config.Config) {
	var bpm []float64
	for _, e := range res.Raw {
		if e.Defined() {
			bpm = append(bpm, e.BPM)
		}
	}

	fields := []zap.Field{
		zap.Duration("duration", rec.Duration()),
		zap.Int("windows", len(res.Raw)),
		zap.Int("defined", len(bpm)),
		zap.Float64("spectral_bpm", ppghr.DominantRate(res.Filtered, cfg.SampleRate, cfg.Bandpass.Low, cfg.Bandpass.High)),
	}
	if len(bpm) > 0 {
		fields = append(fields, zap.Float64("mean_bpm", stat.Mean(bpm, nil)))
	}
	if rec.HasReference() {
		c := ppghr.Compare(series, rec.Reference)
		fields = append(fields,
			zap.Int("compared", c.N),
			zap.Float64("mae", c.MAE),
			zap.Float64("rmse", c.RMSE),
			zap.Float64("bias", c.Bias),
			zap.Float64("correlation", c.Correlation),
		)
	}

	log.Info("heart rate estimated", fields...)
}
