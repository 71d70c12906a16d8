// Package config loads estimator settings from YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cgxeiji/ppghr"
)

// Environment variables overriding the file values.
const (
	EnvSampleRate = "PPGHR_SAMPLE_RATE"
	EnvThreshold  = "PPGHR_THRESHOLD"
	EnvWindow     = "PPGHR_WINDOW"
	EnvStride     = "PPGHR_STRIDE"
)

type Range struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

type Bandpass struct {
	Low   float64 `yaml:"low"`
	High  float64 `yaml:"high"`
	Order int     `yaml:"order"`
}

type Window struct {
	Length int `yaml:"length"`
	Stride int `yaml:"stride"`
}

// Config holds the tuning constants of the estimator.
type Config struct {
	SampleRate float64  `yaml:"sample_rate"`
	Normalize  Range    `yaml:"normalize"`
	Bandpass   Bandpass `yaml:"bandpass"`
	SSFWindow  int      `yaml:"ssf_window"`
	Threshold  float64  `yaml:"threshold"`
	Window     Window   `yaml:"window"`
	Smoothing  int      `yaml:"smoothing"`
}

// Default returns the estimator defaults.
func Default() *Config {
	return &Config{
		SampleRate: ppghr.DefaultSampleRate,
		Normalize:  Range{Low: ppghr.DefaultNormalizeLow, High: ppghr.DefaultNormalizeHigh},
		Bandpass: Bandpass{
			Low:   ppghr.DefaultBandpassLow,
			High:  ppghr.DefaultBandpassHigh,
			Order: ppghr.DefaultFilterOrder,
		},
		SSFWindow: ppghr.DefaultSSFWindow,
		Threshold: ppghr.DefaultThreshold,
		Window:    Window{Length: ppghr.DefaultWindowLength, Stride: ppghr.DefaultWindowStride},
		Smoothing: ppghr.DefaultSmoothing,
	}
}

// Load reads the YAML file at path over the defaults. Keys missing from the
// file keep their default value. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: could not read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: could not parse %q: %w", path, err)
	}

	return c, nil
}

// LoadEnv loads the variables of the given .env files into the process
// environment, or of ".env" if none is given. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: could not load %q: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with the PPGHR_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	if err := envFloat(EnvSampleRate, &c.SampleRate); err != nil {
		return err
	}
	if err := envFloat(EnvThreshold, &c.Threshold); err != nil {
		return err
	}
	if err := envInt(EnvWindow, &c.Window.Length); err != nil {
		return err
	}
	return envInt(EnvStride, &c.Window.Stride)
}

func envFloat(key string, dst *float64) error {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", key, s, err)
	}
	*dst = v
	return nil
}

func envInt(key string, dst *int) error {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("config: %s=%q: %w", key, s, err)
	}
	*dst = v
	return nil
}

// Options returns the estimator options matching c.
func (c *Config) Options() []ppghr.Option {
	return []ppghr.Option{
		ppghr.SampleRate(c.SampleRate),
		ppghr.NormalizeRange(c.Normalize.Low, c.Normalize.High),
		ppghr.BandpassCutoffs(c.Bandpass.Low, c.Bandpass.High),
		ppghr.FilterOrder(c.Bandpass.Order),
		ppghr.SSFWindow(c.SSFWindow),
		ppghr.Threshold(c.Threshold),
		ppghr.Window(c.Window.Length, c.Window.Stride),
		ppghr.Smoothing(c.Smoothing),
	}
}

// Validate reports whether c builds a working estimator.
func (c *Config) Validate() error {
	if _, err := ppghr.New(c.Options()...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
