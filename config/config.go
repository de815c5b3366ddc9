// Package config loads filter and signal settings from YAML files.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/kalman/akf"
	"github.com/adaptkf/go-estimate/kalman/kf"
	"gopkg.in/yaml.v3"
)

const (
	// KindKalman selects the linear Kalman filter with fixed noise covariances
	KindKalman = "kalman"
	// KindAdaptive selects the adaptive filter which learns process noise covariance
	KindAdaptive = "adaptive"
)

// Config holds all settings of a filtering run
type Config struct {
	Filter FilterConfig `yaml:"filter"`
	Signal SignalConfig `yaml:"signal"`
	Output OutputConfig `yaml:"output"`
}

// FilterConfig describes the filter model.
// A is the state transition matrix of both filters.
// Q is used by the Kalman filter only; Gamma by the adaptive filter only.
type FilterConfig struct {
	Kind  string `yaml:"kind"`
	A     Matrix `yaml:"a"`
	H     Matrix `yaml:"h"`
	Q     Matrix `yaml:"q,omitempty"`
	R     Matrix `yaml:"r"`
	Gamma Matrix `yaml:"gamma,omitempty"`
	X0    Matrix `yaml:"x0"`
	P0    Matrix `yaml:"p0"`
}

// SignalConfig describes the generated test signal
type SignalConfig struct {
	// Func is one of sine, cosine, square, ramp or constant
	Func      string  `yaml:"func"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Start     float64 `yaml:"start"`
	End       float64 `yaml:"end"`
	Density   int     `yaml:"density"`
	Sigma     float64 `yaml:"sigma"`
	Seed      uint64  `yaml:"seed"`
}

// OutputConfig names optional output files; empty paths disable the output
type OutputConfig struct {
	Plot string `yaml:"plot,omitempty"`
	CSV  string `yaml:"csv,omitempty"`
}

// Default returns configuration of a scalar random walk filter tracking a noisy sine wave.
func Default() *Config {
	return &Config{
		Filter: FilterConfig{
			Kind:  KindKalman,
			A:     Matrix{{1}},
			H:     Matrix{{1}},
			Q:     Matrix{{0.001}},
			R:     Matrix{{0.15 * 0.15}},
			Gamma: Matrix{{1}},
			X0:    Matrix{{0}},
			P0:    Matrix{{1}},
		},
		Signal: SignalConfig{
			Func:      "sine",
			Amplitude: 1,
			Frequency: 1,
			Start:     0,
			End:       6 * math.Pi,
			Density:   300,
			Sigma:     0.15,
			Seed:      42,
		},
	}
}

// Load reads YAML configuration from path on top of Default.
// It returns error if the file can not be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses YAML configuration data on top of Default.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return c, nil
}

// Validate checks the configuration is complete.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Filter.Kind) {
	case KindKalman:
		if c.Filter.Q.IsEmpty() {
			return fmt.Errorf("kalman filter requires process noise covariance q")
		}
	case KindAdaptive:
		if c.Filter.Gamma.IsEmpty() {
			return fmt.Errorf("adaptive filter requires noise shaping matrix gamma")
		}
	default:
		return fmt.Errorf("invalid filter kind: %q", c.Filter.Kind)
	}

	for _, m := range []struct {
		name string
		val  Matrix
	}{
		{"a", c.Filter.A},
		{"h", c.Filter.H},
		{"r", c.Filter.R},
		{"x0", c.Filter.X0},
		{"p0", c.Filter.P0},
	} {
		if m.val.IsEmpty() {
			return fmt.Errorf("missing filter matrix: %s", m.name)
		}
	}

	if _, err := c.Signal.Fn(); err != nil {
		return err
	}

	if c.Signal.Density <= 0 {
		return fmt.Errorf("invalid signal density: %d", c.Signal.Density)
	}

	if c.Signal.Sigma < 0 {
		return fmt.Errorf("invalid signal noise sigma: %f", c.Signal.Sigma)
	}

	return nil
}

// NewFilter creates the configured filter and returns it.
// It returns error if the filter can not be created from the configured matrices.
func (c *Config) NewFilter() (filter.Filter, error) {
	return c.newFilter(strings.ToLower(c.Filter.Kind))
}

// WithKind returns a copy of c configured for filter kind.
func (c *Config) WithKind(kind string) *Config {
	out := *c
	out.Filter.Kind = kind

	return &out
}

func (c *Config) newFilter(kind string) (filter.Filter, error) {
	f := c.Filter

	switch kind {
	case KindKalman:
		k, err := kf.New(f.A.Value(), f.H.Value(), f.Q.Value(), f.R.Value(), f.X0.Value(), f.P0.Value())
		if err != nil {
			return nil, err
		}
		return k, nil
	case KindAdaptive:
		a, err := akf.New(f.A.Value(), f.H.Value(), f.R.Value(), f.Gamma.Value(), f.X0.Value(), f.P0.Value())
		if err != nil {
			return nil, err
		}
		return a, nil
	}

	return nil, fmt.Errorf("invalid filter kind: %q", kind)
}

// Fn returns the configured signal function.
// It returns error if the function name is unknown.
func (s SignalConfig) Fn() (func(float64) float64, error) {
	a, w := s.Amplitude, s.Frequency

	switch strings.ToLower(s.Func) {
	case "sine", "sin":
		return func(t float64) float64 { return a * math.Sin(w*t) }, nil
	case "cosine", "cos":
		return func(t float64) float64 { return a * math.Cos(w*t) }, nil
	case "square":
		return func(t float64) float64 {
			if math.Sin(w*t) >= 0 {
				return a
			}
			return -a
		}, nil
	case "ramp":
		return func(t float64) float64 { return a * w * t }, nil
	case "constant":
		return func(float64) float64 { return a }, nil
	}

	return nil, fmt.Errorf("invalid signal function: %q", s.Func)
}
