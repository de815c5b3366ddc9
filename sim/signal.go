package sim

import (
	"fmt"

	"github.com/adaptkf/go-estimate/noise"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Signal is a sampled signal along with its noisy measurements
type Signal struct {
	// T holds sample times
	T []float64
	// Truth holds noiseless signal values
	Truth []float64
	// Noisy holds measured signal values
	Noisy []float64
}

// Len returns the number of samples
func (s *Signal) Len() int {
	return len(s.T)
}

// NormallyNoisy samples fn at density evenly spaced times over [start, end]
// and adds zero mean normal noise with standard deviation sigma to every sample.
// Zero seed seeds the noise from the clock. Zero sigma yields noiseless measurements.
// It returns error if density is not positive or sigma is negative.
func NormallyNoisy(fn func(float64) float64, start, end float64, density int, sigma float64, seed uint64) (*Signal, error) {
	if fn == nil {
		return nil, fmt.Errorf("invalid signal function: nil")
	}

	if density <= 0 {
		return nil, fmt.Errorf("invalid density: %d", density)
	}

	if sigma < 0 {
		return nil, fmt.Errorf("invalid noise sigma: %f", sigma)
	}

	t := make([]float64, density)
	if density == 1 {
		t[0] = start
	} else {
		floats.Span(t, start, end)
	}

	truth := make([]float64, density)
	for i := range t {
		truth[i] = fn(t[i])
	}

	noisy := make([]float64, density)
	copy(noisy, truth)

	if sigma > 0 {
		n, err := noise.NewGaussianWithSeed([]float64{0}, mat.NewSymDense(1, []float64{sigma * sigma}), seed)
		if err != nil {
			return nil, err
		}

		for i := range noisy {
			noisy[i] += n.Sample().AtVec(0)
		}
	}

	return &Signal{T: t, Truth: truth, Noisy: noisy}, nil
}
