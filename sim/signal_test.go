package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestNormallyNoisy(t *testing.T) {
	assert := assert.New(t)

	s, err := NormallyNoisy(math.Sin, 0, 1, 5, 0, 0)
	assert.NoError(err)
	assert.Equal(5, s.Len())
	assert.InDeltaSlice([]float64{0, 0.25, 0.5, 0.75, 1}, s.T, 1e-12)
	for i := range s.T {
		assert.Equal(math.Sin(s.T[i]), s.Truth[i])
	}
	assert.Equal(s.Truth, s.Noisy)

	s, err = NormallyNoisy(math.Sin, 2, 3, 1, 0, 0)
	assert.NoError(err)
	assert.Equal([]float64{2}, s.T)

	testCases := []struct {
		fn      func(float64) float64
		density int
		sigma   float64
	}{
		{nil, 10, 0.1},
		{math.Sin, 0, 0.1},
		{math.Sin, 10, -0.1},
	}

	for _, tc := range testCases {
		s, err := NormallyNoisy(tc.fn, 0, 1, tc.density, tc.sigma, 1)
		assert.Nil(s)
		assert.Error(err)
	}

	s, err = NormallyNoisy(nil, 0, 1, 10, 0.1, 1)
	assert.Nil(s)
	assert.EqualError(err, "invalid signal function: nil")
}

func TestNormallyNoisyStats(t *testing.T) {
	assert := assert.New(t)

	sigma := 0.15
	s, err := NormallyNoisy(func(float64) float64 { return 1.0 }, 0, 10, 5000, sigma, 42)
	assert.NoError(err)

	residuals := make([]float64, s.Len())
	for i := range residuals {
		residuals[i] = s.Noisy[i] - s.Truth[i]
	}
	mean, std := stat.MeanStdDev(residuals, nil)
	assert.InDelta(0.0, mean, 0.01)
	assert.InDelta(sigma, std, 0.01)

	// seeded signals replay
	again, err := NormallyNoisy(func(float64) float64 { return 1.0 }, 0, 10, 5000, sigma, 42)
	assert.NoError(err)
	assert.Equal(s.Noisy, again.Noisy)
}
