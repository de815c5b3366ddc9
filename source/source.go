// Package source provides measurement sources which can drive filters in real time.
package source

import (
	"fmt"
	"io"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

// Slice is a source of measurements held in a caller owned buffer
type Slice[M any] struct {
	vals []M
	pos  int
}

// NewSlice creates new Slice source which yields vals in order and returns it.
func NewSlice[M any](vals []M) *Slice[M] {
	return &Slice[M]{vals: vals}
}

// Next returns the next buffered measurement or io.EOF when the buffer is exhausted.
func (s *Slice[M]) Next() (any, error) {
	if s.pos >= len(s.vals) {
		return nil, io.EOF
	}
	v := s.vals[s.pos]
	s.pos++

	return v, nil
}

// Len returns the number of measurements not yet consumed
func (s *Slice[M]) Len() int {
	return len(s.vals) - s.pos
}

// Reset rewinds the source to the first measurement
func (s *Slice[M]) Reset() {
	s.pos = 0
}

// Func is a source of generated measurements
type Func struct {
	fn    func(int) float64
	limit int
	k     int
}

// NewFunc creates new Func source which yields fn(0), fn(1), ... and returns it.
// The source is exhausted after limit values; non-positive limit means it never is.
// It returns error if fn is nil.
func NewFunc(fn func(int) float64, limit int) (*Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("invalid generator function: nil")
	}

	return &Func{fn: fn, limit: limit}, nil
}

// Next returns the next generated measurement
func (f *Func) Next() (any, error) {
	if f.limit > 0 && f.k >= f.limit {
		return nil, io.EOF
	}
	v := f.fn(f.k)
	f.k++

	return v, nil
}

// Noisy is a source which perturbs measurements of another source with noise
type Noisy struct {
	src   filter.Source
	noise filter.Noise
}

// NewNoisy creates new Noisy source which adds samples of noise to measurements of src.
// It returns error if either src or noise is nil.
func NewNoisy(src filter.Source, noise filter.Noise) (*Noisy, error) {
	if src == nil {
		return nil, fmt.Errorf("invalid source: %v", src)
	}

	if noise == nil {
		return nil, fmt.Errorf("invalid noise: %v", noise)
	}

	return &Noisy{src: src, noise: noise}, nil
}

// Next returns the next measurement of the wrapped source with noise added to it.
// Scalar measurements of any numeric type are returned as float64, anything else as *mat.VecDense.
// It returns error if the measurement and noise dimensions differ.
func (n *Noisy) Next() (any, error) {
	z, err := n.src.Next()
	if err != nil {
		return nil, err
	}

	v, err := matrix.ToVecDense(z)
	if err != nil {
		return nil, err
	}

	sample := n.noise.Sample()
	if sample.Len() != v.Len() {
		return nil, fmt.Errorf("%w: measurement: %d, noise: %d", filter.ErrDimMismatch, v.Len(), sample.Len())
	}

	out := &mat.VecDense{}
	out.AddVec(v, sample)

	if matrix.IsScalar(z) {
		return out.AtVec(0), nil
	}

	return out, nil
}
