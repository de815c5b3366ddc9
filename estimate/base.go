package estimate

import (
	"fmt"
	"math"

	filter "github.com/adaptkf/go-estimate"
	"gonum.org/v1/gonum/mat"
)

// Base is base estimate
type Base struct {
	// val is estimated value
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.SymDense
}

// NewBase returns base estimate given val with zero covariance.
// It returns error if val is nil or empty.
func NewBase(val mat.Vector) (*Base, error) {
	if val == nil || val.Len() == 0 {
		return nil, fmt.Errorf("%w: empty estimate value", filter.ErrUnsupported)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(v.Len(), nil)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewBaseWithCov returns base estimate given value and covariance.
// Filter covariances drift away from exact symmetry so cov is stored as (cov + cov')/2.
// It returns error if cov is not a square matrix matching val dimension.
func NewBaseWithCov(val mat.Vector, cov mat.Matrix) (*Base, error) {
	if val == nil || cov == nil || val.Len() == 0 {
		return nil, fmt.Errorf("%w: empty estimate", filter.ErrUnsupported)
	}

	rv := val.Len()
	rc, cc := cov.Dims()

	if rv != rc || rc != cc {
		return nil, fmt.Errorf("%w: val: %d, cov: %d x %d", filter.ErrDimMismatch, rv, rc, cc)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(rc, nil)
	for i := 0; i < rc; i++ {
		for j := i; j < rc; j++ {
			c.SetSym(i, j, (cov.At(i, j)+cov.At(j, i))/2)
		}
	}

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(b.val)

	return v
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Symmetric {
	cov := mat.NewSymDense(b.cov.SymmetricDim(), nil)
	cov.CopySym(b.cov)

	return cov
}

// StdDev returns standard deviations of the estimated value i.e. square roots of covariance diagonal.
// Negative variances caused by round-off are reported as zero.
func (b *Base) StdDev() []float64 {
	n := b.cov.SymmetricDim()
	std := make([]float64, n)
	for i := range std {
		std[i] = math.Sqrt(math.Max(b.cov.At(i, i), 0))
	}

	return std
}
