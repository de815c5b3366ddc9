package matrix

import (
	"errors"
	"fmt"
	"math"

	filter "github.com/adaptkf/go-estimate"
	gomatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// eps is the float64 machine epsilon
var eps = math.Nextafter(1, 2) - 1

// Eye returns n x n identity matrix.
// It returns error if n is not a positive integer.
func Eye(n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: identity size %d", filter.ErrDimMismatch, n)
	}

	return gomatrix.NewDenseValIdentity(n, 1.0)
}

// Inverse returns inverse of the square matrix a.
// Ill-conditioned matrices are inverted regardless of their condition number;
// only exactly singular matrices fail with error wrapping filter.ErrSingular.
func Inverse(a mat.Matrix) (*mat.Dense, error) {
	if err := CheckSquare(a, "inverse"); err != nil {
		return nil, err
	}

	inv := &mat.Dense{}
	if err := inv.Inverse(a); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
			return inv, nil
		}
		return nil, fmt.Errorf("%w: %v", filter.ErrSingular, err)
	}

	return inv, nil
}

// Rank returns the numerical rank of a.
// Singular values not larger than max(rows, cols) * eps * largest singular value
// are treated as zero.
func Rank(a mat.Matrix) int {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return 0
	}

	r, c := a.Dims()

	return svd.Rank(float64(max(r, c)) * eps)
}

// ClampMin returns a copy of a with every element smaller than floor replaced by floor.
func ClampMin(a mat.Matrix, floor float64) *mat.Dense {
	out := &mat.Dense{}
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, floor)
	}, a)

	return out
}
