// Package kalman contains the predict and correct recursions shared by linear Kalman filters.
package kalman

import (
	"fmt"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman Filter
type Kalman interface {
	// filter.Filter is recursive linear state estimator
	filter.Filter
	// Gain returns Kalman gain of the last update
	Gain() mat.Matrix
	// Innovation returns innovation vector of the last update
	Innovation() mat.Vector
}

// CheckPropagation checks dimensions of state transition f and process noise covariance n
// agree with state x and its covariance p.
func CheckPropagation(f mat.Matrix, x mat.Vector, p, n mat.Matrix) error {
	if err := matrix.CheckSquare(f, "A"); err != nil {
		return err
	}

	if err := matrix.CheckDims(f, x, "A", "x", matrix.Cols2Rows); err != nil {
		return err
	}

	if err := matrix.CheckDims(p, f, "P", "A", matrix.RowsAndCols); err != nil {
		return err
	}

	return matrix.CheckDims(n, f, "Q", "A", matrix.RowsAndCols)
}

// CheckObservation checks dimensions of observation matrix h, measurement noise covariance r
// and measurement z agree with state x and its covariance p.
func CheckObservation(x mat.Vector, p, h, r mat.Matrix, z mat.Vector) error {
	if err := matrix.CheckSquare(p, "P"); err != nil {
		return err
	}

	if err := matrix.CheckDims(p, x, "P", "x", matrix.Cols2Rows); err != nil {
		return err
	}

	if err := matrix.CheckDims(h, x, "H", "x", matrix.Cols2Rows); err != nil {
		return err
	}

	if err := matrix.CheckDims(h, z, "H", "z", matrix.Rows2Rows); err != nil {
		return err
	}

	if err := matrix.CheckSquare(r, "R"); err != nil {
		return err
	}

	return matrix.CheckDims(r, h, "R", "H", matrix.Rows2Rows)
}

// Propagate propagates state x and covariance p through state transition f.
// It returns f*x and f*p*f' + n.
func Propagate(f mat.Matrix, x mat.Vector, p, n mat.Matrix) (*mat.VecDense, *mat.Dense) {
	xNext := &mat.VecDense{}
	xNext.MulVec(f, x)

	pNext := &mat.Dense{}
	pNext.Product(f, p, f.T())
	pNext.Add(pNext, n)

	return xNext, pNext
}

// Innovation returns measurement residual z - h*x
func Innovation(z mat.Vector, h mat.Matrix, x mat.Vector) *mat.VecDense {
	inn := &mat.VecDense{}
	inn.MulVec(h, x)
	inn.SubVec(z, inn)

	return inn
}

// Gain calculates Kalman gain P*H'*inv(S) where S = H*P*H' + R is innovation covariance.
// It returns error wrapping filter.ErrSingular if S can not be inverted.
func Gain(p, h, r mat.Matrix) (*mat.Dense, error) {
	// P*H'
	pht := &mat.Dense{}
	pht.Mul(p, h.T())

	// H*P*H' + R
	s := &mat.Dense{}
	s.Mul(h, pht)
	s.Add(s, r)

	sInv, err := matrix.Inverse(s)
	if err != nil {
		return nil, fmt.Errorf("innovation covariance: %w", err)
	}

	gain := &mat.Dense{}
	gain.Mul(pht, sInv)

	return gain, nil
}

// Correct corrects state x and its covariance p using gain k, observation matrix h and innovation inn.
// It returns x + K*inn and (I - K*H)*P.
func Correct(x mat.Vector, p, k, h mat.Matrix, inn mat.Vector) (*mat.VecDense, *mat.Dense, error) {
	eye, err := matrix.Eye(x.Len())
	if err != nil {
		return nil, nil, err
	}

	xNext := &mat.VecDense{}
	xNext.MulVec(k, inn)
	xNext.AddVec(x, xNext)

	// I - K*H
	a := &mat.Dense{}
	a.Mul(k, h)
	a.Sub(eye, a)

	pNext := &mat.Dense{}
	pNext.Mul(a, p)

	return xNext, pNext, nil
}
