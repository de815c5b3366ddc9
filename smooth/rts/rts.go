// Package rts implements Rauch-Tung-Striebel fixed interval smoother for linear filters.
package rts

import (
	"fmt"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/estimate"
	"github.com/adaptkf/go-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

// RTS is Rauch-Tung-Striebel smoother
type RTS struct {
	// a is state transition matrix
	a *mat.Dense
	// q is process noise covariance in the state space
	q *mat.Dense
}

// New creates new RTS for the model with state transition matrix A and
// process noise covariance Q and returns it.
// It returns error if A and Q can not be coerced or are not square matrices of the same size.
func New(A, Q any) (*RTS, error) {
	a, err := matrix.ToDense(A)
	if err != nil {
		return nil, fmt.Errorf("invalid state transition matrix: %w", err)
	}

	q, err := matrix.ToDense(Q)
	if err != nil {
		return nil, fmt.Errorf("invalid process noise covariance: %w", err)
	}

	if err := matrix.CheckSquare(a, "A"); err != nil {
		return nil, err
	}

	if err := matrix.CheckDims(a, q, "A", "Q", matrix.RowsAndCols); err != nil {
		return nil, err
	}

	return &RTS{a: a, q: q}, nil
}

// Smooth implements Rauch-Tung-Striebel smoothing algorithm.
// It uses filtered estimates est, ordered in time, to compute smoothed estimates and returns them.
// The last smoothed estimate equals the last filtered one.
// It returns error if est is empty, its estimates do not match the model or smoothing could not be computed.
func (s *RTS) Smooth(est []filter.Estimate) ([]filter.Estimate, error) {
	if len(est) == 0 {
		return nil, fmt.Errorf("invalid estimates size: %d", len(est))
	}

	n, _ := s.a.Dims()
	for i, e := range est {
		if e.Val().Len() != n {
			return nil, fmt.Errorf("estimate %d: %w: state: %d, model: %d", i, filter.ErrDimMismatch, e.Val().Len(), n)
		}
	}

	sx := make([]filter.Estimate, len(est))

	last, err := estimate.NewBaseWithCov(est[len(est)-1].Val(), est[len(est)-1].Cov())
	if err != nil {
		return nil, err
	}
	sx[len(est)-1] = last

	// smoothed state and covariance of the step ahead
	xs := mat.VecDenseCopyOf(last.Val())
	ps := mat.DenseCopyOf(last.Cov())

	for i := len(est) - 2; i >= 0; i-- {
		xk := est[i].Val()
		pk := est[i].Cov()

		// predicted state and covariance
		xk1 := &mat.VecDense{}
		xk1.MulVec(s.a, xk)

		pk1 := &mat.Dense{}
		pk1.Product(s.a, pk, s.a.T())
		pk1.Add(pk1, s.q)

		pinv, err := matrix.Inverse(pk1)
		if err != nil {
			return nil, fmt.Errorf("estimate %d: predicted covariance: %w", i, err)
		}

		// smoothing gain: Pk*A'*inv(P_k+1)
		c := &mat.Dense{}
		c.Product(pk, s.a.T(), pinv)

		// xk + C*(xs_k+1 - x_k+1)
		dx := &mat.VecDense{}
		dx.SubVec(xs, xk1)
		cdx := &mat.VecDense{}
		cdx.MulVec(c, dx)
		x := &mat.VecDense{}
		x.AddVec(xk, cdx)

		// Pk + C*(Ps_k+1 - P_k+1)*C'
		dp := &mat.Dense{}
		dp.Sub(ps, pk1)
		cdp := &mat.Dense{}
		cdp.Product(c, dp, c.T())
		p := &mat.Dense{}
		p.Add(pk, cdp)

		e, err := estimate.NewBaseWithCov(x, p)
		if err != nil {
			return nil, err
		}
		sx[i] = e

		xs, ps = x, p
	}

	return sx, nil
}
