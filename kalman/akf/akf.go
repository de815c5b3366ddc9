// Package akf implements adaptive Kalman filter which estimates its process noise
// covariance from the innovation sequence.
package akf

import (
	"fmt"

	"github.com/adaptkf/go-estimate/batch"
	"github.com/adaptkf/go-estimate/kalman"
	"github.com/adaptkf/go-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

// AKF is adaptive Kalman Filter for the model
//
//	x[k] = Phi*x[k-1] + Gamma*w[k],  w ~ N(0, Q)
//	z[k] = H*x[k] + v[k],            v ~ N(0, R)
//
// where Q is not known upfront and is re-estimated on every Update.
// AKF is not safe for concurrent use.
type AKF struct {
	// phi is state transition matrix
	phi *mat.Dense
	// h is observation matrix
	h *mat.Dense
	// r is measurement noise covariance
	r *mat.Dense
	// gamma maps process noise into the state space
	gamma *mat.Dense
	// q is the learned process noise covariance
	q *mat.Dense
	// x is state estimate
	x *mat.VecDense
	// p is state error covariance
	p *mat.Dense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
	// adapted reports whether the last Update re-estimated q
	adapted bool
}

// New creates new AKF and returns it.
// Each parameter is either a scalar or a matrix-like value accepted by matrix.ToDense;
// x0 is coerced to a column vector:
//   - Phi:   state transition matrix
//   - H:     observation matrix
//   - R:     measurement noise covariance
//   - Gamma: process noise shaping matrix; its column count sets the size of Q
//   - x0:    initial state
//   - P0:    initial state covariance
//
// The learned process noise covariance starts as a zero matrix.
// It returns error if any of the parameters can not be coerced.
func New(Phi, H, R, Gamma, x0, P0 any) (*AKF, error) {
	phi, err := matrix.ToDense(Phi)
	if err != nil {
		return nil, fmt.Errorf("invalid state transition matrix: %w", err)
	}

	h, err := matrix.ToDense(H)
	if err != nil {
		return nil, fmt.Errorf("invalid observation matrix: %w", err)
	}

	r, err := matrix.ToDense(R)
	if err != nil {
		return nil, fmt.Errorf("invalid measurement noise covariance: %w", err)
	}

	gamma, err := matrix.ToDense(Gamma)
	if err != nil {
		return nil, fmt.Errorf("invalid noise shaping matrix: %w", err)
	}

	x, err := matrix.ToVecDense(x0)
	if err != nil {
		return nil, fmt.Errorf("invalid initial state: %w", err)
	}

	p, err := matrix.ToDense(P0)
	if err != nil {
		return nil, fmt.Errorf("invalid initial covariance: %w", err)
	}

	_, nq := gamma.Dims()
	ny, _ := h.Dims()

	return &AKF{
		phi:   phi,
		h:     h,
		r:     r,
		gamma: gamma,
		q:     mat.NewDense(nq, nq, nil),
		x:     x,
		p:     p,
		inn:   mat.NewVecDense(ny, nil),
		k:     mat.NewDense(x.Len(), ny, nil),
	}, nil
}

// Predict propagates the state estimate and its covariance to the next step
// using the currently learned process noise covariance:
// x = Phi*x, P = Phi*P*Phi' + Gamma*Q*Gamma'.
// It returns error if model dimensions do not agree.
func (a *AKF) Predict() error {
	if err := a.checkNoise(); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}

	// Gamma*Q*Gamma'
	gqg := &mat.Dense{}
	gqg.Product(a.gamma, a.q, a.gamma.T())

	if err := kalman.CheckPropagation(a.phi, a.x, a.p, gqg); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}

	a.x, a.p = kalman.Propagate(a.phi, a.x, a.p, gqg)

	return nil
}

// Update re-estimates the process noise covariance from the innovation of measurement z
// and then corrects the state estimate.
//
// With v = z - H*x, G = H*Gamma and D = G'*G the estimate is
//
//	Q = max(inv(D)*G'*(v*v' - H*Phi*P*Phi'*H' - R)*G*inv(D), 0)
//
// where max is applied element-wise. If D is rank deficient the previous Q is kept.
// It returns error if z or the model dimensions do not agree or if the innovation
// covariance H*P*H' + R is singular. Filter state, including Q, is left untouched on error.
func (a *AKF) Update(z any) error {
	zv, err := matrix.ToVecDense(z)
	if err != nil {
		return fmt.Errorf("invalid measurement: %w", err)
	}

	if err := kalman.CheckObservation(a.x, a.p, a.h, a.r, zv); err != nil {
		return fmt.Errorf("invalid measurement: %w", err)
	}

	if err := a.checkNoise(); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}

	if err := matrix.CheckDims(a.phi, a.p, "Phi", "P", matrix.RowsAndCols); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}

	inn := kalman.Innovation(zv, a.h, a.x)

	q, adapted, err := a.estimateQ(inn)
	if err != nil {
		return err
	}

	gain, err := kalman.Gain(a.p, a.h, a.r)
	if err != nil {
		return err
	}

	x, p, err := kalman.Correct(a.x, a.p, gain, a.h, inn)
	if err != nil {
		return err
	}

	a.x, a.p, a.q = x, p, q
	a.inn, a.k = inn, gain
	a.adapted = adapted

	return nil
}

// estimateQ returns process noise covariance estimated from innovation inn
// and whether it was re-estimated at all.
func (a *AKF) estimateQ(inn *mat.VecDense) (*mat.Dense, bool, error) {
	// G = H*Gamma
	hg := &mat.Dense{}
	hg.Mul(a.h, a.gamma)

	// D = G'*G
	denom := &mat.Dense{}
	denom.Mul(hg.T(), hg)

	nq, _ := denom.Dims()
	if matrix.Rank(denom) != nq {
		return a.q, false, nil
	}

	denomInv, err := matrix.Inverse(denom)
	if err != nil {
		return a.q, false, nil
	}

	// v*v'
	c := &mat.Dense{}
	c.Outer(1, inn, inn)

	// H*Phi*P*Phi'*H'
	hphi := &mat.Dense{}
	hphi.Mul(a.h, a.phi)
	pred := &mat.Dense{}
	pred.Product(hphi, a.p, hphi.T())

	c.Sub(c, pred)
	c.Sub(c, a.r)

	qHat := &mat.Dense{}
	qHat.Product(denomInv, hg.T(), c, hg, denomInv)

	return matrix.ClampMin(qHat, 0), true, nil
}

// checkNoise checks Gamma agrees with the state and the learned noise covariance.
func (a *AKF) checkNoise() error {
	if err := matrix.CheckDims(a.gamma, a.x, "Gamma", "x", matrix.Rows2Rows); err != nil {
		return err
	}

	return matrix.CheckDims(a.gamma, a.q, "Gamma", "Q", matrix.Cols2Rows)
}

// Filter runs one Predict and Update cycle for every measurement in zs.
// It returns a matrix whose rows are the state estimates after each measurement.
// The learned process noise covariance evolves as a side effect; see NoiseCov.
func (a *AKF) Filter(zs []any) (*mat.Dense, error) {
	return batch.Run(a, zs)
}

// State returns AKF state estimate
func (a *AKF) State() mat.Vector {
	return mat.VecDenseCopyOf(a.x)
}

// SetState sets AKF state estimate to x.
// It returns error if x can not be coerced to a vector.
func (a *AKF) SetState(x any) error {
	v, err := matrix.ToVecDense(x)
	if err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}
	a.x = v

	return nil
}

// Cov returns AKF covariance
func (a *AKF) Cov() mat.Matrix {
	return mat.DenseCopyOf(a.p)
}

// SetCov sets AKF covariance matrix to cov.
// It returns error if cov can not be coerced to a matrix.
func (a *AKF) SetCov(cov any) error {
	p, err := matrix.ToDense(cov)
	if err != nil {
		return fmt.Errorf("invalid covariance matrix: %w", err)
	}
	a.p = p

	return nil
}

// NoiseCov returns the learned process noise covariance
func (a *AKF) NoiseCov() mat.Matrix {
	return mat.DenseCopyOf(a.q)
}

// Adapted returns true if the last Update re-estimated process noise covariance
func (a *AKF) Adapted() bool {
	return a.adapted
}

// Gain returns Kalman gain computed by the last Update
func (a *AKF) Gain() mat.Matrix {
	return mat.DenseCopyOf(a.k)
}

// Innovation returns innovation vector computed by the last Update
func (a *AKF) Innovation() mat.Vector {
	return mat.VecDenseCopyOf(a.inn)
}

// Phi returns state transition matrix
func (a *AKF) Phi() mat.Matrix { return mat.DenseCopyOf(a.phi) }

// H returns observation matrix
func (a *AKF) H() mat.Matrix { return mat.DenseCopyOf(a.h) }

// R returns measurement noise covariance
func (a *AKF) R() mat.Matrix { return mat.DenseCopyOf(a.r) }

// Gamma returns process noise shaping matrix
func (a *AKF) Gamma() mat.Matrix { return mat.DenseCopyOf(a.gamma) }
