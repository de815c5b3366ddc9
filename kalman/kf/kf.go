package kf

import (
	"fmt"

	"github.com/adaptkf/go-estimate/batch"
	"github.com/adaptkf/go-estimate/kalman"
	"github.com/adaptkf/go-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

// KF is linear Kalman Filter for the model
//
//	x[k] = A*x[k-1] + w,  w ~ N(0, Q)
//	z[k] = H*x[k] + v,    v ~ N(0, R)
//
// Its model parameters can be replaced between filter cycles.
// KF is not safe for concurrent use.
type KF struct {
	// a is state transition matrix
	a *mat.Dense
	// h is observation matrix
	h *mat.Dense
	// q is state noise a.k.a. process noise covariance
	q *mat.Dense
	// r is output noise a.k.a. measurement noise covariance
	r *mat.Dense
	// x is state estimate
	x *mat.VecDense
	// p is state error covariance
	p *mat.Dense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
}

// New creates new KF and returns it.
// Each parameter is either a scalar or a matrix-like value accepted by matrix.ToDense;
// x0 is coerced to a column vector:
//   - A:  state transition matrix
//   - H:  observation matrix
//   - Q:  process noise covariance
//   - R:  measurement noise covariance
//   - x0: initial state
//   - P0: initial state covariance
//
// Dimensions are not checked here: mismatches are reported by the first Predict or Update.
// It returns error if any of the parameters can not be coerced.
func New(A, H, Q, R, x0, P0 any) (*KF, error) {
	a, err := matrix.ToDense(A)
	if err != nil {
		return nil, fmt.Errorf("invalid state transition matrix: %w", err)
	}

	h, err := matrix.ToDense(H)
	if err != nil {
		return nil, fmt.Errorf("invalid observation matrix: %w", err)
	}

	q, err := matrix.ToDense(Q)
	if err != nil {
		return nil, fmt.Errorf("invalid process noise covariance: %w", err)
	}

	r, err := matrix.ToDense(R)
	if err != nil {
		return nil, fmt.Errorf("invalid measurement noise covariance: %w", err)
	}

	x, err := matrix.ToVecDense(x0)
	if err != nil {
		return nil, fmt.Errorf("invalid initial state: %w", err)
	}

	p, err := matrix.ToDense(P0)
	if err != nil {
		return nil, fmt.Errorf("invalid initial covariance: %w", err)
	}

	ny, _ := h.Dims()

	return &KF{
		a:   a,
		h:   h,
		q:   q,
		r:   r,
		x:   x,
		p:   p,
		inn: mat.NewVecDense(ny, nil),
		k:   mat.NewDense(x.Len(), ny, nil),
	}, nil
}

// Predict propagates the state estimate and its covariance to the next step:
// x = A*x, P = A*P*A' + Q.
// It returns error if model dimensions do not agree.
func (k *KF) Predict() error {
	if err := kalman.CheckPropagation(k.a, k.x, k.p, k.q); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}

	k.x, k.p = kalman.Propagate(k.a, k.x, k.p, k.q)

	return nil
}

// Update corrects the state estimate using measurement z.
// z is coerced to a column vector.
// It returns error if z or the model dimensions do not agree or if the innovation
// covariance H*P*H' + R is singular. Filter state is left untouched on error.
func (k *KF) Update(z any) error {
	zv, err := matrix.ToVecDense(z)
	if err != nil {
		return fmt.Errorf("invalid measurement: %w", err)
	}

	if err := kalman.CheckObservation(k.x, k.p, k.h, k.r, zv); err != nil {
		return fmt.Errorf("invalid measurement: %w", err)
	}

	gain, err := kalman.Gain(k.p, k.h, k.r)
	if err != nil {
		return err
	}

	inn := kalman.Innovation(zv, k.h, k.x)

	x, p, err := kalman.Correct(k.x, k.p, gain, k.h, inn)
	if err != nil {
		return err
	}

	k.x, k.p = x, p
	k.inn, k.k = inn, gain

	return nil
}

// Filter runs one Predict and Update cycle for every measurement in zs.
// It returns a matrix whose rows are the state estimates after each measurement.
func (k *KF) Filter(zs []any) (*mat.Dense, error) {
	return batch.Run(k, zs)
}

// State returns KF state estimate
func (k *KF) State() mat.Vector {
	return mat.VecDenseCopyOf(k.x)
}

// SetState sets KF state estimate to x.
// It returns error if x can not be coerced to a vector.
func (k *KF) SetState(x any) error {
	v, err := matrix.ToVecDense(x)
	if err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}
	k.x = v

	return nil
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Matrix {
	return mat.DenseCopyOf(k.p)
}

// SetCov sets KF covariance matrix to cov.
// It returns error if cov can not be coerced to a matrix.
func (k *KF) SetCov(cov any) error {
	p, err := matrix.ToDense(cov)
	if err != nil {
		return fmt.Errorf("invalid covariance matrix: %w", err)
	}
	k.p = p

	return nil
}

// Gain returns Kalman gain computed by the last Update
func (k *KF) Gain() mat.Matrix {
	return mat.DenseCopyOf(k.k)
}

// Innovation returns innovation vector computed by the last Update
func (k *KF) Innovation() mat.Vector {
	return mat.VecDenseCopyOf(k.inn)
}

// A returns state transition matrix
func (k *KF) A() mat.Matrix { return mat.DenseCopyOf(k.a) }

// H returns observation matrix
func (k *KF) H() mat.Matrix { return mat.DenseCopyOf(k.h) }

// Q returns process noise covariance
func (k *KF) Q() mat.Matrix { return mat.DenseCopyOf(k.q) }

// R returns measurement noise covariance
func (k *KF) R() mat.Matrix { return mat.DenseCopyOf(k.r) }

// SetA replaces state transition matrix
func (k *KF) SetA(A any) error {
	return set(&k.a, A, "state transition matrix")
}

// SetH replaces observation matrix
func (k *KF) SetH(H any) error {
	return set(&k.h, H, "observation matrix")
}

// SetQ replaces process noise covariance
func (k *KF) SetQ(Q any) error {
	return set(&k.q, Q, "process noise covariance")
}

// SetR replaces measurement noise covariance
func (k *KF) SetR(R any) error {
	return set(&k.r, R, "measurement noise covariance")
}

func set(dst **mat.Dense, v any, name string) error {
	m, err := matrix.ToDense(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = m

	return nil
}
