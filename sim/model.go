package sim

import (
	"fmt"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/matrix"
	"gonum.org/v1/gonum/mat"
)

// Model is a linear discrete-time model of a dynamical system
//
//	x[k+1] = Phi*x[k] + Gamma*w[k]
//	z[k]   = H*x[k] + v[k]
//
// where w is process noise and v is measurement noise.
type Model struct {
	// Phi is state transition matrix
	Phi *mat.Dense
	// H is observation matrix
	H *mat.Dense
	// Gamma maps process noise into the state space
	Gamma *mat.Dense
	// w is process noise
	w filter.Noise
	// v is measurement noise
	v filter.Noise
}

// NewModel creates new Model and returns it.
// Matrices are coerced with matrix.ToDense. Nil noise means the model is noiseless in it.
// It returns error if the matrices or noise dimensions do not agree.
func NewModel(Phi, H, Gamma any, w, v filter.Noise) (*Model, error) {
	phi, err := matrix.ToDense(Phi)
	if err != nil {
		return nil, fmt.Errorf("invalid state transition matrix: %w", err)
	}

	h, err := matrix.ToDense(H)
	if err != nil {
		return nil, fmt.Errorf("invalid observation matrix: %w", err)
	}

	gamma, err := matrix.ToDense(Gamma)
	if err != nil {
		return nil, fmt.Errorf("invalid noise shaping matrix: %w", err)
	}

	if err := matrix.CheckSquare(phi, "Phi"); err != nil {
		return nil, err
	}

	if err := matrix.CheckDims(phi, h, "Phi", "H", matrix.Cols2Cols); err != nil {
		return nil, err
	}

	if err := matrix.CheckDims(phi, gamma, "Phi", "Gamma", matrix.Rows2Rows); err != nil {
		return nil, err
	}

	m := &Model{Phi: phi, H: h, Gamma: gamma, w: w, v: v}

	_, ny, nq := m.Dims()

	if w != nil && len(w.Mean()) != nq {
		return nil, fmt.Errorf("%w: process noise: %d, Gamma(...x%d)", filter.ErrDimMismatch, len(w.Mean()), nq)
	}

	if v != nil && len(v.Mean()) != ny {
		return nil, fmt.Errorf("%w: measurement noise: %d, H(%dx...)", filter.ErrDimMismatch, len(v.Mean()), ny)
	}

	return m, nil
}

// Dims returns state length nx, measurement length ny and process noise length nq.
func (m *Model) Dims() (nx, ny, nq int) {
	nx, _ = m.Phi.Dims()
	ny, _ = m.H.Dims()
	_, nq = m.Gamma.Dims()

	return nx, ny, nq
}

// Propagate returns the next state of the system given its current state x.
// It returns error if x is of invalid length.
func (m *Model) Propagate(x mat.Vector) (*mat.VecDense, error) {
	if err := matrix.CheckDims(m.Phi, x, "Phi", "x", matrix.Cols2Rows); err != nil {
		return nil, err
	}

	out := &mat.VecDense{}
	out.MulVec(m.Phi, x)

	if m.w != nil {
		gw := &mat.VecDense{}
		gw.MulVec(m.Gamma, m.w.Sample())
		out.AddVec(out, gw)
	}

	return out, nil
}

// Observe returns measurement of the system in state x.
// It returns error if x is of invalid length.
func (m *Model) Observe(x mat.Vector) (*mat.VecDense, error) {
	if err := matrix.CheckDims(m.H, x, "H", "x", matrix.Cols2Rows); err != nil {
		return nil, err
	}

	out := &mat.VecDense{}
	out.MulVec(m.H, x)

	if m.v != nil {
		out.AddVec(out, m.v.Sample())
	}

	return out, nil
}

// Simulate runs the model for steps steps starting from x0.
// It returns matrices whose i-th rows hold the true state and its measurement after i+1 steps.
func (m *Model) Simulate(x0 mat.Vector, steps int) (states, measurements *mat.Dense, err error) {
	if steps <= 0 {
		return nil, nil, fmt.Errorf("invalid number of steps: %d", steps)
	}

	if x0 == nil {
		return nil, nil, fmt.Errorf("invalid initial state: %v", x0)
	}

	nx, ny, _ := m.Dims()
	states = mat.NewDense(steps, nx, nil)
	measurements = mat.NewDense(steps, ny, nil)

	x := mat.VecDenseCopyOf(x0)
	for i := 0; i < steps; i++ {
		x, err = m.Propagate(x)
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %w", i, err)
		}

		z, err := m.Observe(x)
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %w", i, err)
		}

		states.SetRow(i, x.RawVector().Data)
		measurements.SetRow(i, z.RawVector().Data)
	}

	return states, measurements, nil
}
