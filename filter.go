package filter

import "gonum.org/v1/gonum/mat"

// Filter is a recursive linear state estimator driven one measurement at a time.
type Filter interface {
	// Predict propagates the filter state to the next step
	Predict() error
	// Update corrects the filter state using measurement z
	Update(z any) error
	// State returns current state estimate
	State() mat.Vector
	// Cov returns current state error covariance
	Cov() mat.Matrix
}

// Adaptive is a filter which estimates its own process noise covariance
type Adaptive interface {
	// Filter is a recursive linear state estimator
	Filter
	// NoiseCov returns the currently learned process noise covariance
	NoiseCov() mat.Matrix
}

// Source produces measurements in time order.
// Next returns io.EOF once the source is exhausted.
type Source interface {
	// Next returns the next measurement
	Next() (any, error)
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}

// Smoother refines filter estimates using measurements from the whole sequence
type Smoother interface {
	// Smooth returns smoothed estimates given filter estimates est
	Smooth(est []Estimate) ([]Estimate, error)
}
