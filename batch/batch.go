// Package batch drives filters over ordered sequences of measurements.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/estimate"
	"gonum.org/v1/gonum/mat"
)

// Step runs one predict and update cycle of f for measurement z.
func Step(f filter.Filter, z any) error {
	if err := f.Predict(); err != nil {
		return fmt.Errorf("predict failed: %w", err)
	}

	if err := f.Update(z); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	return nil
}

// Run runs one predict and update cycle of f for every measurement in zs, in order.
// It returns a matrix whose i-th row holds the state estimate after the i-th measurement.
// An empty matrix is returned if zs is empty.
// It returns error if any cycle fails; the filter is left in the state of the last successful cycle.
func Run[M any](f filter.Filter, zs []M) (*mat.Dense, error) {
	if len(zs) == 0 {
		return &mat.Dense{}, nil
	}

	var out *mat.Dense
	for i, z := range zs {
		if err := Step(f, z); err != nil {
			return nil, fmt.Errorf("measurement %d: %w", i, err)
		}

		x := f.State()
		if out == nil {
			out = mat.NewDense(len(zs), x.Len(), nil)
		}

		if _, n := out.Dims(); n != x.Len() {
			return nil, fmt.Errorf("measurement %d: %w: state length changed: %d != %d", i, filter.ErrDimMismatch, x.Len(), n)
		}

		for j := 0; j < x.Len(); j++ {
			out.Set(i, j, x.AtVec(j))
		}
	}

	return out, nil
}

// Trace runs f over zs like Run, but returns state and covariance snapshot after every cycle.
func Trace[M any](f filter.Filter, zs []M) ([]filter.Estimate, error) {
	ests := make([]filter.Estimate, 0, len(zs))

	for i, z := range zs {
		if err := Step(f, z); err != nil {
			return nil, fmt.Errorf("measurement %d: %w", i, err)
		}

		est, err := estimate.NewBaseWithCov(f.State(), f.Cov())
		if err != nil {
			return nil, fmt.Errorf("measurement %d: %w", i, err)
		}
		ests = append(ests, est)
	}

	return ests, nil
}

// Stream pulls measurements from src and runs one predict and update cycle of f for each of them.
// fn, if not nil, is called with the measurement index and the estimate after every cycle.
// Stream returns the number of completed cycles once src returns io.EOF.
// ctx is checked between cycles only: a cancelled stream leaves f at its last consistent state.
// It returns error if src, the filter or fn fails.
func Stream(ctx context.Context, f filter.Filter, src filter.Source, fn func(int, filter.Estimate) error) (int, error) {
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		z, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("source failed: %w", err)
		}

		if err := Step(f, z); err != nil {
			return n, fmt.Errorf("measurement %d: %w", n, err)
		}

		if fn == nil {
			continue
		}

		est, err := estimate.NewBaseWithCov(f.State(), f.Cov())
		if err != nil {
			return n, fmt.Errorf("measurement %d: %w", n, err)
		}

		if err := fn(n, est); err != nil {
			return n + 1, err
		}
	}
}
