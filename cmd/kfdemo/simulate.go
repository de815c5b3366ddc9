package main

import (
	"fmt"

	"github.com/adaptkf/go-estimate/batch"
	"github.com/adaptkf/go-estimate/config"
	"github.com/adaptkf/go-estimate/matrix"
	"github.com/adaptkf/go-estimate/metrics"
	"github.com/adaptkf/go-estimate/noise"
	"github.com/adaptkf/go-estimate/sim"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func doSimulate(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	steps, err := cmd.Flags().GetInt("steps")
	if err != nil {
		return err
	}
	if steps <= 0 {
		steps = c.Signal.Density
	}

	m, err := newModel(c)
	if err != nil {
		return err
	}

	x0, err := matrix.ToVecDense(c.Filter.X0.Value())
	if err != nil {
		return fmt.Errorf("invalid initial state: %w", err)
	}

	states, meas, err := m.Simulate(x0, steps)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	f, err := c.NewFilter()
	if err != nil {
		return fmt.Errorf("failed to create filter: %w", err)
	}

	zs := make([]*mat.VecDense, steps)
	for i := range zs {
		zs[i] = mat.VecDenseCopyOf(meas.RowView(i))
	}

	est, err := batch.Run(f, zs)
	if err != nil {
		return fmt.Errorf("filter failed: %w", err)
	}

	_, nx := states.Dims()

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"state", "RMSE", "MAE"})

	for i := 0; i < nx; i++ {
		truth := mat.Col(nil, i, states)
		x := mat.Col(nil, i, est)

		rmse, err := metrics.RMSE(truth, x)
		if err != nil {
			return err
		}
		mae, err := metrics.MAE(truth, x)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{fmt.Sprintf("x%d", i), fmt.Sprintf("%.5f", rmse), fmt.Sprintf("%.5f", mae)})
	}
	t.Render()

	log.WithFields(log.Fields{
		"filter": c.Filter.Kind,
		"steps":  steps,
	}).Info("model simulated")

	return nil
}

// newModel creates a model driven by the configured process and measurement noise.
// Process noise covariance is Q and is shaped into the state space by Gamma.
func newModel(c *config.Config) (*sim.Model, error) {
	q, err := matrix.ToDense(c.Filter.Q.Value())
	if err != nil {
		return nil, fmt.Errorf("invalid process noise covariance: %w", err)
	}

	r, err := matrix.ToDense(c.Filter.R.Value())
	if err != nil {
		return nil, fmt.Errorf("invalid measurement noise covariance: %w", err)
	}

	w, err := gaussian(q, c.Signal.Seed)
	if err != nil {
		return nil, fmt.Errorf("invalid process noise: %w", err)
	}

	seed := c.Signal.Seed
	if seed != 0 {
		seed++
	}

	v, err := gaussian(r, seed)
	if err != nil {
		return nil, fmt.Errorf("invalid measurement noise: %w", err)
	}

	return sim.NewModel(c.Filter.A.Value(), c.Filter.H.Value(), c.Filter.Gamma.Value(), w, v)
}

func gaussian(cov *mat.Dense, seed uint64) (*noise.Gaussian, error) {
	if err := matrix.CheckSquare(cov, "cov"); err != nil {
		return nil, err
	}

	n, _ := cov.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (cov.At(i, j)+cov.At(j, i))/2)
		}
	}

	return noise.NewGaussianWithSeed(make([]float64, n), sym, seed)
}
