package main

import (
	"fmt"
	"os"
	"strings"

	filter "github.com/adaptkf/go-estimate"
	"github.com/adaptkf/go-estimate/batch"
	"github.com/adaptkf/go-estimate/config"
	"github.com/adaptkf/go-estimate/estimate"
	"github.com/adaptkf/go-estimate/kalman/akf"
	"github.com/adaptkf/go-estimate/kalman/kf"
	"github.com/adaptkf/go-estimate/matrix"
	"github.com/adaptkf/go-estimate/metrics"
	"github.com/adaptkf/go-estimate/sim"
	"github.com/adaptkf/go-estimate/smooth/rts"
	"github.com/adaptkf/go-estimate/source"
	gomatrix "github.com/milosgajdos/matrix"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

// result is an outcome of filtering a signal
type result struct {
	kind     string
	filtered []float64
	ests     []filter.Estimate
	summary  *metrics.Summary
	noiseCov string
	// noise is process noise covariance in the state space as known after filtering
	noise mat.Matrix
}

func doRun(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	if kind != "" {
		c = c.WithKind(kind)
	}

	plotPath, err := cmd.Flags().GetString("plot")
	if err != nil {
		return err
	}
	if plotPath == "" {
		plotPath = c.Output.Plot
	}

	csvPath, err := cmd.Flags().GetString("csv")
	if err != nil {
		return err
	}
	if csvPath == "" {
		csvPath = c.Output.CSV
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sig, err := generate(c)
	if err != nil {
		return err
	}

	res, err := filterSignal(cmd, c, sig, csvPath)
	if err != nil {
		return err
	}

	results := []*result{res}

	smooth, err := cmd.Flags().GetBool("smooth")
	if err != nil {
		return err
	}
	if smooth {
		sres, err := smoothSignal(c, sig, res)
		if err != nil {
			return err
		}
		results = append(results, sres)
	}

	renderSummary(cmd.OutOrStdout(), results...)

	if plotPath != "" {
		p, err := sim.NewSignalPlot(sig.T, sig.Truth, sig.Noisy, res.filtered)
		if err != nil {
			return fmt.Errorf("failed to plot signal: %w", err)
		}
		if err := p.Save(8*vg.Inch, 4*vg.Inch, plotPath); err != nil {
			return fmt.Errorf("failed to save plot: %w", err)
		}
		log.WithFields(log.Fields{"path": plotPath}).Info("plot saved")
	}

	return nil
}

func doCompare(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sig, err := generate(c)
	if err != nil {
		return err
	}

	var results []*result
	for _, kind := range []string{config.KindKalman, config.KindAdaptive} {
		kc := c.WithKind(kind)
		if err := kc.Validate(); err != nil {
			return fmt.Errorf("invalid %s config: %w", kind, err)
		}

		res, err := filterSignal(cmd, kc, sig, "")
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	renderSummary(cmd.OutOrStdout(), results...)

	return nil
}

func generate(c *config.Config) (*sim.Signal, error) {
	fn, err := c.Signal.Fn()
	if err != nil {
		return nil, err
	}

	s := c.Signal
	sig, err := sim.NormallyNoisy(fn, s.Start, s.End, s.Density, s.Sigma, s.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signal: %w", err)
	}

	log.WithFields(log.Fields{
		"func":    s.Func,
		"samples": sig.Len(),
		"sigma":   s.Sigma,
		"seed":    s.Seed,
	}).Debug("signal generated")

	return sig, nil
}

// filterSignal runs the configured filter over noisy signal values.
// The first state component is taken as the filtered signal.
func filterSignal(cmd *cobra.Command, c *config.Config, sig *sim.Signal, csvPath string) (*result, error) {
	f, err := c.NewFilter()
	if err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}

	var exp *estimate.CSVExporter
	if csvPath != "" {
		file, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer file.Close()

		exp, err = estimate.NewCSVExporter(file, f.State().Len())
		if err != nil {
			return nil, err
		}
	}

	filtered := make([]float64, 0, sig.Len())
	ests := make([]filter.Estimate, 0, sig.Len())
	n, err := batch.Stream(cmd.Context(), f, source.NewSlice(sig.Noisy), func(i int, est filter.Estimate) error {
		filtered = append(filtered, est.Val().AtVec(0))
		ests = append(ests, est)

		log.WithFields(log.Fields{
			"step":  i,
			"z":     sig.Noisy[i],
			"state": est.Val().AtVec(0),
		}).Trace("filter step")

		if exp != nil {
			return exp.Write(sig.T[i], est)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filter failed after %d steps: %w", n, err)
	}

	if exp != nil {
		if err := exp.Flush(); err != nil {
			return nil, fmt.Errorf("failed to write CSV: %w", err)
		}
		log.WithFields(log.Fields{"path": csvPath}).Info("estimates exported")
	}

	summary, err := metrics.Summarize(sig.Truth, sig.Noisy, filtered)
	if err != nil {
		return nil, err
	}

	res := &result{
		kind:     strings.ToLower(c.Filter.Kind),
		filtered: filtered,
		ests:     ests,
		summary:  summary,
	}

	switch v := f.(type) {
	case *akf.AKF:
		res.noiseCov = fmt.Sprintf("%.6g", matrix.Flatten(v.NoiseCov()).RawVector().Data)
		gqg := &mat.Dense{}
		gqg.Product(v.Gamma(), v.NoiseCov(), v.Gamma().T())
		res.noise = gqg
		log.Debugf("learned process noise covariance:\n%v", gomatrix.Format(v.NoiseCov()))
	case *kf.KF:
		res.noise = v.Q()
	}

	log.WithFields(log.Fields{
		"filter": res.kind,
		"steps":  n,
		"mse":    summary.MSE,
	}).Info("signal filtered")

	return res, nil
}

// smoothSignal runs Rauch-Tung-Striebel smoother over the estimates of res.
func smoothSignal(c *config.Config, sig *sim.Signal, res *result) (*result, error) {
	if res.noise == nil {
		return nil, fmt.Errorf("filter %s can not be smoothed", res.kind)
	}

	s, err := rts.New(c.Filter.A.Value(), res.noise)
	if err != nil {
		return nil, fmt.Errorf("failed to create smoother: %w", err)
	}

	sx, err := s.Smooth(res.ests)
	if err != nil {
		return nil, fmt.Errorf("smoothing failed: %w", err)
	}

	smoothed := make([]float64, len(sx))
	for i := range sx {
		smoothed[i] = sx[i].Val().AtVec(0)
	}

	summary, err := metrics.Summarize(sig.Truth, sig.Noisy, smoothed)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"filter": res.kind,
		"mse":    summary.MSE,
	}).Info("signal smoothed")

	return &result{
		kind:     res.kind + "+rts",
		filtered: smoothed,
		ests:     sx,
		summary:  summary,
		noiseCov: res.noiseCov,
	}, nil
}
