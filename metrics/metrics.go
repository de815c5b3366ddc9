// Package metrics measures how closely filter estimates follow a true signal.
package metrics

import (
	"fmt"
	"math"

	filter "github.com/adaptkf/go-estimate"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds filter quality metrics computed against the true signal
type Summary struct {
	// MSE is mean squared error of the filtered signal
	MSE float64 `json:"mse" yaml:"mse"`
	// RMSE is root mean squared error of the filtered signal
	RMSE float64 `json:"rmse" yaml:"rmse"`
	// MAE is mean absolute error of the filtered signal
	MAE float64 `json:"mae" yaml:"mae"`
	// SNR is signal to noise ratio of the filtered signal in decibels
	SNR float64 `json:"snr" yaml:"snr"`
	// DeltaMSE is the relative MSE reduction of filtered over noisy signal in percent
	DeltaMSE float64 `json:"delta_mse" yaml:"delta_mse"`
}

func residuals(truth, est []float64) ([]float64, error) {
	if len(truth) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	if len(truth) != len(est) {
		return nil, fmt.Errorf("%w: signal lengths: %d != %d", filter.ErrDimMismatch, len(truth), len(est))
	}

	res := make([]float64, len(truth))
	floats.SubTo(res, truth, est)

	return res, nil
}

// MSE returns mean squared error of est.
// It returns error if the signals are empty or differ in length.
func MSE(truth, est []float64) (float64, error) {
	res, err := residuals(truth, est)
	if err != nil {
		return 0, err
	}
	floats.Mul(res, res)

	return stat.Mean(res, nil), nil
}

// RMSE returns root mean squared error of est.
func RMSE(truth, est []float64) (float64, error) {
	mse, err := MSE(truth, est)
	if err != nil {
		return 0, err
	}

	return math.Sqrt(mse), nil
}

// MAE returns mean absolute error of est.
func MAE(truth, est []float64) (float64, error) {
	res, err := residuals(truth, est)
	if err != nil {
		return 0, err
	}

	for i := range res {
		res[i] = math.Abs(res[i])
	}

	return stat.Mean(res, nil), nil
}

// SNR returns signal to noise ratio of est in decibels: 10*log10(var(truth)/var(truth-est)),
// where var is population variance. A perfect estimate yields +Inf.
func SNR(truth, est []float64) (float64, error) {
	res, err := residuals(truth, est)
	if err != nil {
		return 0, err
	}

	return 10 * math.Log10(popVariance(truth)/popVariance(res)), nil
}

// Summarize computes metrics of filtered against truth and compares it to noisy.
// DeltaMSE is NaN if noisy matches truth exactly.
func Summarize(truth, noisy, filtered []float64) (*Summary, error) {
	mseNoisy, err := MSE(truth, noisy)
	if err != nil {
		return nil, fmt.Errorf("noisy signal: %w", err)
	}

	mse, err := MSE(truth, filtered)
	if err != nil {
		return nil, fmt.Errorf("filtered signal: %w", err)
	}

	mae, err := MAE(truth, filtered)
	if err != nil {
		return nil, fmt.Errorf("filtered signal: %w", err)
	}

	snr, err := SNR(truth, filtered)
	if err != nil {
		return nil, fmt.Errorf("filtered signal: %w", err)
	}

	delta := math.NaN()
	if mseNoisy != 0 {
		delta = (mseNoisy - mse) / mseNoisy * 100
	}

	return &Summary{
		MSE:      mse,
		RMSE:     math.Sqrt(mse),
		MAE:      mae,
		SNR:      snr,
		DeltaMSE: delta,
	}, nil
}

func popVariance(x []float64) float64 {
	_, v := stat.PopMeanVariance(x, nil)
	return v
}
