package estimate

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	filter "github.com/adaptkf/go-estimate"
)

// CSVExporter writes estimates to CSV along with their 2-sigma bounds
type CSVExporter struct {
	w *csv.Writer
	n int
}

// NewCSVExporter creates new CSVExporter for estimates with n states which writes to w.
// The header row is written immediately: t, then for every state x<i>, x<i>_lo and x<i>_hi.
// It returns error if n is not positive or the header can not be written.
func NewCSVExporter(w io.Writer, n int) (*CSVExporter, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of states: %d", n)
	}

	header := []string{"t"}
	for i := 0; i < n; i++ {
		x := "x" + strconv.Itoa(i)
		header = append(header, x, x+"_lo", x+"_hi")
	}

	e := &CSVExporter{w: csv.NewWriter(w), n: n}
	if err := e.w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return e, nil
}

// Write writes estimate est taken at time t.
// It returns error if est does not have the exporter's number of states.
func (e *CSVExporter) Write(t float64, est filter.Estimate) error {
	val := est.Val()
	cov := est.Cov()

	if val.Len() != e.n || cov.SymmetricDim() != e.n {
		return fmt.Errorf("%w: estimate: %d, exporter: %d", filter.ErrDimMismatch, val.Len(), e.n)
	}

	record := []string{format(t)}
	for i := 0; i < e.n; i++ {
		x := val.AtVec(i)
		bound := 2 * math.Sqrt(math.Max(cov.At(i, i), 0))
		record = append(record, format(x), format(x-bound), format(x+bound))
	}

	return e.w.Write(record)
}

// Flush writes any buffered records and returns the first error encountered while writing.
func (e *CSVExporter) Flush() error {
	e.w.Flush()
	return e.w.Error()
}

func format(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
