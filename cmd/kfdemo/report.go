package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderSummary(w io.Writer, results ...*result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"metric"}
	for _, r := range results {
		header = append(header, r.kind)
	}
	t.AppendHeader(header)

	rows := []struct {
		name string
		val  func(r *result) string
	}{
		{"MSE", func(r *result) string { return fmt.Sprintf("%.5f", r.summary.MSE) }},
		{"RMSE", func(r *result) string { return fmt.Sprintf("%.5f", r.summary.RMSE) }},
		{"MAE", func(r *result) string { return fmt.Sprintf("%.5f", r.summary.MAE) }},
		{"SNR, dB", func(r *result) string { return fmt.Sprintf("%.2f", r.summary.SNR) }},
		{"Delta MSE, %", func(r *result) string { return fmt.Sprintf("%.2f", r.summary.DeltaMSE) }},
		{"learned Q", func(r *result) string {
			if r.noiseCov == "" {
				return "-"
			}
			return r.noiseCov
		}},
	}

	for _, row := range rows {
		tr := table.Row{row.name}
		for _, r := range results {
			tr = append(tr, row.val(r))
		}
		t.AppendRow(tr)
	}

	t.Render()
}
