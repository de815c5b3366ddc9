package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewSignalPlot creates new plot of a filtered signal from the three data series
// sampled at times t:
// truth:    noiseless signal values
// noisy:    measurement values
// filtered: filter estimates
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * t is empty
// * either of the supplied series differs in length from t
// * gonum plot fails to be created
func NewSignalPlot(t, truth, noisy, filtered []float64) (*plot.Plot, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("invalid data supplied")
	}

	for name, s := range map[string][]float64{"truth": truth, "noisy": noisy, "filtered": filtered} {
		if len(s) != len(t) {
			return nil, fmt.Errorf("invalid %s data length: %d != %d", name, len(s), len(t))
		}
	}

	p := plot.New()

	p.Title.Text = "Signal"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "value"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	// Make a scatter plotter for measurement data
	measScatter, err := plotter.NewScatter(makePoints(t, noisy))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	measScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	measScatter.Shape = draw.CircleGlyph{}
	measScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(measScatter)
	p.Legend.Add("measurement", measScatter)

	// Make a line plotter for true signal
	truthLine, err := plotter.NewLine(makePoints(t, truth))
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %v", err)
	}
	truthLine.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	truthLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(truthLine)
	p.Legend.Add("truth", truthLine)

	// Make a line plotter for filter data
	filterLine, err := plotter.NewLine(makePoints(t, filtered))
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %v", err)
	}
	filterLine.LineStyle.Color = color.RGBA{B: 255, A: 255}
	filterLine.LineStyle.Width = vg.Points(1.5)

	p.Add(filterLine)
	p.Legend.Add("filtered", filterLine)

	return p, nil
}

func makePoints(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}

	return pts
}
