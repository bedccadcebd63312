// Package visualize renders the diagnostic plots of the analysis as PNG
// files: the predicted-vs-true scatter per model, the forecast line plot, and
// exploratory feature histograms. Plots are presentation-only; nothing
// downstream reads them back.
package visualize

import (
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

const plotSize = 6 * vg.Inch

// SavePredictionScatter writes a predicted-vs-true scatter with the identity
// line. A perfect model puts every point on the diagonal.
func SavePredictionScatter(path, title string, yTrue, yPred mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "visualize.SavePredictionScatter")

	n, err := sameLength(yTrue, yPred)
	if err != nil {
		return err
	}

	pts := make(plotter.XYs, n)
	lo, hi := yTrue.At(0, 0), yTrue.At(0, 0)
	for i := 0; i < n; i++ {
		t, p := yTrue.At(i, 0), yPred.At(i, 0)
		pts[i].X = t
		pts[i].Y = p
		if t < lo {
			lo = t
		}
		if t > hi {
			hi = t
		}
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "observed cnt"
	pl.Y.Label.Text = "predicted cnt"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return callcastErrors.Wrap(err, "visualize.SavePredictionScatter")
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	pl.Add(scatter)

	identity := plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}}
	line, err := plotter.NewLine(identity)
	if err != nil {
		return callcastErrors.Wrap(err, "visualize.SavePredictionScatter")
	}
	pl.Add(line)

	if err := pl.Save(plotSize, plotSize, path); err != nil {
		return callcastErrors.Wrap(err, "visualize.SavePredictionScatter")
	}
	return nil
}

// SaveForecastLines writes the observed and fitted series over time on one
// plot.
func SaveForecastLines(path, title string, timestamps []time.Time, observed, fitted []float64) (err error) {
	defer callcastErrors.Recover(&err, "visualize.SaveForecastLines")

	if len(timestamps) == 0 {
		return callcastErrors.NewValueError("visualize.SaveForecastLines", "empty series")
	}
	if len(observed) != len(timestamps) || len(fitted) != len(timestamps) {
		return callcastErrors.NewDimensionError("visualize.SaveForecastLines", len(timestamps), len(observed), 0)
	}

	obsPts := make(plotter.XYs, len(timestamps))
	fitPts := make(plotter.XYs, len(timestamps))
	for i, ts := range timestamps {
		x := float64(ts.Unix())
		obsPts[i] = plotter.XY{X: x, Y: observed[i]}
		fitPts[i] = plotter.XY{X: x, Y: fitted[i]}
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "time"
	pl.Y.Label.Text = "cnt"
	pl.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	obsLine, err := plotter.NewLine(obsPts)
	if err != nil {
		return callcastErrors.Wrap(err, "visualize.SaveForecastLines")
	}
	fitLine, err := plotter.NewLine(fitPts)
	if err != nil {
		return callcastErrors.Wrap(err, "visualize.SaveForecastLines")
	}
	fitLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	pl.Add(obsLine, fitLine)
	pl.Legend.Add("observed", obsLine)
	pl.Legend.Add("fitted", fitLine)

	if err := pl.Save(2*plotSize, plotSize, path); err != nil {
		return callcastErrors.Wrap(err, "visualize.SaveForecastLines")
	}
	return nil
}

// SaveHistogram writes a distribution histogram of one feature column.
func SaveHistogram(path, title string, values []float64, bins int) (err error) {
	defer callcastErrors.Recover(&err, "visualize.SaveHistogram")

	if len(values) == 0 {
		return callcastErrors.NewValueError("visualize.SaveHistogram", "empty values")
	}
	if bins <= 0 {
		bins = 30
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.Y.Label.Text = "count"

	hist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return callcastErrors.Wrap(err, "visualize.SaveHistogram")
	}
	pl.Add(hist)

	if err := pl.Save(plotSize, plotSize, path); err != nil {
		return callcastErrors.Wrap(err, "visualize.SaveHistogram")
	}
	return nil
}

// sameLength validates two column vectors and returns their length.
func sameLength(a, b mat.Matrix) (int, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar == 0 {
		return 0, callcastErrors.NewValueError("visualize", "empty vector")
	}
	if ac != 1 || bc != 1 {
		return 0, callcastErrors.NewValueError("visualize", "inputs must be column vectors")
	}
	if ar != br {
		return 0, callcastErrors.NewDimensionError("visualize", ar, br, 0)
	}
	return ar, nil
}
