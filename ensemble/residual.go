// Package ensemble combines the seasonal baseline with a tree ensemble: the
// ResidualLeverager stacks a correction model on top of the time-series
// forecast.
package ensemble

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
	"github.com/ezoic/callcast/tree"
)

// ResidualLeverager layers a random forest over a baseline forecast. Its
// input matrix carries the baseline predictions in column 0 and the encoded
// weather/calendar features in the remaining columns.
//
// The inner forest is trained to reproduce the baseline column from the
// feature columns, and the final prediction subtracts that reproduction from
// the baseline. The target never enters the inner fit; the correction is a
// function of the baseline alone. This mirrors the original analysis exactly,
// defect included (see DESIGN.md).
type ResidualLeverager struct {
	state  *model.StateManager
	logger log.Logger

	inner *tree.RandomForestRegressor

	nFeatures int
}

// NewResidualLeverager creates the stack around the given forest. A nil
// forest gets the package defaults.
func NewResidualLeverager(inner *tree.RandomForestRegressor) *ResidualLeverager {
	if inner == nil {
		inner = tree.NewRandomForestRegressor()
	}
	return &ResidualLeverager{
		state: model.NewStateManager(),
		logger: log.GetLoggerWithName("ensemble").With(
			log.ModelNameKey, "ResidualLeverager",
			log.ComponentKey, "ensemble",
		),
		inner: inner,
	}
}

// WithBaseline builds the stacked input: the n×1 baseline matrix prepended to
// the feature matrix.
func WithBaseline(baseline, features mat.Matrix) (mat.Matrix, error) {
	bn, bc := baseline.Dims()
	fn, fc := features.Dims()
	if bc != 1 {
		return nil, callcastErrors.NewValueError("ensemble.WithBaseline", "baseline must be a column vector")
	}
	if bn != fn {
		return nil, callcastErrors.NewDimensionError("ensemble.WithBaseline", bn, fn, 0)
	}

	out := mat.NewDense(bn, 1+fc, nil)
	for i := 0; i < bn; i++ {
		out.Set(i, 0, baseline.At(i, 0))
		for j := 0; j < fc; j++ {
			out.Set(i, j+1, features.At(i, j))
		}
	}
	return out, nil
}

// Fit trains the inner forest. X must carry the baseline in column 0 and at
// least one feature column; y is accepted for interface compatibility and
// validated for shape, but the inner fit targets the baseline column.
func (rl *ResidualLeverager) Fit(X, y mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "ResidualLeverager.Fit")

	start := time.Now()
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return callcastErrors.NewModelError("ResidualLeverager.Fit", "empty data", callcastErrors.ErrEmptyData)
	}
	if p < 2 {
		return callcastErrors.NewValueError("ResidualLeverager.Fit", "X needs a baseline column and at least one feature column")
	}
	yRows, yCols := y.Dims()
	if yRows != n {
		return callcastErrors.NewDimensionError("ResidualLeverager.Fit", n, yRows, 0)
	}
	if yCols != 1 {
		return callcastErrors.NewValueError("ResidualLeverager.Fit", "y must be a column vector")
	}

	rl.nFeatures = p

	baseline, features := splitBaseline(X)
	if err := rl.inner.Fit(features, baseline); err != nil {
		return err
	}

	rl.state.SetFitted()
	rl.state.SetDimensions(p, n)

	rl.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns baseline minus the inner forest's output, as an n×1
// matrix.
func (rl *ResidualLeverager) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "ResidualLeverager.Predict")

	if !rl.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("ResidualLeverager", "Predict")
	}

	n, p := X.Dims()
	if p != rl.nFeatures {
		return nil, callcastErrors.NewDimensionError("ResidualLeverager.Predict", rl.nFeatures, p, 1)
	}

	baseline, features := splitBaseline(X)
	correction, err := rl.inner.Predict(features)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, baseline.At(i, 0)-correction.At(i, 0))
	}
	return out, nil
}

// Inner returns the wrapped forest, for diagnostics.
func (rl *ResidualLeverager) Inner() *tree.RandomForestRegressor { return rl.inner }

// IsFitted reports whether Fit has run.
func (rl *ResidualLeverager) IsFitted() bool { return rl.state.IsFitted() }

// GetParams returns the inner forest's hyperparameters.
func (rl *ResidualLeverager) GetParams() map[string]interface{} {
	return rl.inner.GetParams()
}

// SetParams forwards to the inner forest.
func (rl *ResidualLeverager) SetParams(params map[string]interface{}) error {
	return rl.inner.SetParams(params)
}

// splitBaseline separates column 0 from the rest of X.
func splitBaseline(X mat.Matrix) (baseline, features *mat.Dense) {
	n, p := X.Dims()
	baseline = mat.NewDense(n, 1, nil)
	features = mat.NewDense(n, p-1, nil)
	for i := 0; i < n; i++ {
		baseline.Set(i, 0, X.At(i, 0))
		for j := 1; j < p; j++ {
			features.Set(i, j-1, X.At(i, j))
		}
	}
	return baseline, features
}
