package forecast

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

// TimeSeriesRegressor adapts the seasonal model to the matrix contract shared
// by the other regressors. Its input is the n×3 time-feature matrix produced
// by dataset.Table.TimeFeatures: Unix seconds, working-day flag, holiday flag
// per row.
//
// Rows may arrive in any order. The adapter sorts them chronologically before
// fitting or evaluating and scatters predictions back, so output row i always
// corresponds to input row i.
type TimeSeriesRegressor struct {
	state  *model.StateManager
	logger log.Logger

	seasonal *SeasonalRegressor
}

// timeFeatureCols is the expected input width.
const timeFeatureCols = 3

// NewTimeSeriesRegressor wraps a seasonal model built from config.
func NewTimeSeriesRegressor(config SeasonalConfig) (*TimeSeriesRegressor, error) {
	seasonal, err := NewSeasonalRegressor(config)
	if err != nil {
		return nil, err
	}
	return &TimeSeriesRegressor{
		state: model.NewStateManager(),
		logger: log.GetLoggerWithName("forecast").With(
			log.ModelNameKey, "TimeSeriesRegressor",
			log.ComponentKey, "forecast",
		),
		seasonal: seasonal,
	}, nil
}

// Seasonal returns the wrapped decomposition, for diagnostics.
func (a *TimeSeriesRegressor) Seasonal() *SeasonalRegressor { return a.seasonal }

// Fit trains the seasonal model on time features X and column vector y.
func (a *TimeSeriesRegressor) Fit(X, y mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "TimeSeriesRegressor.Fit")

	obs, order, err := a.parse("TimeSeriesRegressor.Fit", X)
	if err != nil {
		return err
	}
	yRows, yCols := y.Dims()
	if yRows != len(obs) {
		return callcastErrors.NewDimensionError("TimeSeriesRegressor.Fit", len(obs), yRows, 0)
	}
	if yCols != 1 {
		return callcastErrors.NewValueError("TimeSeriesRegressor.Fit", "y must be a column vector")
	}

	targets := make([]float64, len(obs))
	for i, src := range order {
		targets[i] = y.At(src, 0)
	}

	if err := a.seasonal.Fit(obs, targets); err != nil {
		return err
	}

	a.state.SetFitted()
	a.state.SetDimensions(timeFeatureCols, len(obs))

	a.logger.Debug("Adapter fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(obs),
	)
	return nil
}

// Predict evaluates the fitted model, returning an n×1 matrix aligned with
// the input row order.
func (a *TimeSeriesRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "TimeSeriesRegressor.Predict")

	if !a.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("TimeSeriesRegressor", "Predict")
	}

	obs, order, err := a.parse("TimeSeriesRegressor.Predict", X)
	if err != nil {
		return nil, err
	}

	sortedPred, err := a.seasonal.Predict(obs)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(len(obs), 1, nil)
	for i, src := range order {
		out.Set(src, 0, sortedPred[i])
	}
	return out, nil
}

// Transform is Predict under the transformer contract, so the forecast can
// feed a downstream pipeline as a baseline column.
func (a *TimeSeriesRegressor) Transform(X mat.Matrix) (mat.Matrix, error) {
	return a.Predict(X)
}

// IsFitted reports whether Fit has run.
func (a *TimeSeriesRegressor) IsFitted() bool { return a.state.IsFitted() }

// GetParams exposes the seasonal configuration for reporting.
func (a *TimeSeriesRegressor) GetParams() map[string]interface{} {
	c := a.seasonal.Config()
	return map[string]interface{}{
		"yearly":       c.Yearly,
		"quarterly":    c.Quarterly,
		"monthly":      c.Monthly,
		"weekly":       c.Weekly,
		"daily":        c.Daily,
		"hourly":       c.Hourly,
		"use_holidays": c.UseHolidays,
	}
}

// SetParams accepts no keys; the configuration is fixed at construction.
func (a *TimeSeriesRegressor) SetParams(params map[string]interface{}) error {
	for key := range params {
		return callcastErrors.NewValueError("TimeSeriesRegressor.SetParams", "unknown parameter: "+key)
	}
	return nil
}

// parse converts the time-feature matrix to chronologically sorted
// observations, returning the permutation mapping sorted position to the
// original row index.
func (a *TimeSeriesRegressor) parse(op string, X mat.Matrix) ([]Observation, []int, error) {
	n, c := X.Dims()
	if n == 0 {
		return nil, nil, callcastErrors.NewModelError(op, "empty data", callcastErrors.ErrEmptyData)
	}
	if c != timeFeatureCols {
		return nil, nil, callcastErrors.NewDimensionError(op, timeFeatureCols, c, 1)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return X.At(order[a], 0) < X.At(order[b], 0)
	})

	obs := make([]Observation, n)
	for i, src := range order {
		obs[i] = Observation{
			Time:       time.Unix(int64(X.At(src, 0)), 0).UTC(),
			WorkingDay: X.At(src, 1) != 0,
			Holiday:    X.At(src, 2) != 0,
		}
	}
	return obs, order, nil
}
