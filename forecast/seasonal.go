// Package forecast implements the structural time-series model of the
// comparison: a seasonal decomposition with Fourier terms, a linear trend and
// holiday/weekend regressors, fitted by ordinary least squares. The
// TimeSeriesRegressor adapter exposes it through the same matrix contract the
// other model families use.
package forecast

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	"github.com/ezoic/callcast/linear"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

// Seasonality periods in hours.
const (
	hoursPerDay     = 24.0
	hoursPerWeek    = 24.0 * 7.0
	hoursPerMonth   = 24.0 * 30.436875
	hoursPerQuarter = 24.0 * 91.310625
	hoursPerYear    = 24.0 * 365.2425
)

// SeasonalConfig selects the decomposition components and their Fourier
// orders. The zero value is invalid; use DefaultSeasonalConfig as a base.
type SeasonalConfig struct {
	// Component switches.
	Yearly    bool
	Quarterly bool
	Monthly   bool
	Weekly    bool
	Daily     bool
	Hourly    bool

	// Fourier orders per enabled component.
	YearlyOrder    int
	QuarterlyOrder int
	MonthlyOrder   int
	WeeklyOrder    int
	DailyOrder     int
	HourlyOrder    int

	// UseHolidays adds the holiday and weekend indicator regressors.
	UseHolidays bool
}

// DefaultSeasonalConfig enables the components hourly demand data actually
// exhibits: the within-day cycle, the weekly cycle and the yearly cycle, plus
// the exception-day regressors.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{
		Yearly:      true,
		Weekly:      true,
		Daily:       true,
		YearlyOrder: 10,
		WeeklyOrder: 3,
		DailyOrder:  4,
		UseHolidays: true,
	}
}

// Validate checks that at least one component is enabled and every enabled
// component has a positive order.
func (c SeasonalConfig) Validate() error {
	if !c.Yearly && !c.Quarterly && !c.Monthly && !c.Weekly && !c.Daily && !c.Hourly {
		return callcastErrors.NewValidationError("seasonality", "at least one component must be enabled",
			fmt.Sprintf("%+v", c))
	}
	type comp struct {
		on    bool
		order int
		name  string
	}
	for _, cc := range []comp{
		{c.Yearly, c.YearlyOrder, "YearlyOrder"},
		{c.Quarterly, c.QuarterlyOrder, "QuarterlyOrder"},
		{c.Monthly, c.MonthlyOrder, "MonthlyOrder"},
		{c.Weekly, c.WeeklyOrder, "WeeklyOrder"},
		{c.Daily, c.DailyOrder, "DailyOrder"},
		{c.Hourly, c.HourlyOrder, "HourlyOrder"},
	} {
		if cc.on && cc.order <= 0 {
			return callcastErrors.NewValidationError(cc.name, "enabled component needs a positive order",
				strconv.Itoa(cc.order))
		}
	}
	return nil
}

// components returns the (period, order) pairs of the enabled terms.
func (c SeasonalConfig) components() [][2]float64 {
	var out [][2]float64
	if c.Yearly {
		out = append(out, [2]float64{hoursPerYear, float64(c.YearlyOrder)})
	}
	if c.Quarterly {
		out = append(out, [2]float64{hoursPerQuarter, float64(c.QuarterlyOrder)})
	}
	if c.Monthly {
		out = append(out, [2]float64{hoursPerMonth, float64(c.MonthlyOrder)})
	}
	if c.Weekly {
		out = append(out, [2]float64{hoursPerWeek, float64(c.WeeklyOrder)})
	}
	if c.Daily {
		out = append(out, [2]float64{hoursPerDay, float64(c.DailyOrder)})
	}
	if c.Hourly {
		out = append(out, [2]float64{1.0, float64(c.HourlyOrder)})
	}
	return out
}

// nRegressors is the width of the design matrix: trend, sin/cos pairs per
// component, and the two exception indicators.
func (c SeasonalConfig) nRegressors() int {
	n := 1 // trend
	for _, comp := range c.components() {
		n += 2 * int(comp[1])
	}
	if c.UseHolidays {
		n += 2
	}
	return n
}

// Observation is one training or prediction point for the seasonal model.
type Observation struct {
	Time       time.Time
	WorkingDay bool
	Holiday    bool
}

// SeasonalRegressor decomposes an hourly series into trend, Fourier
// seasonalities and exception-day effects. The decomposition is linear in its
// basis, so fitting reduces to a single OLS solve.
type SeasonalRegressor struct {
	state  *model.StateManager
	logger log.Logger

	config SeasonalConfig
	ols    *linear.LinearRegression

	// origin anchors the trend term; set to the first training timestamp.
	origin time.Time

	fittedSeries []float64
}

// NewSeasonalRegressor creates an untrained model. The config is validated
// here so a bad configuration fails at construction, not mid-pipeline.
func NewSeasonalRegressor(config SeasonalConfig) (*SeasonalRegressor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SeasonalRegressor{
		state: model.NewStateManager(),
		logger: log.GetLoggerWithName("forecast").With(
			log.ModelNameKey, "SeasonalRegressor",
			log.ComponentKey, "forecast",
		),
		config: config,
		ols:    linear.NewLinearRegression(),
	}, nil
}

// Config returns the configuration the model was built with.
func (s *SeasonalRegressor) Config() SeasonalConfig { return s.config }

// Fit estimates the decomposition from chronologically ordered observations.
func (s *SeasonalRegressor) Fit(obs []Observation, y []float64) (err error) {
	defer callcastErrors.Recover(&err, "SeasonalRegressor.Fit")

	start := time.Now()
	if len(obs) == 0 {
		return callcastErrors.NewModelError("SeasonalRegressor.Fit", "empty data", callcastErrors.ErrEmptyData)
	}
	if len(y) != len(obs) {
		return callcastErrors.NewDimensionError("SeasonalRegressor.Fit", len(obs), len(y), 0)
	}

	s.origin = obs[0].Time
	X := s.designMatrix(obs)
	yMat := mat.NewDense(len(y), 1, nil)
	for i, v := range y {
		yMat.Set(i, 0, v)
	}

	if err := s.ols.Fit(X, yMat); err != nil {
		return err
	}

	fitted, err := s.ols.Predict(X)
	if err != nil {
		return err
	}
	s.fittedSeries = make([]float64, len(obs))
	for i := range s.fittedSeries {
		s.fittedSeries[i] = fitted.At(i, 0)
	}

	s.state.SetFitted()
	s.state.SetDimensions(s.config.nRegressors(), len(obs))

	s.logger.Info("Decomposition fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(obs),
		log.FeaturesKey, s.config.nRegressors(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict evaluates the fitted decomposition at the given observations.
func (s *SeasonalRegressor) Predict(obs []Observation) (_ []float64, err error) {
	defer callcastErrors.Recover(&err, "SeasonalRegressor.Predict")

	if !s.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("SeasonalRegressor", "Predict")
	}
	if len(obs) == 0 {
		return nil, callcastErrors.NewModelError("SeasonalRegressor.Predict", "empty data", callcastErrors.ErrEmptyData)
	}

	pred, err := s.ols.Predict(s.designMatrix(obs))
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(obs))
	for i := range out {
		out[i] = pred.At(i, 0)
	}
	return out, nil
}

// FittedSeries returns the in-sample fitted values, for diagnostics.
func (s *SeasonalRegressor) FittedSeries() []float64 {
	if s.fittedSeries == nil {
		return nil
	}
	out := make([]float64, len(s.fittedSeries))
	copy(out, s.fittedSeries)
	return out
}

// IsFitted reports whether Fit has run.
func (s *SeasonalRegressor) IsFitted() bool { return s.state.IsFitted() }

// designMatrix builds the regression basis: elapsed-hours trend, the sin/cos
// Fourier pairs of every enabled component, and the exception indicators.
func (s *SeasonalRegressor) designMatrix(obs []Observation) mat.Matrix {
	components := s.config.components()
	p := s.config.nRegressors()

	X := mat.NewDense(len(obs), p, nil)
	for i, o := range obs {
		hours := o.Time.Sub(s.origin).Hours()

		j := 0
		X.Set(i, j, hours)
		j++

		for _, comp := range components {
			period, order := comp[0], int(comp[1])
			for k := 1; k <= order; k++ {
				angle := 2 * math.Pi * float64(k) * hours / period
				X.Set(i, j, math.Sin(angle))
				X.Set(i, j+1, math.Cos(angle))
				j += 2
			}
		}

		if s.config.UseHolidays {
			if o.Holiday {
				X.Set(i, j, 1)
			}
			if !o.WorkingDay && !o.Holiday {
				X.Set(i, j+1, 1)
			}
		}
	}
	return X
}
