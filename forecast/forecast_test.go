package forecast

import (
	"math"
	"testing"
	"time"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

func TestMain(m *testing.M) {
	log.SetProvider(log.NewZerologProvider(log.ToLogLevel("disabled")))
	m.Run()
}

// syntheticSeries builds three weeks of hourly observations starting on a
// Monday, with weekends flagged non-working and one Monday flagged holiday.
// The target is exactly representable in the model basis: trend + daily
// sinusoid + holiday and weekend offsets.
func syntheticSeries() ([]Observation, []float64) {
	start := time.Date(2011, 1, 3, 0, 0, 0, 0, time.UTC) // a Monday
	holidayDate := "2011-01-17"

	n := 21 * 24
	obs := make([]Observation, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		wd := ts.Weekday()
		holiday := ts.Format("2006-01-02") == holidayDate
		working := wd != time.Saturday && wd != time.Sunday && !holiday

		obs[i] = Observation{Time: ts, WorkingDay: working, Holiday: holiday}

		hours := float64(i)
		y[i] = 50 + 0.05*hours + 20*math.Sin(2*math.Pi*hours/24)
		if holiday {
			y[i] -= 30
		} else if !working {
			y[i] -= 10
		}
	}
	return obs, y
}

func testConfig() SeasonalConfig {
	return SeasonalConfig{
		Daily:       true,
		DailyOrder:  2,
		Weekly:      true,
		WeeklyOrder: 2,
		UseHolidays: true,
	}
}

func TestSeasonalConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultSeasonalConfig().Validate())

	err := SeasonalConfig{}.Validate()
	require.Error(t, err)
	var verr *callcastErrors.ValidationError
	require.True(t, crdb.As(err, &verr))
	assert.Equal(t, "seasonality", verr.Field)

	err = SeasonalConfig{Daily: true, DailyOrder: 0}.Validate()
	require.Error(t, err)
	require.True(t, crdb.As(err, &verr))
	assert.Equal(t, "DailyOrder", verr.Field)
	assert.Equal(t, "0", verr.Value)
}

func TestSeasonalRegressorRecoversSignal(t *testing.T) {
	obs, y := syntheticSeries()

	sr, err := NewSeasonalRegressor(testConfig())
	require.NoError(t, err)
	require.NoError(t, sr.Fit(obs, y))

	pred, err := sr.Predict(obs)
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], pred[i], 1e-6, "row %d", i)
	}

	fitted := sr.FittedSeries()
	require.Len(t, fitted, len(y))
	for i := range y {
		assert.InDelta(t, y[i], fitted[i], 1e-6)
	}
}

func TestSeasonalRegressorPredictBeforeFit(t *testing.T) {
	sr, err := NewSeasonalRegressor(testConfig())
	require.NoError(t, err)

	obs, _ := syntheticSeries()
	_, err = sr.Predict(obs[:1])
	require.Error(t, err)
	assert.True(t, crdb.Is(err, callcastErrors.ErrNotFitted))
}

// timeFeatures converts observations to the adapter's n×3 matrix form.
func timeFeatures(obs []Observation) *mat.Dense {
	X := mat.NewDense(len(obs), 3, nil)
	for i, o := range obs {
		X.Set(i, 0, float64(o.Time.Unix()))
		if o.WorkingDay {
			X.Set(i, 1, 1)
		}
		if o.Holiday {
			X.Set(i, 2, 1)
		}
	}
	return X
}

func TestAdapterFitPredict(t *testing.T) {
	obs, y := syntheticSeries()
	X := timeFeatures(obs)
	yMat := mat.NewDense(len(y), 1, y)

	a, err := NewTimeSeriesRegressor(testConfig())
	require.NoError(t, err)
	require.NoError(t, a.Fit(X, yMat))

	pred, err := a.Predict(X)
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], pred.At(i, 0), 1e-6)
	}
}

// Predictions must align with the input row order even when rows arrive out
// of chronological order.
func TestAdapterPreservesRowOrder(t *testing.T) {
	obs, y := syntheticSeries()
	X := timeFeatures(obs)
	yMat := mat.NewDense(len(y), 1, y)

	a, err := NewTimeSeriesRegressor(testConfig())
	require.NoError(t, err)
	require.NoError(t, a.Fit(X, yMat))

	ordered, err := a.Predict(X)
	require.NoError(t, err)

	n := len(obs)
	reversed := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			reversed.Set(i, j, X.At(n-1-i, j))
		}
	}
	back, err := a.Predict(reversed)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		assert.InDelta(t, ordered.At(n-1-i, 0), back.At(i, 0), 1e-9)
	}
}

func TestAdapterPredictBeforeFit(t *testing.T) {
	a, err := NewTimeSeriesRegressor(testConfig())
	require.NoError(t, err)

	_, err = a.Predict(mat.NewDense(1, 3, []float64{0, 1, 0}))
	require.Error(t, err)
	assert.True(t, crdb.Is(err, callcastErrors.ErrNotFitted))

	var nferr *callcastErrors.NotFittedError
	require.True(t, crdb.As(err, &nferr))
	assert.Equal(t, "TimeSeriesRegressor", nferr.ModelName)
}

func TestAdapterRejectsWrongWidth(t *testing.T) {
	a, err := NewTimeSeriesRegressor(testConfig())
	require.NoError(t, err)

	err = a.Fit(mat.NewDense(2, 2, nil), mat.NewDense(2, 1, nil))
	require.Error(t, err)
	assert.True(t, crdb.Is(err, callcastErrors.ErrDimensionMismatch))
}

func TestAdapterTransformMatchesPredict(t *testing.T) {
	obs, y := syntheticSeries()
	X := timeFeatures(obs)

	a, err := NewTimeSeriesRegressor(testConfig())
	require.NoError(t, err)
	require.NoError(t, a.Fit(X, mat.NewDense(len(y), 1, y)))

	p, err := a.Predict(X)
	require.NoError(t, err)
	tr, err := a.Transform(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(p, tr, 0))
}
