package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	"github.com/ezoic/callcast/linear"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
	"github.com/ezoic/callcast/tree"
)

func TestMain(m *testing.M) {
	log.SetProvider(log.NewZerologProvider(log.ToLogLevel("disabled")))
	m.Run()
}

func TestTimeSeriesSplitFolds(t *testing.T) {
	folds, err := NewTimeSeriesSplit(3).Split(100)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	// Each fold trains on a strict chronological prefix of its validation
	// rows, and folds expand monotonically.
	prevEnd := 0
	for _, fold := range folds {
		assert.Greater(t, fold.TrainEnd, 0)
		assert.Greater(t, fold.TestEnd, fold.TrainEnd)
		assert.Greater(t, fold.TrainEnd, prevEnd)
		prevEnd = fold.TrainEnd
	}
	assert.Equal(t, 100, folds[len(folds)-1].TestEnd)
}

func TestTimeSeriesSplitValidates(t *testing.T) {
	_, err := NewTimeSeriesSplit(1).Split(100)
	assert.Error(t, err)

	_, err = NewTimeSeriesSplit(5).Split(4)
	assert.Error(t, err)
}

// quadraticData is increasing and curved, so a deeper tree beats a stump on
// every forward-chaining fold.
func quadraticData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i*i))
	}
	return X, y
}

func TestGridSearchCVSelectsDeeperTree(t *testing.T) {
	X, y := quadraticData(60)

	search, err := NewGridSearchCV(func() model.TunableRegressor {
		return tree.NewDecisionTreeRegressor()
	}, ParamGrid{
		"max_depth": {1, 6},
	}, NewTimeSeriesSplit(3), 2)
	require.NoError(t, err)

	require.NoError(t, search.Fit(X, y))

	assert.Equal(t, 6, search.BestParams["max_depth"])
	require.Len(t, search.Results, 2)
	assert.Greater(t, search.BestScore, 0.0)

	// The refitted winner predicts on the full range.
	pred, err := search.Predict(X)
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, 60, r)
	assert.Equal(t, 1, c)
}

func TestGridSearchCVResultsAreDeterministic(t *testing.T) {
	X, y := quadraticData(40)

	run := func() []CandidateResult {
		search, err := NewGridSearchCV(func() model.TunableRegressor {
			return tree.NewDecisionTreeRegressor()
		}, ParamGrid{
			"max_depth":        {1, 2},
			"min_samples_leaf": {1, 3},
		}, NewTimeSeriesSplit(2), 4)
		require.NoError(t, err)
		require.NoError(t, search.Fit(X, y))
		return search.Results
	}

	a, b := run(), run()
	require.Len(t, a, 4)
	for i := range a {
		assert.Equal(t, a[i].Params, b[i].Params)
		assert.Equal(t, a[i].MeanRMSE, b[i].MeanRMSE)
	}
}

func TestGridSearchCVPredictBeforeFit(t *testing.T) {
	search, err := NewGridSearchCV(func() model.TunableRegressor {
		return tree.NewDecisionTreeRegressor()
	}, ParamGrid{"max_depth": {1}}, nil, 0)
	require.NoError(t, err)

	_, err = search.Predict(mat.NewDense(1, 1, []float64{1}))
	require.Error(t, err)
	assert.True(t, crdb.Is(err, callcastErrors.ErrNotFitted))
}

func TestHarnessRunEstimatorTrial(t *testing.T) {
	X := mat.NewDense(10, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		y.Set(i, 0, 2*X.At(i, 0)+1)
	}

	plotDir := t.TempDir()
	h := NewHarness(plotDir)

	report, err := h.Run(Trial{
		Name:      "linear",
		Estimator: linear.NewLinearRegression(),
	}, X, y, X, y)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, report.RMSE, 1e-6)
	assert.InDelta(t, 0.0, report.MAE, 1e-6)
	assert.InDelta(t, 1.0, report.R2, 1e-6)
	assert.False(t, report.Searched)

	// The scatter diagnostic was written.
	require.Equal(t, filepath.Join(plotDir, "linear_scatter.png"), report.ScatterPath)
	_, err = os.Stat(report.ScatterPath)
	assert.NoError(t, err)
}

func TestHarnessRunSearchTrial(t *testing.T) {
	X, y := quadraticData(60)

	h := NewHarness("")
	report, err := h.Run(Trial{
		Name: "tree",
		Factory: func() model.TunableRegressor {
			return tree.NewDecisionTreeRegressor()
		},
		Grid: ParamGrid{"max_depth": {1, 6}},
		CV:   NewTimeSeriesSplit(3),
	}, X, y, X, y)
	require.NoError(t, err)

	assert.True(t, report.Searched)
	assert.Equal(t, 6, report.BestParams["max_depth"])
	assert.Greater(t, report.CVScore, 0.0)
	assert.Empty(t, report.ScatterPath)
}

func TestHarnessRejectsEmptyTrial(t *testing.T) {
	h := NewHarness("")
	_, err := h.Run(Trial{Name: "nothing"}, nil, nil, nil, nil)
	assert.Error(t, err)
}
