package ensemble

import (
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
	"github.com/ezoic/callcast/tree"
)

func TestMain(m *testing.M) {
	log.SetProvider(log.NewZerologProvider(log.ToLogLevel("disabled")))
	m.Run()
}

func TestWithBaseline(t *testing.T) {
	baseline := mat.NewDense(2, 1, []float64{10, 20})
	features := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	X, err := WithBaseline(baseline, features)
	require.NoError(t, err)

	r, c := X.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 10.0, X.At(0, 0))
	assert.Equal(t, 4.0, X.At(1, 2))
}

func TestWithBaselineValidates(t *testing.T) {
	_, err := WithBaseline(mat.NewDense(2, 2, nil), mat.NewDense(2, 2, nil))
	assert.Error(t, err)

	_, err = WithBaseline(mat.NewDense(2, 1, nil), mat.NewDense(3, 2, nil))
	assert.Error(t, err)
}

// The final prediction must equal the baseline column minus whatever the
// inner forest reproduces from the feature columns. With a baseline that is
// an exact step function of the single feature, the inner fit is exact and
// the stack predicts zero everywhere.
func TestResidualLeveragerSubtractsInnerPrediction(t *testing.T) {
	n := 10
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		feature := float64(i)
		baseline := 5.0
		if i >= 5 {
			// Wide feature gap so every bootstrap resample separates the
			// two regimes perfectly.
			feature += 100
			baseline = 9.0
		}
		X.Set(i, 0, baseline)
		X.Set(i, 1, feature)
		y.Set(i, 0, 100) // the target never enters the inner fit
	}

	rl := NewResidualLeverager(tree.NewRandomForestRegressor(
		tree.WithNEstimators(30),
		tree.WithForestRandomState(11),
	))
	require.NoError(t, rl.Fit(X, y))

	pred, err := rl.Predict(X)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.InDelta(t, 0.0, pred.At(i, 0), 1.0, "row %d", i)
	}
}

func TestResidualLeveragerPredictBeforeFit(t *testing.T) {
	rl := NewResidualLeverager(nil)
	_, err := rl.Predict(mat.NewDense(1, 2, nil))
	require.Error(t, err)
	assert.True(t, crdb.Is(err, callcastErrors.ErrNotFitted))
}

func TestResidualLeveragerNeedsFeatureColumns(t *testing.T) {
	rl := NewResidualLeverager(nil)
	err := rl.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, nil))
	require.Error(t, err)
}

func TestResidualLeveragerForwardsParams(t *testing.T) {
	rl := NewResidualLeverager(nil)
	require.NoError(t, rl.SetParams(map[string]interface{}{"n_estimators": 7}))
	assert.Equal(t, 7, rl.GetParams()["n_estimators"])
	assert.Error(t, rl.SetParams(map[string]interface{}{"bogus": 1}))
}
