package linear

import (
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

const epsilon = 1e-6

func TestMain(m *testing.M) {
	log.SetProvider(log.NewZerologProvider(log.ToLogLevel("disabled")))
	m.Run()
}

func TestFitRecoversExactLinearRelation(t *testing.T) {
	// y = 3 + 2*x1 - x2, no noise.
	X := mat.NewDense(5, 2, []float64{
		1, 1,
		2, 0,
		3, 2,
		4, 1,
		5, 3,
	})
	y := mat.NewDense(5, 1, nil)
	for i := 0; i < 5; i++ {
		y.Set(i, 0, 3+2*X.At(i, 0)-X.At(i, 1))
	}

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDelta(t, 3.0, lr.GetIntercept(), epsilon)
	weights := lr.GetWeights()
	require.Len(t, weights, 2)
	assert.InDelta(t, 2.0, weights[0], epsilon)
	assert.InDelta(t, -1.0, weights[1], epsilon)

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(y, pred, epsilon))

	r2, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r2, epsilon)
}

func TestPredictIsIdempotent(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	a, err := lr.Predict(X)
	require.NoError(t, err)
	b, err := lr.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(a, b, 0))
}

func TestPredictBeforeFit(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	require.Error(t, err)
	assert.True(t, crdb.Is(err, callcastErrors.ErrNotFitted))

	var nferr *callcastErrors.NotFittedError
	require.True(t, crdb.As(err, &nferr))
	assert.Equal(t, "LinearRegression", nferr.ModelName)
}

func TestFitRejectsSingularSystem(t *testing.T) {
	// Two identical columns make XᵀX singular.
	X := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	lr := NewLinearRegression()
	err := lr.Fit(X, y)
	require.Error(t, err)
	assert.True(t, crdb.Is(err, callcastErrors.ErrSingularMatrix))
}

func TestFitValidatesShapes(t *testing.T) {
	lr := NewLinearRegression()

	err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2}))
	assert.Error(t, err)

	err = lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 2, nil))
	assert.Error(t, err)
}

func TestSetParamsRejectsUnknownKey(t *testing.T) {
	lr := NewLinearRegression()
	err := lr.SetParams(map[string]interface{}{"alpha": 0.1})
	assert.Error(t, err)
}
