package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const epsilon = 1e-9

func TestMSEAndRMSE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1, 2, 3, 6})

	mse, err := MSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mse, epsilon)

	rmse, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rmse, epsilon)
}

// Predicting the mean of the target everywhere yields an RMSE equal to the
// population standard deviation of the target.
func TestRMSEOfMeanPredictorEqualsStd(t *testing.T) {
	vals := []float64{12, 45, 7, 88, 23, 56, 31, 9, 74, 40}
	n := len(vals)

	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(n)

	var variance float64
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)

	yTrue := mat.NewVecDense(n, vals)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yPred.SetVec(i, mean)
	}

	rmse, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(variance), rmse, epsilon)
}

func TestMAE(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 2, 3})
	yPred := mat.NewVecDense(3, []float64{2, 2, 1})

	mae, err := MAE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mae, epsilon)
}

func TestR2Score(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	perfect, err := R2Score(yTrue, yTrue)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, perfect, epsilon)

	// The mean predictor scores exactly 0.
	yMean := mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5})
	zero, err := R2Score(yTrue, yMean)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, zero, epsilon)
}

func TestR2ScoreNoVariance(t *testing.T) {
	flat := mat.NewVecDense(3, []float64{5, 5, 5})
	_, err := R2Score(flat, flat)
	assert.Error(t, err)
}

func TestDimensionMismatch(t *testing.T) {
	a := mat.NewVecDense(3, []float64{1, 2, 3})
	b := mat.NewVecDense(2, []float64{1, 2})
	for _, fn := range []func(x, y *mat.VecDense) (float64, error){MSE, RMSE, MAE, R2Score} {
		_, err := fn(a, b)
		assert.Error(t, err)
	}
}

func TestMatrixVariants(t *testing.T) {
	yTrue := mat.NewDense(3, 1, []float64{1, 2, 3})
	yPred := mat.NewDense(3, 1, []float64{1, 2, 3})

	rmse, err := RMSEMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rmse, epsilon)

	wide := mat.NewDense(3, 2, nil)
	_, err = RMSEMatrix(yTrue, wide)
	assert.Error(t, err)
}
