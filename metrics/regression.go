// Package metrics provides the regression evaluation metrics the model
// comparison reports: MSE, RMSE (the primary comparison metric), MAE, and R².
//
// All metrics operate on gonum vectors and return an explicit error for empty
// or mismatched inputs:
//
//	rmse, err := metrics.RMSE(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// MSE returns the mean squared error between true and predicted values.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, callcastErrors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, callcastErrors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE returns the root mean squared error, in the units of the target. This
// is the primary metric the model comparison ranks by.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error, which is less sensitive to outlier
// hours than RMSE.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, callcastErrors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, callcastErrors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score returns the coefficient of determination. 1 is a perfect fit, 0
// matches always predicting the mean, negative is worse than the mean. A
// target with no variance has no defined R² and returns an error.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, callcastErrors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, callcastErrors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		p := yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}
	if tss == 0 {
		return 0, callcastErrors.NewValueError("R2Score", "no variance in yTrue")
	}
	return 1 - rss/tss, nil
}

// RMSEMatrix computes RMSE for column-vector matrices, the shape regressors
// produce from Predict.
func RMSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	tv, err := toVec("RMSEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	pv, err := toVec("RMSEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return RMSE(tv, pv)
}

// MAEMatrix computes MAE for column-vector matrices.
func MAEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	tv, err := toVec("MAEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	pv, err := toVec("MAEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return MAE(tv, pv)
}

// R2ScoreMatrix computes R² for column-vector matrices.
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	tv, err := toVec("R2ScoreMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	pv, err := toVec("R2ScoreMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return R2Score(tv, pv)
}

// toVec converts an n×1 matrix to a vector.
func toVec(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, callcastErrors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, callcastErrors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}
