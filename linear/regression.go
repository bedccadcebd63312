// Package linear implements ordinary least squares regression, the first of
// the compared model families and the numeric core the seasonal model builds
// its decomposition on.
//
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	predictions, err := lr.Predict(XTest)
package linear

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	"github.com/ezoic/callcast/core/parallel"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

// LinearRegression fits y = X·w + b by solving the normal equations.
type LinearRegression struct {
	state  *model.StateManager
	logger log.Logger

	// Weights holds the fitted coefficients, one per feature.
	Weights *mat.VecDense

	// Intercept is the fitted bias term.
	Intercept float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int
}

// NewLinearRegression creates an untrained model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{
		state: model.NewStateManager(),
		logger: log.GetLoggerWithName("linear").With(
			log.ModelNameKey, "LinearRegression",
			log.ComponentKey, "linear",
		),
	}
}

// Fit trains the model on X (n samples × p features) and the column vector y.
// The normal equations (XᵀX)w = Xᵀy are solved through an explicit inverse;
// a singular XᵀX (collinear features) is reported as ErrSingularMatrix.
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "LinearRegression.Fit")

	start := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()

	lr.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	if r == 0 || c == 0 {
		return callcastErrors.NewModelError("LinearRegression.Fit", "empty data", callcastErrors.ErrEmptyData)
	}
	if ry != r {
		return callcastErrors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return callcastErrors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	lr.NFeatures = c

	// Prepend an all-ones column so the intercept is estimated jointly.
	XWithIntercept := mat.NewDense(r, c+1, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			XWithIntercept.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				XWithIntercept.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var XT mat.Dense
	XT.CloneFrom(XWithIntercept.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XWithIntercept)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return callcastErrors.NewModelError("LinearRegression.Fit", "singular matrix", callcastErrors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	lr.Intercept = weights.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.Weights.SetVec(i, weights.AtVec(i+1))
	}

	lr.state.SetFitted()
	lr.state.SetDimensions(c, r)

	lr.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return nil
}

// Predict returns one prediction per row of X as an n×1 matrix.
func (lr *LinearRegression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "LinearRegression.Predict")

	if !lr.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, callcastErrors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	lr.logger.Debug("Prediction started",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, r,
	)

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := lr.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * lr.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// Score returns the R² of the model on X, y.
func (lr *LinearRegression) Score(X, y mat.Matrix) (_ float64, err error) {
	defer callcastErrors.Recover(&err, "LinearRegression.Score")

	if !lr.state.IsFitted() {
		return 0, callcastErrors.NewNotFittedError("LinearRegression", "Score")
	}

	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		p := yPred.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - p) * (yTrue - p)
	}
	if tss == 0 {
		return 0, callcastErrors.NewValueError("LinearRegression.Score", "no variance in y")
	}
	return 1 - rss/tss, nil
}

// GetWeights returns a copy of the fitted coefficients.
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	weights := make([]float64, lr.Weights.Len())
	for i := range weights {
		weights[i] = lr.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept returns the fitted intercept, 0 when untrained.
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.state.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// IsFitted reports whether Fit has run.
func (lr *LinearRegression) IsFitted() bool { return lr.state.IsFitted() }

// GetParams returns the model's hyperparameters. OLS has none; the map is
// informational.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_features": lr.NFeatures,
		"fitted":     lr.state.IsFitted(),
	}
}

// SetParams accepts no keys; OLS has no hyperparameters.
func (lr *LinearRegression) SetParams(params map[string]interface{}) error {
	for key := range params {
		return callcastErrors.NewValueError("LinearRegression.SetParams", "unknown parameter: "+key)
	}
	return nil
}
