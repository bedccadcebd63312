package model

import "gonum.org/v1/gonum/mat"

// Transformer is a pipeline stage that learns column statistics on Fit and
// rewrites feature matrices on Transform. Transform on an unfitted
// transformer returns a NotFittedError.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// Regressor is a supervised estimator producing one value per input row.
// Predict on an unfitted regressor returns a NotFittedError. Predict must be
// idempotent: repeated calls on the same fitted instance with the same input
// yield identical output.
type Regressor interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Tunable is implemented by regressors whose hyperparameters can be
// enumerated and rewritten, which is what grid search needs. SetParams must
// reject unknown keys with a descriptive error.
type Tunable interface {
	GetParams() map[string]interface{}
	SetParams(params map[string]interface{}) error
}

// TunableRegressor combines the two capabilities required by GridSearchCV.
type TunableRegressor interface {
	Regressor
	Tunable
}
