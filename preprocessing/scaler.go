// Package preprocessing implements the feature-engineering stages of the
// call-volume analysis: imputation of missing cells, standardization of
// continuous weather measurements, one-hot encoding of calendar and weather
// codes, and the ColumnTransformer that applies the per-group chain to a
// loaded table.
//
// All components follow the Fit / Transform / FitTransform pattern and track
// fitted state, so statistics are always learned from the training partition
// only and transforming before fitting is an error:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	if err := scaler.Fit(XTrain); err != nil {
//	    log.Fatal(err)
//	}
//	XScaled, err := scaler.Transform(XTest)
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// StandardScaler standardizes features to zero mean and unit variance using
// statistics learned during Fit.
type StandardScaler struct {
	state *model.StateManager

	// Mean holds the per-feature mean learned during Fit.
	Mean []float64

	// Scale holds the per-feature standard deviation learned during Fit.
	Scale []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int

	// WithMean controls whether the mean is subtracted.
	WithMean bool

	// WithStd controls whether values are divided by the standard deviation.
	WithStd bool
}

// NewStandardScaler creates a StandardScaler. withMean and withStd select
// whether centering and scaling are applied; the usual z-score configuration
// is (true, true).
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a z-score StandardScaler.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit learns the per-feature mean and standard deviation from X.
//
// Constant features get a scale of 1 so transforming never divides by zero.
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "StandardScaler.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return callcastErrors.NewModelError("StandardScaler.Fit", "empty data", callcastErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		if s.WithMean {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}

		if s.WithStd {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			s.Scale[j] = math.Sqrt(sumSquares / float64(r))
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		} else {
			s.Scale[j] = 1.0
		}
	}

	s.state.SetFitted()
	s.state.SetDimensions(c, r)
	return nil
}

// Transform standardizes X using the fitted statistics:
// X_scaled = (X - mean) / scale.
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "StandardScaler.Transform")

	if !s.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, callcastErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return result, nil
}

// FitTransform fits the scaler on X and returns the transformed X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized values back to the original scale:
// X_orig = X_scaled * scale + mean.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "StandardScaler.InverseTransform")

	if !s.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, callcastErrors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return result, nil
}

// IsFitted reports whether Fit has run.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// String describes the scaler configuration.
func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler rescales each feature to a target range, default [0, 1]. The
// raw weather columns of the dataset arrive pre-normalized this way; the
// scaler reconstructs comparable ranges for exploratory plots.
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin and DataMax hold the per-feature extrema learned during Fit.
	DataMin []float64
	DataMax []float64

	// Scale holds max - min per feature (1 for constant features).
	Scale []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int

	// FeatureRange is the target [min, max] after transform.
	FeatureRange [2]float64
}

// NewMinMaxScaler creates a MinMaxScaler targeting the given range.
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault creates a MinMaxScaler targeting [0, 1].
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit learns the per-feature minimum and maximum from X.
func (m *MinMaxScaler) Fit(X mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "MinMaxScaler.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return callcastErrors.NewModelError("MinMaxScaler.Fit", "empty data", callcastErrors.ErrEmptyData)
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		lo, hi := X.At(0, j), X.At(0, j)
		for i := 1; i < r; i++ {
			v := X.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi

		if span := hi - lo; math.Abs(span) < 1e-8 {
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = span
		}
	}

	m.state.SetFitted()
	m.state.SetDimensions(c, r)
	return nil
}

// Transform rescales X into the target feature range using fitted extrema.
func (m *MinMaxScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "MinMaxScaler.Transform")

	if !m.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, callcastErrors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			std := (X.At(i, j) - m.DataMin[j]) / m.Scale[j]
			result.Set(i, j, std*span+m.FeatureRange[0])
		}
	}
	return result, nil
}

// FitTransform fits the scaler on X and returns the transformed X.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "MinMaxScaler.FitTransform")
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps values in the target range back to the original scale.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "MinMaxScaler.InverseTransform")

	if !m.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, callcastErrors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	span := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			std := (X.At(i, j) - m.FeatureRange[0]) / span
			result.Set(i, j, std*m.Scale[j]+m.DataMin[j])
		}
	}
	return result, nil
}

// IsFitted reports whether Fit has run.
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }
