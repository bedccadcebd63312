package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// MeanImputer fills missing (NaN) cells of numeric columns with the column
// mean learned during Fit. On columns with no missing values the transform is
// a no-op.
type MeanImputer struct {
	state *model.StateManager

	// Means holds the per-column mean over the non-missing cells seen in Fit.
	Means []float64

	// NFeatures is the number of columns seen during Fit.
	NFeatures int
}

// NewMeanImputer creates an untrained MeanImputer.
func NewMeanImputer() *MeanImputer {
	return &MeanImputer{state: model.NewStateManager()}
}

// Fit learns the per-column mean of X, ignoring NaN cells. A column with no
// observed values at all cannot be imputed and is an error.
func (m *MeanImputer) Fit(X mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "MeanImputer.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return callcastErrors.NewModelError("MeanImputer.Fit", "empty data", callcastErrors.ErrEmptyData)
	}

	m.NFeatures = c
	m.Means = make([]float64, c)

	for j := 0; j < c; j++ {
		sum, n := 0.0, 0
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			return callcastErrors.NewValueError("MeanImputer.Fit", "column has no observed values")
		}
		m.Means[j] = sum / float64(n)
	}

	m.state.SetFitted()
	m.state.SetDimensions(c, r)
	return nil
}

// Transform returns X with every NaN cell replaced by its column mean.
func (m *MeanImputer) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "MeanImputer.Transform")

	if !m.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("MeanImputer", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, callcastErrors.NewDimensionError("MeanImputer.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = m.Means[j]
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform fits the imputer on X and returns the imputed X.
func (m *MeanImputer) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "MeanImputer.FitTransform")
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// IsFitted reports whether Fit has run.
func (m *MeanImputer) IsFitted() bool { return m.state.IsFitted() }

// ModeImputer fills missing categorical cells with the most frequent value of
// the column seen during Fit. It operates on raw string records, the same
// representation OneHotEncoder consumes.
type ModeImputer struct {
	state *model.StateManager

	// Modes holds the per-column most frequent value. Frequency ties break
	// toward the lexicographically smaller value, keeping Fit deterministic.
	Modes []string

	// NFeatures is the number of columns seen during Fit.
	NFeatures int
}

// NewModeImputer creates an untrained ModeImputer.
func NewModeImputer() *ModeImputer {
	return &ModeImputer{state: model.NewStateManager()}
}

// Fit learns the per-column mode from data, ignoring missing cells. A column
// consisting only of missing cells is an error.
func (m *ModeImputer) Fit(data [][]string) (err error) {
	defer callcastErrors.Recover(&err, "ModeImputer.Fit")

	if len(data) == 0 || len(data[0]) == 0 {
		return callcastErrors.NewModelError("ModeImputer.Fit", "empty data", callcastErrors.ErrEmptyData)
	}

	nFeatures := len(data[0])
	for i, row := range data {
		if len(row) != nFeatures {
			return callcastErrors.NewDimensionError("ModeImputer.Fit", nFeatures, len(row), i)
		}
	}

	m.NFeatures = nFeatures
	m.Modes = make([]string, nFeatures)

	for j := 0; j < nFeatures; j++ {
		counts := make(map[string]int)
		for i := range data {
			if v := data[i][j]; !isMissingCell(v) {
				counts[v]++
			}
		}
		if len(counts) == 0 {
			return callcastErrors.NewValueError("ModeImputer.Fit", "column has no observed values")
		}

		values := make([]string, 0, len(counts))
		for v := range counts {
			values = append(values, v)
		}
		sort.Strings(values)

		best := values[0]
		for _, v := range values[1:] {
			if counts[v] > counts[best] {
				best = v
			}
		}
		m.Modes[j] = best
	}

	m.state.SetFitted()
	m.state.SetDimensions(nFeatures, len(data))
	return nil
}

// Transform returns data with every missing cell replaced by its column mode.
func (m *ModeImputer) Transform(data [][]string) (_ [][]string, err error) {
	defer callcastErrors.Recover(&err, "ModeImputer.Transform")

	if !m.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("ModeImputer", "Transform")
	}

	result := make([][]string, len(data))
	for i, row := range data {
		if len(row) != m.NFeatures {
			return nil, callcastErrors.NewDimensionError("ModeImputer.Transform", m.NFeatures, len(row), i)
		}
		out := make([]string, m.NFeatures)
		for j, v := range row {
			if isMissingCell(v) {
				v = m.Modes[j]
			}
			out[j] = v
		}
		result[i] = out
	}
	return result, nil
}

// FitTransform fits the imputer on data and returns the imputed data.
func (m *ModeImputer) FitTransform(data [][]string) (_ [][]string, err error) {
	defer callcastErrors.Recover(&err, "ModeImputer.FitTransform")
	if err := m.Fit(data); err != nil {
		return nil, err
	}
	return m.Transform(data)
}

// IsFitted reports whether Fit has run.
func (m *ModeImputer) IsFitted() bool { return m.state.IsFitted() }

// isMissingCell mirrors the dataset package's missing-value rule for raw
// string cells.
func isMissingCell(s string) bool {
	return s == "" || s == "NA" || s == "NaN"
}
