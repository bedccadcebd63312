package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// OneHotEncoder converts categorical string columns into 0/1 indicator
// columns. Categories are collected and sorted during Fit so the output
// column order is deterministic.
//
// A category never seen during Fit encodes to an all-zero indicator block at
// Transform time rather than raising an error; prediction-time inputs may
// legitimately carry codes the training partition lacked.
type OneHotEncoder struct {
	state *model.StateManager

	// Categories holds the sorted category list per input column.
	Categories [][]string

	// CategoryToIdx maps category value to indicator offset per column.
	CategoryToIdx []map[string]int

	// NFeatures is the number of input columns seen during Fit.
	NFeatures int

	// NOutputs is the total number of indicator columns.
	NOutputs int
}

// NewOneHotEncoder creates an untrained OneHotEncoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{state: model.NewStateManager()}
}

// Fit collects the unique categories of every column in data.
func (e *OneHotEncoder) Fit(data [][]string) (err error) {
	defer callcastErrors.Recover(&err, "OneHotEncoder.Fit")

	if len(data) == 0 || len(data[0]) == 0 {
		return callcastErrors.NewModelError("OneHotEncoder.Fit", "empty data", callcastErrors.ErrEmptyData)
	}

	nSamples := len(data)
	nFeatures := len(data[0])
	for i, row := range data {
		if len(row) != nFeatures {
			return callcastErrors.NewDimensionError("OneHotEncoder.Fit", nFeatures, len(row), i)
		}
	}

	e.NFeatures = nFeatures
	e.Categories = make([][]string, nFeatures)
	e.CategoryToIdx = make([]map[string]int, nFeatures)
	e.NOutputs = 0

	for j := 0; j < nFeatures; j++ {
		set := make(map[string]bool)
		for i := 0; i < nSamples; i++ {
			set[data[i][j]] = true
		}

		categories := make([]string, 0, len(set))
		for category := range set {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		e.Categories[j] = categories

		toIdx := make(map[string]int, len(categories))
		for idx, category := range categories {
			toIdx[category] = idx
		}
		e.CategoryToIdx[j] = toIdx

		e.NOutputs += len(categories)
	}

	e.state.SetFitted()
	e.state.SetDimensions(nFeatures, nSamples)
	return nil
}

// Transform encodes data using the fitted categories. Unknown categories
// leave their indicator block all zero.
func (e *OneHotEncoder) Transform(data [][]string) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "OneHotEncoder.Transform")

	if !e.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("OneHotEncoder", "Transform")
	}

	if len(data) == 0 {
		return mat.NewDense(0, e.NOutputs, nil), nil
	}
	if len(data[0]) != e.NFeatures {
		return nil, callcastErrors.NewDimensionError("OneHotEncoder.Transform", e.NFeatures, len(data[0]), 1)
	}

	result := mat.NewDense(len(data), e.NOutputs, nil)
	for i := range data {
		offset := 0
		for j := 0; j < e.NFeatures; j++ {
			if idx, known := e.CategoryToIdx[j][data[i][j]]; known {
				result.Set(i, offset+idx, 1.0)
			}
			offset += len(e.Categories[j])
		}
	}
	return result, nil
}

// FitTransform fits the encoder on data and returns the encoded data.
func (e *OneHotEncoder) FitTransform(data [][]string) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "OneHotEncoder.FitTransform")
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// FeatureNamesOut returns the indicator column names, formed as
// "<input>_<category>". When inputFeatures is nil, inputs are named x0, x1, …
func (e *OneHotEncoder) FeatureNamesOut(inputFeatures []string) []string {
	if !e.state.IsFitted() {
		return nil
	}

	var out []string
	for j, categories := range e.Categories {
		name := fmt.Sprintf("x%d", j)
		if inputFeatures != nil && j < len(inputFeatures) {
			name = inputFeatures[j]
		}
		for _, category := range categories {
			out = append(out, fmt.Sprintf("%s_%s", name, category))
		}
	}
	return out
}

// IsFitted reports whether Fit has run.
func (e *OneHotEncoder) IsFitted() bool { return e.state.IsFitted() }
