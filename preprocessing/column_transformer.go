package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	"github.com/ezoic/callcast/dataset"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

// ColumnTransformer applies the per-group preprocessing chain to a loaded
// table and emits one numeric matrix for the estimators:
//
//   - numerical columns: mean imputation, then standardization
//   - ordinal and categorical columns: mode imputation, then one-hot encoding
//   - every other column: dropped silently
//
// The output layout is the scaled numerical block followed by the indicator
// block, in the order given by the FeatureGroups value. All statistics are
// learned in Fit, so transforming the test partition can never leak its
// distribution into the encoding.
type ColumnTransformer struct {
	state  *model.StateManager
	logger log.Logger

	groups dataset.FeatureGroups

	numImputer *MeanImputer
	scaler     *StandardScaler
	catImputer *ModeImputer
	encoder    *OneHotEncoder
}

// NewColumnTransformer creates a ColumnTransformer for the given partition.
func NewColumnTransformer(groups dataset.FeatureGroups) *ColumnTransformer {
	return &ColumnTransformer{
		state:      model.NewStateManager(),
		logger:     log.GetLoggerWithName("preprocessing").With(log.ComponentKey, "ColumnTransformer"),
		groups:     groups,
		numImputer: NewMeanImputer(),
		scaler:     NewStandardScalerDefault(),
		catImputer: NewModeImputer(),
		encoder:    NewOneHotEncoder(),
	}
}

// Fit learns imputation, scaling and encoding statistics from the training
// table. Group columns missing from the table are an error; table columns
// outside the partition are ignored.
func (c *ColumnTransformer) Fit(t *dataset.Table) (err error) {
	defer callcastErrors.Recover(&err, "ColumnTransformer.Fit")

	if err := c.requireColumns(t); err != nil {
		return err
	}

	numeric := c.numericBlock(t)
	imputed, err := c.numImputer.FitTransform(numeric)
	if err != nil {
		return err
	}
	if err := c.scaler.Fit(imputed); err != nil {
		return err
	}

	records := c.recordBlock(t)
	filled, err := c.catImputer.FitTransform(records)
	if err != nil {
		return err
	}
	if err := c.encoder.Fit(filled); err != nil {
		return err
	}

	c.state.SetFitted()
	c.state.SetDimensions(len(c.groups.Numerical)+c.encoder.NOutputs, t.NRows())

	c.logger.Info("Preprocessing fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, t.NRows(),
		log.FeaturesKey, c.state.NFeatures(),
	)
	return nil
}

// Transform encodes a table with the fitted statistics.
func (c *ColumnTransformer) Transform(t *dataset.Table) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "ColumnTransformer.Transform")

	if !c.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("ColumnTransformer", "Transform")
	}
	if err := c.requireColumns(t); err != nil {
		return nil, err
	}

	imputed, err := c.numImputer.Transform(c.numericBlock(t))
	if err != nil {
		return nil, err
	}
	scaled, err := c.scaler.Transform(imputed)
	if err != nil {
		return nil, err
	}

	filled, err := c.catImputer.Transform(c.recordBlock(t))
	if err != nil {
		return nil, err
	}
	encoded, err := c.encoder.Transform(filled)
	if err != nil {
		return nil, err
	}

	nRows := t.NRows()
	nNum := len(c.groups.Numerical)
	out := mat.NewDense(nRows, nNum+c.encoder.NOutputs, nil)
	for i := 0; i < nRows; i++ {
		for j := 0; j < nNum; j++ {
			out.Set(i, j, scaled.At(i, j))
		}
		for j := 0; j < c.encoder.NOutputs; j++ {
			out.Set(i, nNum+j, encoded.At(i, j))
		}
	}
	return out, nil
}

// FitTransform fits on t and returns the encoded t.
func (c *ColumnTransformer) FitTransform(t *dataset.Table) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "ColumnTransformer.FitTransform")
	if err := c.Fit(t); err != nil {
		return nil, err
	}
	return c.Transform(t)
}

// FeatureNames returns the output column names: the numerical columns
// followed by the "<column>_<category>" indicator names.
func (c *ColumnTransformer) FeatureNames() []string {
	if !c.state.IsFitted() {
		return nil
	}
	out := make([]string, 0, c.state.NFeatures())
	out = append(out, c.groups.Numerical...)
	out = append(out, c.encoder.FeatureNamesOut(c.groups.Encoded())...)
	return out
}

// IsFitted reports whether Fit has run.
func (c *ColumnTransformer) IsFitted() bool { return c.state.IsFitted() }

// numericBlock assembles the numerical group columns into a matrix, missing
// cells as NaN.
func (c *ColumnTransformer) numericBlock(t *dataset.Table) mat.Matrix {
	nRows := t.NRows()
	out := mat.NewDense(nRows, len(c.groups.Numerical), nil)
	for j, col := range c.groups.Numerical {
		vals := t.Numeric(col)
		for i := 0; i < nRows; i++ {
			out.Set(i, j, vals[i])
		}
	}
	return out
}

// recordBlock assembles the ordinal and categorical group columns as raw
// string rows for the mode imputer and encoder.
func (c *ColumnTransformer) recordBlock(t *dataset.Table) [][]string {
	cols := c.groups.Encoded()
	byCol := make([][]string, len(cols))
	for j, col := range cols {
		byCol[j] = t.Records(col)
	}

	nRows := t.NRows()
	rows := make([][]string, nRows)
	for i := 0; i < nRows; i++ {
		row := make([]string, len(cols))
		for j := range cols {
			row[j] = byCol[j][i]
		}
		rows[i] = row
	}
	return rows
}

// requireColumns checks that every group column is present in the table.
func (c *ColumnTransformer) requireColumns(t *dataset.Table) error {
	present := make(map[string]bool)
	for _, name := range t.Columns() {
		present[name] = true
	}
	for _, group := range [][]string{c.groups.Numerical, c.groups.Ordinal, c.groups.Categorical} {
		for _, col := range group {
			if !present[col] {
				return callcastErrors.NewValidationError("column", "required by feature groups but absent", col)
			}
		}
	}
	return nil
}
