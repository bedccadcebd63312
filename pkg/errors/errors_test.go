package errors

import (
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("StandardScaler", "Transform")

	assert.True(t, crdb.Is(err, ErrNotFitted))
	assert.Contains(t, err.Error(), "StandardScaler")
	assert.Contains(t, err.Error(), "Transform")
	assert.Contains(t, err.Error(), "callcast")

	var typed *NotFittedError
	require.True(t, crdb.As(err, &typed))
	assert.Equal(t, "StandardScaler", typed.ModelName)
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("LinearRegression.Predict", 4, 3, 1)

	assert.True(t, crdb.Is(err, ErrDimensionMismatch))
	assert.Contains(t, err.Error(), "expected 4, got 3")
	assert.Contains(t, err.Error(), "axis 1")
}

func TestModelErrorWrapsSentinel(t *testing.T) {
	err := NewModelError("MeanImputer.Fit", "empty data", ErrEmptyData)
	assert.True(t, crdb.Is(err, ErrEmptyData))
	assert.Contains(t, err.Error(), "MeanImputer.Fit")
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("instant", "index order violated at row 5", "instant")
	assert.Contains(t, err.Error(), "invalid instant")
	assert.Contains(t, err.Error(), "index order violated")
}

func TestWrapPreservesChain(t *testing.T) {
	inner := NewNotFittedError("Pipeline", "Predict")
	wrapped := Wrap(inner, "harness")
	assert.True(t, crdb.Is(wrapped, ErrNotFitted))
}

func TestRecoverConvertsPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "Model.Fit")
		panic("index out of range")
	}

	err := fn()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in Model.Fit")
}

func TestRecoverPassesThroughWhenNoPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "Model.Fit")
		return nil
	}
	assert.NoError(t, fn())
}
