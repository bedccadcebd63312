// Package evaluation compares fitted models: forward-chaining cross
// validation, grid search over hyperparameters, and the harness producing the
// per-model score report and diagnostic plot.
package evaluation

import (
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// Fold is one forward-chaining validation fold over row positions: training
// rows are [0, TrainEnd) and validation rows [TrainEnd, TestEnd). Training
// data is always a strict chronological prefix of the validation data.
type Fold struct {
	TrainEnd int
	TestEnd  int
}

// TimeSeriesSplit generates forward-chaining folds in the manner of expanding
// window cross validation: the n rows are cut into NSplits+1 equal blocks,
// fold i trains on the first i+1 blocks and validates on block i+2.
type TimeSeriesSplit struct {
	NSplits int
}

// NewTimeSeriesSplit creates a splitter with the given number of folds.
func NewTimeSeriesSplit(nSplits int) *TimeSeriesSplit {
	return &TimeSeriesSplit{NSplits: nSplits}
}

// Split returns the folds for n chronologically ordered rows, in
// chronological order.
func (s *TimeSeriesSplit) Split(n int) ([]Fold, error) {
	if s.NSplits < 2 {
		return nil, callcastErrors.NewValueError("TimeSeriesSplit.Split", "need at least 2 splits")
	}
	if n < s.NSplits+1 {
		return nil, callcastErrors.NewValueError("TimeSeriesSplit.Split", "not enough rows for the requested folds")
	}

	blockSize := n / (s.NSplits + 1)
	folds := make([]Fold, 0, s.NSplits)
	for i := 0; i < s.NSplits; i++ {
		trainEnd := (i + 1) * blockSize
		testEnd := (i + 2) * blockSize
		if i == s.NSplits-1 {
			// Last fold absorbs the remainder rows.
			testEnd = n
		}
		folds = append(folds, Fold{TrainEnd: trainEnd, TestEnd: testEnd})
	}
	return folds, nil
}
