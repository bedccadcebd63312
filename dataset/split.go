package dataset

import (
	"fmt"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// TemporalSplit partitions the records into a train and a test table by index
// order: the last testFraction of rows become the test partition, the rest
// the training partition. Rows are never shuffled, so every training index
// precedes every testing index.
//
// The split verifies that the instant column is strictly increasing. A
// violation means the chronology invariant the whole evaluation rests on does
// not hold, so it is reported as a ValidationError and the caller must halt;
// proceeding would let future rows leak into training.
func TemporalSplit(t *Table, testFraction float64) (train, test *Table, err error) {
	defer callcastErrors.Recover(&err, "dataset.TemporalSplit")

	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, callcastErrors.NewValueError("dataset.TemporalSplit",
			fmt.Sprintf("test fraction must be in (0, 1), got %g", testFraction))
	}

	idx, err := t.Indices()
	if err != nil {
		return nil, nil, err
	}
	for i := 1; i < len(idx); i++ {
		if idx[i] <= idx[i-1] {
			return nil, nil, callcastErrors.NewValidationError("instant",
				fmt.Sprintf("index order violated at row %d: %d after %d; "+
					"temporal split would leak future data", i, idx[i], idx[i-1]),
				ColInstant)
		}
	}

	n := t.NRows()
	nTest := int(float64(n) * testFraction)
	if nTest == 0 || nTest == n {
		return nil, nil, callcastErrors.NewValueError("dataset.TemporalSplit",
			fmt.Sprintf("fraction %g leaves an empty partition for %d rows", testFraction, n))
	}

	cut := n - nTest
	return t.Slice(0, cut), t.Slice(cut, n), nil
}
