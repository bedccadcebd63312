package dataset

import (
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// DayLabel classifies a non-working day for the seasonal model's exogenous
// regressors.
type DayLabel string

const (
	// DayHoliday marks a non-working day flagged as a holiday.
	DayHoliday DayLabel = "holiday"

	// DayWeekend marks a non-working day that is not a holiday.
	DayWeekend DayLabel = "weekend"
)

// ExceptionTable labels each non-working calendar date, keyed by the dteday
// string. Working days do not appear in the table.
type ExceptionTable map[string]DayLabel

// DeriveExceptions builds the exception table from the raw records: every
// date whose rows carry workingday == 0 is labeled "holiday" when the holiday
// flag is set and "weekend" otherwise.
func DeriveExceptions(t *Table) (_ ExceptionTable, err error) {
	defer callcastErrors.Recover(&err, "dataset.DeriveExceptions")

	dates := t.Records(ColDate)
	working := t.Numeric(ColWorkingday)
	holiday := t.Numeric(ColHoliday)

	out := make(ExceptionTable)
	for i, d := range dates {
		if working[i] != 0 {
			continue
		}
		if holiday[i] != 0 {
			out[d] = DayHoliday
			continue
		}
		// Holiday wins when any row of the day carried the flag.
		if _, seen := out[d]; !seen {
			out[d] = DayWeekend
		}
	}
	return out, nil
}

// Lookup returns the label for a date string and whether the date is a
// non-working day at all.
func (e ExceptionTable) Lookup(date string) (DayLabel, bool) {
	l, ok := e[date]
	return l, ok
}
