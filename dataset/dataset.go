// Package dataset loads the hourly call-volume records and provides the
// table-level operations the analysis depends on: the fixed feature-group
// partition, the chronological train/test split, and the holiday/weekend
// exception table used by the seasonal model.
//
// The input is a CSV with a hard-coded schema: one row per hour, keyed by a
// unique integer index whose order is temporally monotonic. There is no
// schema negotiation; a file missing a required column is rejected at load.
package dataset

import (
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// Column names of the hourly schema.
const (
	ColInstant    = "instant"
	ColDate       = "dteday"
	ColHour       = "hr"
	ColSeason     = "season"
	ColHoliday    = "holiday"
	ColWeekday    = "weekday"
	ColWorkingday = "workingday"
	ColWeathersit = "weathersit"
	ColTemp       = "temp"
	ColATemp      = "atemp"
	ColHum        = "hum"
	ColWindspeed  = "windspeed"
	ColTarget     = "cnt"
)

// dateLayout is the calendar-date format of the dteday column.
const dateLayout = "2006-01-02"

// requiredColumns is the minimum schema a file must carry.
var requiredColumns = []string{
	ColInstant, ColDate, ColHour,
	ColSeason, ColHoliday, ColWeekday, ColWorkingday, ColWeathersit,
	ColTemp, ColATemp, ColHum, ColWindspeed,
	ColTarget,
}

// Table is an immutable view over the loaded hourly records.
type Table struct {
	df dataframe.DataFrame
}

// LoadCSV reads the hourly records from a CSV file on disk.
func LoadCSV(path string) (_ *Table, err error) {
	defer callcastErrors.Recover(&err, "dataset.LoadCSV")

	f, err := os.Open(path)
	if err != nil {
		return nil, callcastErrors.Wrapf(err, "dataset.LoadCSV: open %s", path)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f)
}

// ReadCSV reads the hourly records from an io.Reader carrying CSV data with a
// header row. Every required column must be present.
func ReadCSV(r io.Reader) (_ *Table, err error) {
	defer callcastErrors.Recover(&err, "dataset.ReadCSV")

	df := dataframe.ReadCSV(r, dataframe.HasHeader(true))
	if df.Err != nil {
		// gota reports a header-only file as its own "empty DataFrame"
		// error rather than an empty frame.
		if strings.Contains(df.Err.Error(), "empty") {
			return nil, callcastErrors.NewModelError("dataset.ReadCSV", "no rows", callcastErrors.ErrEmptyData)
		}
		return nil, callcastErrors.Wrap(df.Err, "dataset.ReadCSV: parse")
	}
	if df.Nrow() == 0 {
		return nil, callcastErrors.NewModelError("dataset.ReadCSV", "no rows", callcastErrors.ErrEmptyData)
	}

	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return nil, callcastErrors.NewValidationError("column", "required column missing", col)
		}
	}

	return &Table{df: df}, nil
}

// FromDataFrame wraps an existing dataframe without re-validating the schema.
// Intended for tests building synthetic tables.
func FromDataFrame(df dataframe.DataFrame) *Table {
	return &Table{df: df}
}

// NRows returns the number of records.
func (t *Table) NRows() int {
	return t.df.Nrow()
}

// Columns returns the column names in file order.
func (t *Table) Columns() []string {
	return t.df.Names()
}

// Indices returns the instant column, the unique per-row integer index.
func (t *Table) Indices() ([]int, error) {
	idx, err := t.df.Col(ColInstant).Int()
	if err != nil {
		return nil, callcastErrors.Wrap(err, "dataset.Indices: non-integer instant")
	}
	return idx, nil
}

// Numeric returns a column as float64 values. Missing or unparseable cells
// are NaN; the preprocessing imputers handle them downstream.
func (t *Table) Numeric(col string) []float64 {
	return t.df.Col(col).Float()
}

// Records returns a column as raw strings, for categorical encoding.
func (t *Table) Records(col string) []string {
	return t.df.Col(col).Records()
}

// Target returns the cnt column as a vector.
func (t *Table) Target() *mat.VecDense {
	vals := t.df.Col(ColTarget).Float()
	return mat.NewVecDense(len(vals), vals)
}

// Timestamps derives one combined timestamp per row: the calendar date plus
// the hour-of-day offset, in UTC.
func (t *Table) Timestamps() ([]time.Time, error) {
	dates := t.df.Col(ColDate).Records()
	hours, err := t.df.Col(ColHour).Int()
	if err != nil {
		return nil, callcastErrors.Wrap(err, "dataset.Timestamps: non-integer hr")
	}

	out := make([]time.Time, len(dates))
	for i, d := range dates {
		day, err := time.ParseInLocation(dateLayout, d, time.UTC)
		if err != nil {
			return nil, callcastErrors.Wrapf(err, "dataset.Timestamps: row %d", i)
		}
		out[i] = day.Add(time.Duration(hours[i]) * time.Hour)
	}
	return out, nil
}

// TimeFeatures returns the n×3 matrix consumed by the time-series regressor:
// column 0 is the row timestamp as Unix seconds, column 1 the working-day
// flag, column 2 the holiday flag.
//
// The flags come from the derived exception table, not the raw per-row
// columns, so every hour of a calendar date carries the same day-level label
// even when individual rows disagree.
func (t *Table) TimeFeatures() (mat.Matrix, error) {
	ts, err := t.Timestamps()
	if err != nil {
		return nil, err
	}
	exceptions, err := DeriveExceptions(t)
	if err != nil {
		return nil, err
	}
	dates := t.Records(ColDate)

	out := mat.NewDense(len(ts), 3, nil)
	for i := range ts {
		out.Set(i, 0, float64(ts[i].Unix()))
		label, nonWorking := exceptions.Lookup(dates[i])
		if !nonWorking {
			out.Set(i, 1, 1)
		}
		if label == DayHoliday {
			out.Set(i, 2, 1)
		}
	}
	return out, nil
}

// Slice returns the records in [from, to) as a new table. Row order is
// preserved.
func (t *Table) Slice(from, to int) *Table {
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return &Table{df: t.df.Subset(idx)}
}

// isMissing reports whether a raw cell should be treated as absent.
func isMissing(s string) bool {
	return s == "" || s == "NA" || s == "NaN"
}

// IsMissingValue reports whether a raw string cell represents a missing
// value, using the same rule the imputers apply.
func IsMissingValue(s string) bool { return isMissing(s) }

// IsMissingFloat reports whether a numeric cell is missing.
func IsMissingFloat(v float64) bool { return math.IsNaN(v) }
