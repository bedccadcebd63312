package dataset

import (
	"fmt"
	"strings"
	"testing"
	"time"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// sampleCSV builds n hourly rows starting 2011-01-01 00:00. Weekends carry
// workingday=0; the second day is additionally flagged as a holiday.
func sampleCSV(n int) string {
	var b strings.Builder
	b.WriteString("instant,dteday,hr,season,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,cnt\n")
	start := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		weekday := int(ts.Weekday())
		holiday := 0
		if ts.Format("2006-01-02") == "2011-01-02" {
			holiday = 1
		}
		working := 1
		if weekday == 0 || weekday == 6 || holiday == 1 {
			working = 0
		}
		fmt.Fprintf(&b, "%d,%s,%d,1,%d,%d,%d,1,%.2f,%.2f,%.2f,%.2f,%d\n",
			i+1, ts.Format("2006-01-02"), ts.Hour(),
			holiday, weekday, working,
			0.3+0.01*float64(i%24), 0.3, 0.5, 0.2, 50+i%24*10)
	}
	return b.String()
}

func loadSample(t *testing.T, n int) *Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(sampleCSV(n)))
	require.NoError(t, err)
	require.Equal(t, n, tbl.NRows())
	return tbl
}

func TestReadCSVRejectsMissingColumn(t *testing.T) {
	csv := "instant,dteday,hr\n1,2011-01-01,0\n"
	_, err := ReadCSV(strings.NewReader(csv))
	require.Error(t, err)

	var verr *callcastErrors.ValidationError
	require.True(t, crdb.As(err, &verr))
	assert.Equal(t, "column", verr.Field)
}

func TestReadCSVRejectsEmpty(t *testing.T) {
	// A header-only file and a zero-byte file both classify as empty data.
	header := "instant,dteday,hr,season,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,cnt\n"
	for _, input := range []string{header, ""} {
		_, err := ReadCSV(strings.NewReader(input))
		require.Error(t, err)
		assert.True(t, crdb.Is(err, callcastErrors.ErrEmptyData))
	}
}

func TestTemporalSplitOrdering(t *testing.T) {
	tbl := loadSample(t, 100)

	train, test, err := TemporalSplit(tbl, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 70, train.NRows())
	assert.Equal(t, 30, test.NRows())

	trainIdx, err := train.Indices()
	require.NoError(t, err)
	testIdx, err := test.Indices()
	require.NoError(t, err)

	// Every training index precedes every testing index.
	assert.Less(t, trainIdx[len(trainIdx)-1], testIdx[0])
}

func TestTemporalSplitRejectsDisorder(t *testing.T) {
	csv := sampleCSV(10)
	// Swap two instants so the index order is violated.
	csv = strings.Replace(csv, "\n5,", "\n7,", 1)

	tbl, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	_, _, err = TemporalSplit(tbl, 0.3)
	require.Error(t, err)

	var verr *callcastErrors.ValidationError
	require.True(t, crdb.As(err, &verr))
	assert.Equal(t, "instant", verr.Field)
	assert.Contains(t, verr.Message, "index order violated")
}

func TestTemporalSplitFractionBounds(t *testing.T) {
	tbl := loadSample(t, 10)
	for _, frac := range []float64{0, 1, -0.2, 1.5} {
		_, _, err := TemporalSplit(tbl, frac)
		assert.Error(t, err, "fraction %g", frac)
	}
}

func TestTimestampsCombineDateAndHour(t *testing.T) {
	tbl := loadSample(t, 30)
	ts, err := tbl.Timestamps()
	require.NoError(t, err)
	require.Len(t, ts, 30)

	assert.Equal(t, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), ts[0])
	// Row 25 is hour 1 of the second day.
	assert.Equal(t, time.Date(2011, 1, 2, 1, 0, 0, 0, time.UTC), ts[25])
	for i := 1; i < len(ts); i++ {
		assert.Equal(t, time.Hour, ts[i].Sub(ts[i-1]))
	}
}

func TestTimeFeaturesShape(t *testing.T) {
	tbl := loadSample(t, 48)
	X, err := tbl.TimeFeatures()
	require.NoError(t, err)

	r, c := X.Dims()
	assert.Equal(t, 48, r)
	assert.Equal(t, 3, c)

	for i := 1; i < r; i++ {
		assert.Greater(t, X.At(i, 0), X.At(i-1, 0))
	}
	// Hour 0 of 2011-01-02 is a holiday.
	assert.Equal(t, 1.0, X.At(24, 2))
	assert.Equal(t, 0.0, X.At(24, 1))
}

// The flags in TimeFeatures are day-level: when rows of one date disagree on
// the holiday flag, the derived exception table decides for the whole day.
func TestTimeFeaturesUseDayLevelExceptionLabels(t *testing.T) {
	csv := "instant,dteday,hr,season,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,cnt\n" +
		"1,2011-01-17,0,1,1,1,0,1,0.3,0.3,0.5,0.2,10\n" +
		"2,2011-01-17,1,1,0,1,0,1,0.3,0.3,0.5,0.2,12\n"
	tbl, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	X, err := tbl.TimeFeatures()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		assert.Equal(t, 0.0, X.At(i, 1), "row %d working flag", i)
		assert.Equal(t, 1.0, X.At(i, 2), "row %d holiday flag", i)
	}
}

func TestDeriveExceptions(t *testing.T) {
	tbl := loadSample(t, 24 * 4) // Sat, Sun(holiday), Mon, Tue
	exceptions, err := DeriveExceptions(tbl)
	require.NoError(t, err)

	label, ok := exceptions.Lookup("2011-01-01")
	require.True(t, ok)
	assert.Equal(t, DayWeekend, label)

	label, ok = exceptions.Lookup("2011-01-02")
	require.True(t, ok)
	assert.Equal(t, DayHoliday, label)

	_, ok = exceptions.Lookup("2011-01-03")
	assert.False(t, ok, "working day must not appear in the exception table")
}

func TestDefaultFeatureGroupsValidate(t *testing.T) {
	tbl := loadSample(t, 5)
	groups := DefaultFeatureGroups()
	require.NoError(t, groups.Validate(tbl.Columns()))

	// A column the groups do not cover fails validation.
	err := groups.Validate(append(tbl.Columns(), "mystery"))
	assert.Error(t, err)
}
