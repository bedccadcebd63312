package dataset

import (
	"strings"

	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// FeatureGroups is the fixed partition of input columns by encoding strategy.
// The partition is domain knowledge, not inferred from data: the sets must be
// mutually exclusive and together cover every input column except the target.
//
// Components receive the partition as an explicit value rather than reading
// shared package state, so a trial can never observe a partially edited
// partition.
type FeatureGroups struct {
	// Numerical columns are mean-imputed and standardized.
	Numerical []string

	// Ordinal columns carry an order but are one-hot encoded like
	// categoricals for the tabular models.
	Ordinal []string

	// Categorical columns are mode-imputed and one-hot encoded.
	Categorical []string

	// Excluded columns never reach an estimator (identifiers, raw dates).
	Excluded []string
}

// DefaultFeatureGroups returns the partition used by the analysis.
func DefaultFeatureGroups() FeatureGroups {
	return FeatureGroups{
		Numerical:   []string{ColTemp, ColATemp, ColHum, ColWindspeed},
		Ordinal:     []string{ColHour, ColWeekday},
		Categorical: []string{ColSeason, ColWeathersit, ColHoliday, ColWorkingday},
		Excluded:    []string{ColInstant, ColDate},
	}
}

// Encoded returns the ordinal and categorical columns in encoding order:
// ordinals first, then categoricals.
func (g FeatureGroups) Encoded() []string {
	out := make([]string, 0, len(g.Ordinal)+len(g.Categorical))
	out = append(out, g.Ordinal...)
	out = append(out, g.Categorical...)
	return out
}

// Validate checks the partition against the actual table columns: every
// column except the target must appear in exactly one group, and no group may
// name a column the table lacks.
func (g FeatureGroups) Validate(columns []string) error {
	seen := make(map[string]string) // column -> group name
	for _, pair := range []struct {
		name string
		cols []string
	}{
		{"numerical", g.Numerical},
		{"ordinal", g.Ordinal},
		{"categorical", g.Categorical},
		{"excluded", g.Excluded},
	} {
		for _, col := range pair.cols {
			if prev, dup := seen[col]; dup {
				return callcastErrors.NewValidationError("feature_groups",
					"column assigned to both "+prev+" and "+pair.name, col)
			}
			seen[col] = pair.name
		}
	}

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}
	for col := range seen {
		if !present[col] {
			return callcastErrors.NewValidationError("feature_groups",
				"column not present in table", col)
		}
	}

	var uncovered []string
	for _, col := range columns {
		if col == ColTarget {
			continue
		}
		if _, ok := seen[col]; !ok {
			uncovered = append(uncovered, col)
		}
	}
	if len(uncovered) > 0 {
		return callcastErrors.NewValidationError("feature_groups",
			"columns not covered by any group", strings.Join(uncovered, ","))
	}

	return nil
}
