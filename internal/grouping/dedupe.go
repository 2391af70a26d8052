package grouping

import (
	"sort"
	"time"

	"github.com/araddon/dateparse"

	"github.com/ginjaninja78/registration-reconciler/internal/ledger"
	"github.com/ginjaninja78/registration-reconciler/internal/names"
	"github.com/ginjaninja78/registration-reconciler/internal/validation"
)

// =============================================================================
// SUBMISSION DEDUPLICATION
// =============================================================================

// Submission is the surviving survey row of one registrant.
type Submission struct {
	// Registrant is the normalized name of the surveyee.
	Registrant string

	// Time is the parsed submission timestamp.
	Time time.Time

	// Position is the index of Row in the survey ledger.
	Position int

	Row ledger.SurveyRow
}

// Deduplicate keeps the most recent submission of every registrant.
//
// PARAMETERS:
//   - rows: The survey rows in file order.
//   - n: The name normalizer used to key registrants.
//
// RETURNS:
//   - The surviving submissions sorted by ascending timestamp. Equal
//     timestamps keep file order.
//   - A MalformedTimestamp error for the first unparseable submission_date,
//     or a MissingField error for a registrant whose name normalizes to "".
//
// A row replaces the chosen row only when its timestamp is strictly later,
// so on a tie the row seen first is kept.
func Deduplicate(rows []ledger.SurveyRow, n *names.Normalizer) ([]Submission, error) {
	chosen := make(map[string]int)
	var subs []Submission

	for i, row := range rows {
		ts, err := ParseTimestamp(row.SubmissionDate)
		if err != nil {
			return nil, validation.AtRow(err, row.Source, row.RowNumber)
		}

		registrant := n.FromParts(row.FirstName, row.LastName)
		if registrant == "" {
			return nil, validation.AtRow(validation.NewMissingField(ledger.FieldSurveyeeFirstName), row.Source, row.RowNumber)
		}

		sub := Submission{Registrant: registrant, Time: ts, Position: i, Row: row}

		at, seen := chosen[registrant]
		if !seen {
			chosen[registrant] = len(subs)
			subs = append(subs, sub)
			continue
		}
		if ts.After(subs[at].Time) {
			subs[at] = sub
		}
	}

	sort.SliceStable(subs, func(i, j int) bool {
		if !subs[i].Time.Equal(subs[j].Time) {
			return subs[i].Time.Before(subs[j].Time)
		}
		return subs[i].Position < subs[j].Position
	})

	return subs, nil
}

// ParseTimestamp parses a free-form submission timestamp. Month-first order
// is assumed for ambiguous numeric dates; values without a zone are UTC.
func ParseTimestamp(value string) (time.Time, error) {
	ts, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, validation.NewMalformedTimestamp(ledger.FieldSubmissionDate, value, err)
	}
	return ts, nil
}
