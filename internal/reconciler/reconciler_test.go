package reconciler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/registration-reconciler/internal/config"
	"github.com/ginjaninja78/registration-reconciler/internal/report"
	"github.com/ginjaninja78/registration-reconciler/internal/validation"
)

const paymentsCSV = `Date,Time,Name,Type,Gross,From Email Address
3/1/2019,09:00:00,Jane Doe,Website Payment,100.00,jane@example.com
3/1/2019,09:30:00,Ann Lee,Website Payment,60.00,ann@example.com
3/2/2019,10:00:00,Bank,General Withdrawal,-500.00,
3/2/2019,11:00:00,Bob Ray,Website Payment,"1,250.00",bob@example.com
`

// surveyLine builds one positional survey record.
func surveyLine(date, first, last, products string, companions ...string) string {
	fields := []string{date, first, last, strings.ToLower(first) + "@example.com", "555-0100",
		"1 Main St", "", "Springfield", "IL", "62701", "US", products, "", ""}
	for i := 0; i < 5; i++ {
		if i < len(companions) {
			cf, cl, _ := strings.Cut(companions[i], " ")
			fields = append(fields, cf, cl, "")
		} else {
			fields = append(fields, "", "", "")
		}
	}
	return `"` + strings.Join(fields, `","`) + `"` + "\n"
}

type fixture struct {
	dir string
	cfg *config.Config
}

func newFixture(t *testing.T, payments, survey string) fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.PaymentsFile = filepath.Join(dir, "paypal.csv")
	cfg.SurveyFile = filepath.Join(dir, "Tickets-2019.csv")
	cfg.OutputFile = filepath.Join(dir, "output.csv")
	cfg.Filter.OutputFile = filepath.Join(dir, "filtered.csv")

	require.NoError(t, os.WriteFile(cfg.PaymentsFile, []byte(payments), 0o644))
	require.NoError(t, os.WriteFile(cfg.SurveyFile, []byte(survey), 0o644))

	return fixture{dir: dir, cfg: cfg}
}

func defaultSurvey() string {
	return "Submission Date,First,Last\n" +
		surveyLine("2019-03-01 10:00:00", "Jane", "Doe", "Team entry Total: $100.00", "John Smith") +
		surveyLine("2019-03-02 08:00:00", "Bob", "Ray", "Sponsor Total: $1,250.00") +
		surveyLine("2019-03-03 12:00:00", "Carl", "Moss", "Single Total: $50.00")
}

func TestRun(t *testing.T) {
	fx := newFixture(t, paymentsCSV, defaultSurvey())

	result := New(fx.cfg).Run()
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, fx.cfg.OutputFile, result.OutputFile)
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, 4, result.Stats.PaymentRows)
	assert.Equal(t, 3, result.Stats.PaymentsIndexed, "every fee multiple is indexed, 60.00 is not")
	assert.Equal(t, 3, result.Stats.SurveyRows)
	assert.Equal(t, 3, result.Stats.Submissions)
	assert.Equal(t, 0, result.Stats.DuplicatesDropped())
	assert.Equal(t, 3, result.Stats.Groups)
	assert.Equal(t, 4, result.Stats.Attendees)
	assert.Equal(t, 1, result.Stats.UnverifiedGroups)

	data, err := os.ReadFile(fx.cfg.OutputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "Last name,First name,Email,Group number"))
	assert.Contains(t, string(data), `"$1,250.00"`)

	var unverified int
	for _, row := range result.Rows {
		if row.VerificationStatus == report.StatusSomeUnverified {
			unverified++
			assert.Equal(t, "Moss", row.LastName)
		}
	}
	assert.Equal(t, 1, unverified)
}

func TestRunExcludedPaymentTypes(t *testing.T) {
	fx := newFixture(t, paymentsCSV, defaultSurvey())
	fx.cfg.ExcludedPaymentTypes = []string{"General Withdrawal"}

	result := New(fx.cfg, WithDryRun(true)).Run()
	require.NoError(t, result.Error)
	assert.Equal(t, 2, result.Stats.PaymentsIndexed)
	assert.Equal(t, 3, result.Stats.Groups)
}

func TestRunDeduplicatesSubmissions(t *testing.T) {
	survey := "header\n" +
		surveyLine("2019-03-01 10:00:00", "Jane", "Doe", "Total: $50.00") +
		surveyLine("2019-03-02 10:00:00", "Jane", "Doe", "Total: $100.00", "John Smith")
	fx := newFixture(t, paymentsCSV, survey)

	result := New(fx.cfg).Run()
	require.NoError(t, result.Error)
	assert.Equal(t, 2, result.Stats.SurveyRows)
	assert.Equal(t, 1, result.Stats.Submissions)
	assert.Equal(t, 1, result.Stats.DuplicatesDropped())
	assert.Equal(t, 2, result.Stats.Attendees)
}

func TestRunSurveyWithoutHeaderRow(t *testing.T) {
	survey := surveyLine("2019-03-01 10:00:00", "Jane", "Doe", "Total: $100.00", "John Smith")
	fx := newFixture(t, paymentsCSV, survey)
	skip := 0
	fx.cfg.SurveySkipRows = &skip

	result := New(fx.cfg, WithDryRun(true)).Run()
	require.NoError(t, result.Error)
	assert.Equal(t, 1, result.Stats.SurveyRows)
	assert.Equal(t, 2, result.Stats.Attendees)
}

func TestRunErrorLeavesOutputUntouched(t *testing.T) {
	payments := "Date,Time,Name,Type,Gross\n3/1/2019,09:00:00,Jane Doe,Website Payment,abc\n"
	fx := newFixture(t, payments, defaultSurvey())
	require.NoError(t, os.WriteFile(fx.cfg.OutputFile, []byte("previous"), 0o644))

	result := New(fx.cfg).Run()
	require.Error(t, result.Error)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, validation.ErrMalformedAmount)
	assert.Empty(t, result.OutputFile)

	data, err := os.ReadFile(fx.cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestRunMissingPatternMatch(t *testing.T) {
	survey := "header\n" + surveyLine("2019-03-01 10:00:00", "Jane", "Doe", "no amount here")
	fx := newFixture(t, paymentsCSV, survey)

	result := New(fx.cfg).Run()
	assert.ErrorIs(t, result.Error, validation.ErrMissingPatternMatch)
	assert.NoFileExists(t, fx.cfg.OutputFile)
}

func TestRunDryRun(t *testing.T) {
	fx := newFixture(t, paymentsCSV, defaultSurvey())
	fx.cfg.ArchiveDir = filepath.Join(fx.dir, "archive")

	result := New(fx.cfg, WithDryRun(true)).Run()
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Len(t, result.Rows, 4)
	assert.Empty(t, result.OutputFile)
	assert.NoFileExists(t, fx.cfg.OutputFile)
	assert.NoDirExists(t, fx.cfg.ArchiveDir)
}

func TestRunArchivesInputs(t *testing.T) {
	fx := newFixture(t, paymentsCSV, defaultSurvey())
	fx.cfg.ArchiveDir = filepath.Join(fx.dir, "archive")
	clock := func() time.Time { return time.Date(2019, time.March, 4, 8, 0, 0, 0, time.UTC) }

	result := New(fx.cfg, WithClock(clock)).Run()
	require.NoError(t, result.Error)
	require.Len(t, result.Archived, 2)
	assert.Equal(t, filepath.Join(fx.cfg.ArchiveDir, "20190304_080000_paypal.csv"), result.Archived[0])
	assert.FileExists(t, result.Archived[1])
	assert.FileExists(t, fx.cfg.PaymentsFile)
}

func TestRunFilter(t *testing.T) {
	fx := newFixture(t, paymentsCSV, defaultSurvey())
	fx.cfg.Filter.Columns = []string{"Name", "Gross"}

	result := New(fx.cfg).RunFilter()
	require.NoError(t, result.Error)
	assert.Equal(t, 4, result.RowsRead)
	assert.Equal(t, 2, result.RowsKept)

	data, err := os.ReadFile(fx.cfg.Filter.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "Name,Gross\nJane Doe,100.00\nBob Ray,\"1,250.00\"\n", string(data))
}

func TestRunFilterMinAmount(t *testing.T) {
	fx := newFixture(t, paymentsCSV, defaultSurvey())
	fx.cfg.Filter.Columns = []string{"Name"}
	fx.cfg.Filter.MinAmount = "100"

	result := New(fx.cfg).RunFilter()
	require.NoError(t, result.Error)
	assert.Equal(t, 1, result.RowsKept)

	data, err := os.ReadFile(fx.cfg.Filter.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "Name\nBob Ray\n", string(data))
}

func TestRunFilterMissingColumn(t *testing.T) {
	fx := newFixture(t, paymentsCSV, defaultSurvey())
	fx.cfg.Filter.Columns = []string{"Name", "Balance"}

	result := New(fx.cfg).RunFilter()
	assert.ErrorIs(t, result.Error, validation.ErrMissingField)
	assert.NoFileExists(t, fx.cfg.Filter.OutputFile)
}

func TestRunUsesGivenRunID(t *testing.T) {
	fx := newFixture(t, paymentsCSV, defaultSurvey())

	result := New(fx.cfg, WithRunID("run-1"), WithDryRun(true)).Run()
	require.NoError(t, result.Error)
	assert.Equal(t, "run-1", result.RunID)
}
