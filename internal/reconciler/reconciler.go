// =============================================================================
// Registration Reconciler - Reconciler Module
// =============================================================================
//
// This module runs one reconciliation batch from input ledgers to roster.
//
// RECONCILIATION PIPELINE:
//   1. Read and decode the payment ledger
//   2. Build the payment index
//   3. Read and decode the survey ledger
//   4. Deduplicate submissions by registrant
//   5. Build and merge groups, oldest submission first
//   6. Generate the roster rows
//   7. Write the roster (all-or-nothing)
//   8. Archive the inputs
//
// ERROR HANDLING:
//   The first error aborts the run before anything is written. A failed
//   archive step is logged and does not fail a run whose roster was written.
//
// =============================================================================

package reconciler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/registration-reconciler/internal/config"
	"github.com/ginjaninja78/registration-reconciler/internal/grouping"
	"github.com/ginjaninja78/registration-reconciler/internal/ledger"
	"github.com/ginjaninja78/registration-reconciler/internal/logging"
	"github.com/ginjaninja78/registration-reconciler/internal/names"
	"github.com/ginjaninja78/registration-reconciler/internal/report"
	"github.com/ginjaninja78/registration-reconciler/internal/reportwriter"
	"github.com/ginjaninja78/registration-reconciler/internal/types"
	"github.com/ginjaninja78/registration-reconciler/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of a reconciliation run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// OutputFile is the roster that was written. Empty on failure or in a
	// dry run.
	OutputFile string

	// Archived lists the archived copies of the inputs.
	Archived []string

	// Success indicates whether the run completed.
	Success bool

	// Error contains the error if the run failed.
	Error error

	// Rows holds the generated roster rows.
	Rows []types.RosterRow

	// Stats contains run statistics.
	Stats Stats
}

// Stats contains statistics about a run.
type Stats struct {
	// PaymentRows is the number of payment ledger rows read.
	PaymentRows int

	// PaymentsIndexed is the number of payers with a verified payment.
	PaymentsIndexed int

	// SurveyRows is the number of survey submissions read.
	SurveyRows int

	// Submissions is the number of submissions left after deduplication.
	Submissions int

	// Groups is the number of final groups.
	Groups int

	// Attendees is the number of roster rows.
	Attendees int

	// UnverifiedGroups is the number of groups with an unverified payment.
	UnverifiedGroups int

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// DuplicatesDropped is the number of survey rows replaced by a newer
// submission of the same registrant.
func (s Stats) DuplicatesDropped() int {
	return s.SurveyRows - s.Submissions
}

// =============================================================================
// RECONCILER STRUCTURE
// =============================================================================

// Reconciler runs reconciliation batches for one configuration.
type Reconciler struct {
	cfg    *config.Config
	logger logging.Logger
	runID  string
	dryRun bool
	now    func() time.Time
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithRunID sets the run identifier. The default is a new UUID.
func WithRunID(id string) Option {
	return func(r *Reconciler) { r.runID = id }
}

// WithDryRun runs the whole pipeline without writing or archiving.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) { r.dryRun = dryRun }
}

// WithClock sets the clock used for archive timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New creates a Reconciler.
//
// PARAMETERS:
//   - cfg: The validated configuration.
//   - opts: Optional logger, run ID, dry-run and clock settings.
//
// RETURNS:
//   - A new Reconciler instance.
func New(cfg *config.Config, opts ...Option) *Reconciler {
	r := &Reconciler{
		cfg:    cfg,
		logger: logging.Nop(),
		runID:  NewRunID(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRunID returns an identifier for a run.
func NewRunID() string {
	return uuid.New().String()
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the reconciliation pipeline once.
//
// RETURNS:
//   - A Result describing the outcome. Result.Error holds the first error.
func (r *Reconciler) Run() Result {
	startTime := r.now()
	result := Result{RunID: r.runID}
	cfg := r.cfg

	normalizer := names.New(cfg.NameCorrections)

	// =========================================================================
	// STEP 1-2: PAYMENT LEDGER AND INDEX
	// =========================================================================

	r.logger.Infof("reading payment ledger %s", cfg.PaymentsFile)

	payments, err := ledger.ReadPayments(cfg.PaymentsFile, cfg.CSVSettings)
	if err != nil {
		result.Error = err
		return result
	}
	result.Stats.PaymentRows = len(payments.Rows)

	index, err := grouping.BuildPaymentIndex(payments.Rows, grouping.IndexOptions{
		Fee:           cfg.Fee(),
		ExcludedTypes: cfg.ExcludedPaymentTypes,
		Normalizer:    normalizer,
		Logger:        r.logger,
	})
	if err != nil {
		result.Error = fmt.Errorf("failed to index payments: %w", err)
		return result
	}
	result.Stats.PaymentsIndexed = index.Len()
	r.logger.Debugf("indexed %d verified payer(s) from %d payment row(s)", index.Len(), len(payments.Rows))

	// =========================================================================
	// STEP 3-4: SURVEY LEDGER AND DEDUPLICATION
	// =========================================================================

	r.logger.Infof("reading survey ledger %s", cfg.SurveyFile)

	survey, err := ledger.ReadSurvey(cfg.SurveyFile, cfg.CSVSettings, cfg.SkipRows())
	if err != nil {
		result.Error = err
		return result
	}
	result.Stats.SurveyRows = len(survey)

	submissions, err := grouping.Deduplicate(survey, normalizer)
	if err != nil {
		result.Error = err
		return result
	}
	result.Stats.Submissions = len(submissions)
	r.logger.Debugf("kept %d of %d submission(s) after deduplication", len(submissions), len(survey))

	// =========================================================================
	// STEP 5: GROUPS
	// =========================================================================

	builder := grouping.NewBuilder(index, normalizer, grouping.BuilderOptions{
		AmountPattern: cfg.CompiledAmountPattern(),
		Logger:        r.logger,
	})
	for _, sub := range submissions {
		if err := builder.Add(sub); err != nil {
			result.Error = err
			return result
		}
	}
	groups := builder.Groups()

	// =========================================================================
	// STEP 6: ROSTER
	// =========================================================================

	rows := report.Generate(groups, report.Options{CurrencySymbol: cfg.CurrencySymbol})
	result.Rows = rows
	result.Stats.Groups = len(groups)
	result.Stats.Attendees = len(rows)
	result.Stats.UnverifiedGroups = countUnverified(rows)

	// =========================================================================
	// STEP 7: WRITE OUTPUT
	// =========================================================================

	if r.dryRun {
		r.logger.Infof("dry run: skipping write of %d roster row(s) to %s", len(rows), cfg.OutputFile)
	} else {
		if err := reportwriter.WriteRoster(cfg.OutputFile, rows, cfg.CSVSettings); err != nil {
			result.Error = err
			return result
		}
		result.OutputFile = cfg.OutputFile
		r.logger.Infof("wrote %d roster row(s) in %d group(s) to %s", len(rows), len(groups), cfg.OutputFile)

		// =====================================================================
		// STEP 8: ARCHIVE INPUTS
		// =====================================================================

		if cfg.ArchiveDir != "" {
			archived, err := utils.ArchiveFiles(cfg.ArchiveDir, startTime, cfg.PaymentsFile, cfg.SurveyFile)
			if err != nil {
				r.logger.Warnf("failed to archive inputs: %v", err)
			}
			result.Archived = archived
		}
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	result.Stats.ProcessingTime = r.now().Sub(startTime)

	return result
}

// countUnverified counts the groups whose rows report an unverified payment.
func countUnverified(rows []types.RosterRow) int {
	unverified := make(map[int]bool)
	for _, row := range rows {
		if row.VerificationStatus == report.StatusSomeUnverified {
			unverified[row.GroupNumber] = true
		}
	}
	return len(unverified)
}
