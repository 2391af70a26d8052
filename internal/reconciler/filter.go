package reconciler

import (
	"fmt"

	"github.com/ginjaninja78/registration-reconciler/internal/grouping"
	"github.com/ginjaninja78/registration-reconciler/internal/ledger"
	"github.com/ginjaninja78/registration-reconciler/internal/reportwriter"
	"github.com/ginjaninja78/registration-reconciler/internal/validation"
)

// =============================================================================
// PAYMENT FILTER RUN
// =============================================================================

// FilterResult represents the outcome of a payment filter run.
type FilterResult struct {
	// OutputFile is the filtered ledger that was written. Empty on failure
	// or in a dry run.
	OutputFile string

	// RowsRead is the number of ledger rows read.
	RowsRead int

	// RowsKept is the number of qualifying rows.
	RowsKept int

	Success bool
	Error   error
}

// RunFilter exports the qualifying rows of the payment ledger, keeping only
// the configured columns.
func (r *Reconciler) RunFilter() FilterResult {
	var result FilterResult
	cfg := r.cfg

	r.logger.Infof("reading payment ledger %s", cfg.PaymentsFile)

	payments, err := ledger.ReadPayments(cfg.PaymentsFile, cfg.CSVSettings)
	if err != nil {
		result.Error = err
		return result
	}
	result.RowsRead = len(payments.Rows)

	if err := validation.RequireColumns(payments.Headers, cfg.Filter.Columns...); err != nil {
		result.Error = validation.AtRow(err, payments.Source, 1)
		return result
	}

	opts := grouping.FilterOptions{
		Divisor:       cfg.FilterDivisor(),
		ExcludedTypes: cfg.Filter.ExcludedTypes,
	}
	if minAmount, ok := cfg.FilterMinAmount(); ok {
		opts.MinAmount = &minAmount
	}

	kept, err := grouping.FilterPayments(payments.Rows, opts)
	if err != nil {
		result.Error = fmt.Errorf("failed to filter payments: %w", err)
		return result
	}
	result.RowsKept = len(kept)

	table := reportwriter.Table{
		Sheet:   reportwriter.PaymentsSheet,
		Header:  cfg.Filter.Columns,
		Records: make([][]string, len(kept)),
	}
	for i, row := range kept {
		record := make([]string, len(cfg.Filter.Columns))
		for j, col := range cfg.Filter.Columns {
			record[j] = row.Fields[col]
		}
		table.Records[i] = record
	}

	if r.dryRun {
		r.logger.Infof("dry run: skipping write of %d payment row(s) to %s", len(kept), cfg.Filter.OutputFile)
	} else {
		if err := reportwriter.Write(cfg.Filter.OutputFile, table, cfg.CSVSettings); err != nil {
			result.Error = err
			return result
		}
		result.OutputFile = cfg.Filter.OutputFile
		r.logger.Infof("wrote %d of %d payment row(s) to %s", len(kept), len(payments.Rows), cfg.Filter.OutputFile)
	}

	result.Success = true
	return result
}
