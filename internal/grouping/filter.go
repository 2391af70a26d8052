package grouping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/registration-reconciler/internal/ledger"
)

// =============================================================================
// PAYMENT FILTER
// =============================================================================

// FilterOptions selects qualifying ledger rows.
type FilterOptions struct {
	// Divisor: Gross must be a whole multiple of it.
	Divisor decimal.Decimal

	// MinAmount, when set, requires Gross to be strictly greater.
	MinAmount *decimal.Decimal

	// ExcludedTypes are ledger Type values that never qualify.
	ExcludedTypes []string
}

// FilterPayments returns the ledger rows that qualify, in file order.
//
// A row qualifies when its Type is not excluded, its Gross is a whole
// multiple of the divisor and, if a minimum is set, Gross exceeds it. This
// is the same fee-multiple rule BuildPaymentIndex applies.
func FilterPayments(rows []ledger.PaymentRow, opts FilterOptions) ([]ledger.PaymentRow, error) {
	if !opts.Divisor.IsPositive() {
		return nil, fmt.Errorf("filter divisor must be greater than zero, got %s", opts.Divisor)
	}

	excluded := make(map[string]bool, len(opts.ExcludedTypes))
	for _, t := range opts.ExcludedTypes {
		excluded[t] = true
	}

	var kept []ledger.PaymentRow
	for _, row := range rows {
		if excluded[row.Type] {
			continue
		}
		if !row.Gross.Mod(opts.Divisor).IsZero() {
			continue
		}
		if opts.MinAmount != nil && !row.Gross.GreaterThan(*opts.MinAmount) {
			continue
		}
		kept = append(kept, row)
	}

	return kept, nil
}
