// =============================================================================
// Registration Reconciler - Grouping Engine
// =============================================================================
//
// This package is the record-linkage core. It runs in four stages:
//   1. BuildPaymentIndex : verified payments by normalized payer name
//   2. Deduplicate       : newest survey submission per registrant
//   3. Builder           : candidate groups, containment matching, merging
//   4. MergeAttendees    : field-level reconciliation of one person's records
//
// All state is owned by the values these functions return. A run creates
// its own index, submissions and builder; nothing is shared between runs.
//
// =============================================================================

package grouping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/registration-reconciler/internal/ledger"
	"github.com/ginjaninja78/registration-reconciler/internal/logging"
	"github.com/ginjaninja78/registration-reconciler/internal/names"
	"github.com/ginjaninja78/registration-reconciler/internal/types"
)

// =============================================================================
// PAYMENT INDEX
// =============================================================================

// IndexOptions configures BuildPaymentIndex.
type IndexOptions struct {
	// Fee is the registration fee. Only amounts that are whole multiples of
	// it are indexed.
	Fee decimal.Decimal

	// ExcludedTypes are ledger Type values that are never indexed.
	ExcludedTypes []string

	// Normalizer canonicalizes payer names. Required.
	Normalizer *names.Normalizer

	// Logger receives debug output. Optional.
	Logger logging.Logger
}

// PaymentIndex maps normalized payer names to their verified payment.
type PaymentIndex struct {
	entries map[string]types.Payment
}

// BuildPaymentIndex indexes the qualifying rows of a payment ledger.
//
// PARAMETERS:
//   - rows: The ledger rows in file order.
//   - opts: The fee, excluded types and normalizer.
//
// RETURNS:
//   - The index. A later qualifying row for the same payer replaces an
//     earlier one; amounts are never summed.
//   - An error if the fee is not positive or no normalizer is given.
func BuildPaymentIndex(rows []ledger.PaymentRow, opts IndexOptions) (*PaymentIndex, error) {
	if !opts.Fee.IsPositive() {
		return nil, fmt.Errorf("registration fee must be greater than zero, got %s", opts.Fee)
	}
	if opts.Normalizer == nil {
		return nil, fmt.Errorf("payment index requires a name normalizer")
	}

	excluded := make(map[string]bool, len(opts.ExcludedTypes))
	for _, t := range opts.ExcludedTypes {
		excluded[t] = true
	}

	index := &PaymentIndex{entries: make(map[string]types.Payment)}

	for _, row := range rows {
		if excluded[row.Type] {
			continue
		}
		if !row.Gross.Mod(opts.Fee).IsZero() {
			continue
		}

		name := opts.Normalizer.Normalize(row.Name)
		if name == "" {
			if opts.Logger != nil {
				opts.Logger.Debugf("skipping qualifying payment without a payer name at %s row %d", row.Source, row.RowNumber)
			}
			continue
		}

		index.entries[name] = types.Payment{
			PayerName: name,
			Amount:    row.Gross,
			Verified:  true,
		}
	}

	return index, nil
}

// Lookup returns the indexed payment for a normalized name.
func (p *PaymentIndex) Lookup(name string) (types.Payment, bool) {
	payment, ok := p.entries[name]
	return payment, ok
}

// Len returns the number of indexed payers.
func (p *PaymentIndex) Len() int {
	return len(p.entries)
}
