// =============================================================================
// Registration Reconciler - Report Generator
// =============================================================================
//
// This module turns the final groups into roster rows.
//
// ORDERING:
//   Groups are sorted by their earliest payment time. A payment without a
//   time sorts after every timed payment; groups that still compare equal
//   keep their creation order. Group numbers start at 1 in sorted order.
//
// PER GROUP:
//   - Group amount: sum of every payment
//   - Verification: "All verified" when every payment is verified
//   - Members and payees: names joined by ", "
//   - One row per attendee with the attendee's own paid amount
//
// =============================================================================

package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ginjaninja78/registration-reconciler/internal/names"
	"github.com/ginjaninja78/registration-reconciler/internal/types"
)

// Verification statuses.
const (
	StatusAllVerified    = "All verified"
	StatusSomeUnverified = "Some unverified"
)

// DefaultCurrencySymbol prefixes amounts when no symbol is configured.
const DefaultCurrencySymbol = "$"

// =============================================================================
// CURRENCY FORMATTING
// =============================================================================

// Currency formats amounts with a symbol, thousands separators and exactly
// two decimal places.
type Currency struct {
	symbol  string
	printer *message.Printer
}

// NewCurrency returns a Currency using symbol, or DefaultCurrencySymbol when
// symbol is empty.
func NewCurrency(symbol string) Currency {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return Currency{symbol: symbol, printer: message.NewPrinter(language.English)}
}

// Format renders an amount, for example 1250 as "$1,250.00". The amount is
// rounded to cents in decimal; only the whole part goes through the printer
// for grouping.
func (c Currency) Format(amount decimal.Decimal) string {
	rounded := amount.Round(2)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}

	_, cents, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")
	whole := c.printer.Sprintf("%d", rounded.Abs().IntPart())

	return c.symbol + sign + whole + "." + cents
}

// FormatCurrency renders an amount with DefaultCurrencySymbol.
func FormatCurrency(amount decimal.Decimal) string {
	return NewCurrency(DefaultCurrencySymbol).Format(amount)
}

// =============================================================================
// GENERATION
// =============================================================================

// Options configures Generate.
type Options struct {
	// CurrencySymbol prefixes every amount. Default: "$".
	CurrencySymbol string
}

// Generate produces the roster rows for the final groups.
//
// PARAMETERS:
//   - groups: The distinct final groups. The slice is not modified.
//   - opts: Output formatting.
//
// RETURNS:
//   - One row per attendee, grouped and numbered in payment-time order.
func Generate(groups []*types.Group, opts Options) []types.RosterRow {
	currency := NewCurrency(opts.CurrencySymbol)
	sorted := SortGroups(groups)

	var rows []types.RosterRow
	for i, g := range sorted {
		groupNumber := i + 1
		payments := g.Payments()

		total := decimal.Zero
		allVerified := true
		payees := make([]string, 0, len(payments))
		for _, p := range payments {
			total = total.Add(p.Amount)
			allVerified = allVerified && p.Verified
			payees = append(payees, p.PayerName)
		}

		status := StatusAllVerified
		if !allVerified {
			status = StatusSomeUnverified
		}

		members := strings.Join(g.Names(), ", ")
		payeeList := strings.Join(payees, ", ")
		groupAmount := currency.Format(total)

		for _, a := range g.Attendees() {
			first, last := names.SplitKey(a.Name)
			rows = append(rows, types.RosterRow{
				LastName:           last,
				FirstName:          first,
				Email:              a.Email,
				GroupNumber:        groupNumber,
				GroupMembers:       members,
				PaidAmount:         currency.Format(a.Amount),
				GroupAmount:        groupAmount,
				Payees:             payeeList,
				VerificationStatus: status,
				Phone:              a.Phone,
				Address:            a.Address,
			})
		}
	}

	return rows
}

// SortGroups returns the groups ordered by earliest payment time, then by
// creation order.
func SortGroups(groups []*types.Group) []*types.Group {
	sorted := make([]*types.Group, len(groups))
	copy(sorted, groups)

	sort.SliceStable(sorted, func(i, j int) bool {
		if c := compareEarliest(sorted[i], sorted[j]); c != 0 {
			return c < 0
		}
		return sorted[i].Seq() < sorted[j].Seq()
	})

	return sorted
}

// compareEarliest compares two groups by their earliest payment. A group
// without payments compares like a payment without a time.
func compareEarliest(a, b *types.Group) int {
	pa, _ := a.EarliestPayment()
	pb, _ := b.EarliestPayment()
	return types.ComparePaymentTimes(pa, pb)
}
