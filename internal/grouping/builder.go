package grouping

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/registration-reconciler/internal/ledger"
	"github.com/ginjaninja78/registration-reconciler/internal/logging"
	"github.com/ginjaninja78/registration-reconciler/internal/names"
	"github.com/ginjaninja78/registration-reconciler/internal/types"
	"github.com/ginjaninja78/registration-reconciler/internal/validation"
)

// =============================================================================
// GROUP BUILDER
// =============================================================================

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// AmountPattern extracts the paid amount from the products field. The
	// first capture group is the amount. Required.
	AmountPattern *regexp.Regexp

	// Logger receives candidate, match and merge details at debug level.
	// Optional.
	Logger logging.Logger
}

// Builder turns deduplicated submissions into groups. Submissions must be
// added in ascending timestamp order, as Deduplicate returns them.
// A Builder is not safe for concurrent use.
type Builder struct {
	index      *PaymentIndex
	normalizer *names.Normalizer
	opts       BuilderOptions

	// byName holds the group currently registered under each attendee name.
	byName map[string]*types.Group

	nextSeq int
}

// NewBuilder returns an empty Builder.
func NewBuilder(index *PaymentIndex, normalizer *names.Normalizer, opts BuilderOptions) *Builder {
	return &Builder{
		index:      index,
		normalizer: normalizer,
		opts:       opts,
		byName:     make(map[string]*types.Group),
	}
}

// Add folds one submission into the groups built so far.
//
// PROCESSING STEPS:
//   1. Build the candidate attendees: filled companion slots, then the
//      registrant with contact details and the amount from the products field.
//   2. Record a payment for the registrant, verified when the payment index
//      holds the same amount under the registrant's name.
//   3. Find a registered group that contains, or is contained by, the
//      candidate's names.
//   4. Merge into that group or register the candidate as a new group, and
//      point every attendee name at the result.
//
// RETURNS:
//   - A MissingPatternMatch or MalformedAmount error, located at the
//     submission's row, when the products amount cannot be read.
func (b *Builder) Add(sub Submission) error {
	row := sub.Row

	amount, err := b.extractAmount(row.Products)
	if err != nil {
		return validation.AtRow(err, row.Source, row.RowNumber)
	}

	// =========================================================================
	// STEP 1: CANDIDATE ATTENDEES
	// =========================================================================

	attendees := make([]types.Attendee, 0, len(row.Companions)+1)
	for _, c := range row.Companions {
		name := b.normalizer.FromParts(c.FirstName, c.LastName)
		if name == "" {
			continue
		}
		attendees = append(attendees, types.Attendee{Name: name, Email: c.Email})
	}
	attendees = append(attendees, types.Attendee{
		Name:    sub.Registrant,
		Email:   row.Email,
		Phone:   row.Phone,
		Address: row.Address(),
		Amount:  amount,
	})

	// =========================================================================
	// STEP 2: PAYMENT
	// =========================================================================

	verified := false
	if indexed, ok := b.index.Lookup(sub.Registrant); ok && indexed.Amount.Equal(amount) {
		verified = true
	}
	submittedAt := sub.Time
	payment := types.Payment{
		PayerName: sub.Registrant,
		Amount:    amount,
		Verified:  verified,
		Time:      &submittedAt,
	}

	candidate := types.NewGroup(b.nextSeq, attendees, []types.Payment{payment})
	b.debugf("candidate group from %s row %d: %v (payment %s, verified %t)",
		row.Source, row.RowNumber, candidate.Names(), amount.StringFixed(2), verified)

	// =========================================================================
	// STEP 3: CONTAINMENT MATCH
	// =========================================================================

	group := candidate
	if existing := FindContainingGroup(candidate.Names(), b.byName); existing != nil {
		b.debugf("candidate %v matches group %v", candidate.Names(), existing.Names())
		group = mergeGroups(existing, candidate)
	} else {
		b.nextSeq++
	}

	// =========================================================================
	// STEP 4: REGISTER
	// =========================================================================

	for _, name := range group.Names() {
		b.byName[name] = group
	}

	return nil
}

// Groups returns the distinct groups reachable from any attendee name, in
// creation order. A group registered under several names appears once.
func (b *Builder) Groups() []*types.Group {
	seen := make(map[*types.Group]bool)
	var groups []*types.Group

	for _, g := range b.byName {
		if seen[g] {
			continue
		}
		seen[g] = true
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Seq() < groups[j].Seq()
	})

	for _, g := range groups {
		b.debugf("final group (seq %d): %v, %d payment(s)", g.Seq(), g.Names(), len(g.Payments()))
	}

	return groups
}

// mergeGroups combines an existing group with a candidate into a new group
// that keeps the existing group's sequence number. Existing attendees come
// first and win field by field; the candidate's payment is added last and
// replaces an earlier payment by the same payer.
func mergeGroups(existing, candidate *types.Group) *types.Group {
	order := existing.Names()
	for _, name := range candidate.Names() {
		if !existing.Has(name) {
			order = append(order, name)
		}
	}

	attendees := make([]types.Attendee, 0, len(order))
	for _, name := range order {
		merged := MergeAttendees(attendeeRef(existing, name), attendeeRef(candidate, name))
		attendees = append(attendees, *merged)
	}

	payments := append(existing.Payments(), candidate.Payments()...)

	return types.NewGroup(existing.Seq(), attendees, payments)
}

// attendeeRef returns a pointer to a copy of the named attendee, or nil.
func attendeeRef(g *types.Group, name string) *types.Attendee {
	a, ok := g.Attendee(name)
	if !ok {
		return nil
	}
	return &a
}

// extractAmount reads the paid amount from a products field.
func (b *Builder) extractAmount(products string) (decimal.Decimal, error) {
	if b.opts.AmountPattern == nil {
		return decimal.Zero, fmt.Errorf("group builder requires an amount pattern")
	}

	m := b.opts.AmountPattern.FindStringSubmatch(products)
	if m == nil || len(m) < 2 {
		return decimal.Zero, validation.NewMissingPatternMatch(ledger.FieldProducts, products)
	}

	return ledger.ParseAmount(ledger.FieldProducts, m[1])
}

func (b *Builder) debugf(template string, args ...interface{}) {
	if b.opts.Logger != nil {
		b.opts.Logger.Debugf(template, args...)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
