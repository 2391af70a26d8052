// =============================================================================
// Registration Reconciler - Shared Types
// =============================================================================
//
// This package contains the record types shared by the grouping engine, the
// report generator and the writers. Keeping them here avoids import cycles:
//   - grouping     builds Payments, Attendees and Groups
//   - report       reads Groups and produces RosterRows
//   - reportwriter writes RosterRows
//
// IMMUTABILITY:
//   Payment and Attendee are plain values. A Group is built once by NewGroup
//   and exposes read-only accessors; a merge always produces a new Group.
//   The same *Group is referenced from several attendee-name keys at once.
//
// =============================================================================

package types

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT
// =============================================================================

// Payment is one payment attributed to a normalized payer name.
type Payment struct {
	// PayerName is the normalized "First Last" key of the payer.
	PayerName string

	// Amount is the paid amount.
	Amount decimal.Decimal

	// Verified is true when a qualifying ledger transaction backs the payment.
	Verified bool

	// Time is the submission time the payment was recorded for.
	// Nil for entries that come straight from the payment ledger.
	Time *time.Time
}

// ComparePaymentTimes orders two payments by Time.
// It returns -1, 0 or +1. A nil Time sorts after every non-nil Time and two
// nil Times compare equal, so the relation is a total preorder.
func ComparePaymentTimes(a, b Payment) int {
	switch {
	case a.Time == nil && b.Time == nil:
		return 0
	case a.Time == nil:
		return 1
	case b.Time == nil:
		return -1
	default:
		return a.Time.Compare(*b.Time)
	}
}

// =============================================================================
// ATTENDEE
// =============================================================================

// Attendee is one person listed on a submission.
type Attendee struct {
	// Name is the normalized "First Last" key.
	Name string

	Email   string
	Phone   string
	Address string

	// Amount is what this attendee paid. Zero for companions.
	Amount decimal.Decimal
}

// =============================================================================
// GROUP
// =============================================================================

// Group is a recovered set of attendees who registered and paid together.
// Attendees are keyed by Name and payments by PayerName; both keep the order
// in which their keys were first seen.
type Group struct {
	seq int

	attendees     []Attendee
	attendeeIndex map[string]int

	payments     []Payment
	paymentIndex map[string]int
}

// NewGroup builds a group from attendees and payments.
//
// PARAMETERS:
//   - seq: Creation sequence number, used as the final ordering tie-break.
//   - attendees: Attendees in order. A repeated name replaces the earlier
//     record but keeps the earlier position.
//   - payments: Payments in order, keyed by payer name the same way.
//
// RETURNS:
//   - A new, immutable Group. The input slices are copied.
func NewGroup(seq int, attendees []Attendee, payments []Payment) *Group {
	g := &Group{
		seq:           seq,
		attendees:     make([]Attendee, 0, len(attendees)),
		attendeeIndex: make(map[string]int, len(attendees)),
		payments:      make([]Payment, 0, len(payments)),
		paymentIndex:  make(map[string]int, len(payments)),
	}

	for _, a := range attendees {
		if i, ok := g.attendeeIndex[a.Name]; ok {
			g.attendees[i] = a
			continue
		}
		g.attendeeIndex[a.Name] = len(g.attendees)
		g.attendees = append(g.attendees, a)
	}

	for _, p := range payments {
		if i, ok := g.paymentIndex[p.PayerName]; ok {
			g.payments[i] = p
			continue
		}
		g.paymentIndex[p.PayerName] = len(g.payments)
		g.payments = append(g.payments, p)
	}

	return g
}

// Seq returns the creation sequence number of the group.
func (g *Group) Seq() int {
	return g.seq
}

// Len returns the number of attendees.
func (g *Group) Len() int {
	return len(g.attendees)
}

// Names returns the attendee names in order.
func (g *Group) Names() []string {
	names := make([]string, len(g.attendees))
	for i, a := range g.attendees {
		names[i] = a.Name
	}
	return names
}

// Has reports whether the group contains an attendee with the given name.
func (g *Group) Has(name string) bool {
	_, ok := g.attendeeIndex[name]
	return ok
}

// Attendee returns the attendee with the given name.
func (g *Group) Attendee(name string) (Attendee, bool) {
	i, ok := g.attendeeIndex[name]
	if !ok {
		return Attendee{}, false
	}
	return g.attendees[i], true
}

// Attendees returns a copy of the attendees in order.
func (g *Group) Attendees() []Attendee {
	out := make([]Attendee, len(g.attendees))
	copy(out, g.attendees)
	return out
}

// Payments returns a copy of the payments in order.
func (g *Group) Payments() []Payment {
	out := make([]Payment, len(g.payments))
	copy(out, g.payments)
	return out
}

// EarliestPayment returns the payment that sorts first under ComparePaymentTimes.
// Ties keep the payment seen first. ok is false when the group has no payments.
func (g *Group) EarliestPayment() (earliest Payment, ok bool) {
	for i, p := range g.payments {
		if i == 0 || ComparePaymentTimes(p, earliest) < 0 {
			earliest = p
			ok = true
		}
	}
	return earliest, ok
}

// =============================================================================
// ROSTER ROW
// =============================================================================

// RosterHeader is the header row of the roster output, in column order.
var RosterHeader = []string{
	"Last name",
	"First name",
	"Email",
	"Group number",
	"Group members",
	"Paid amount",
	"Group amount",
	"Payees",
	"Verification status",
	"Phone",
	"Address",
}

// RosterRow is one output row: one attendee of one group.
type RosterRow struct {
	LastName           string
	FirstName          string
	Email              string
	GroupNumber        int
	GroupMembers       string
	PaidAmount         string
	GroupAmount        string
	Payees             string
	VerificationStatus string
	Phone              string
	Address            string
}

// Record returns the row as strings in RosterHeader order.
func (r RosterRow) Record() []string {
	return []string{
		r.LastName,
		r.FirstName,
		r.Email,
		strconv.Itoa(r.GroupNumber),
		r.GroupMembers,
		r.PaidAmount,
		r.GroupAmount,
		r.Payees,
		r.VerificationStatus,
		r.Phone,
		r.Address,
	}
}
