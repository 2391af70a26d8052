package grouping

import (
	"github.com/ginjaninja78/registration-reconciler/internal/types"
)

// =============================================================================
// NAME SETS AND CONTAINMENT
// =============================================================================

// NameSet is a set of normalized attendee names.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// SubsetOf reports whether every name in s is also in other.
func (s NameSet) SubsetOf(other NameSet) bool {
	if len(s) > len(other) {
		return false
	}
	for name := range s {
		if _, ok := other[name]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether one set contains the other: a is a subset of b or
// b is a subset of a. Equal sets contain each other. Partial overlap is not
// containment.
func Contains(a, b NameSet) bool {
	return a.SubsetOf(b) || b.SubsetOf(a)
}

// FindContainingGroup returns the first registered group whose attendee set
// contains, or is contained by, the candidate set.
//
// PARAMETERS:
//   - candidate: The candidate attendee names, in candidate order.
//   - byName: The group currently registered under each attendee name.
//
// RETURNS:
//   - The match, or nil. Names are tried in candidate order and the first
//     name whose group passes Contains wins.
func FindContainingGroup(candidate []string, byName map[string]*types.Group) *types.Group {
	candidateSet := NewNameSet(candidate...)

	for _, name := range candidate {
		group, ok := byName[name]
		if !ok {
			continue
		}
		if Contains(candidateSet, NewNameSet(group.Names()...)) {
			return group
		}
	}

	return nil
}

// =============================================================================
// ATTENDEE MERGING
// =============================================================================

// MergeAttendees reconciles two records of the same person.
//
// Each field takes first's value when it is non-blank after trimming
// (non-zero for Amount) and other's value otherwise. When one side is nil the
// other is returned unchanged; when both are nil the result is nil. The
// inputs are never modified.
func MergeAttendees(first, other *types.Attendee) *types.Attendee {
	if first == nil {
		return other
	}
	if other == nil {
		return first
	}

	merged := types.Attendee{
		Name:    pick(first.Name, other.Name),
		Email:   pick(first.Email, other.Email),
		Phone:   pick(first.Phone, other.Phone),
		Address: pick(first.Address, other.Address),
		Amount:  first.Amount,
	}
	if merged.Amount.IsZero() {
		merged.Amount = other.Amount
	}

	return &merged
}

// pick returns a unless it is blank, in which case it returns b.
func pick(a, b string) string {
	if isBlank(a) {
		return b
	}
	return a
}
