package grouping

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/registration-reconciler/internal/config"
	"github.com/ginjaninja78/registration-reconciler/internal/ledger"
	"github.com/ginjaninja78/registration-reconciler/internal/names"
	"github.com/ginjaninja78/registration-reconciler/internal/types"
	"github.com/ginjaninja78/registration-reconciler/internal/validation"
)

func TestBuilderSupersetMerges(t *testing.T) {
	b := build(t, nil,
		submission{date: "2019-03-01 10:00:00", registrant: "Amy Adams", products: "Total: 100.00", companions: []string{"Ben Bell"}},
		submission{date: "2019-03-02 10:00:00", registrant: "Cat Cole", products: "Total: 50.00", companions: []string{"Amy Adams", "Ben Bell"}},
	)

	groups := b.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Ben Bell", "Amy Adams", "Cat Cole"}, groups[0].Names())

	var payers []string
	for _, p := range groups[0].Payments() {
		payers = append(payers, p.PayerName)
	}
	assert.Equal(t, []string{"Amy Adams", "Cat Cole"}, payers)
}

func TestBuilderSubsetMerges(t *testing.T) {
	b := build(t, nil,
		submission{date: "2019-03-01 10:00:00", registrant: "Amy Adams", products: "Total: 150.00", companions: []string{"Ben Bell", "Cat Cole"}},
		submission{date: "2019-03-02 10:00:00", registrant: "Ben Bell", phone: "555-0101", products: "Total: 50.00", companions: []string{"Amy Adams"}},
	)

	groups := b.Groups()
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"Amy Adams", "Ben Bell", "Cat Cole"}, groups[0].Names())

	ben, ok := groups[0].Attendee("Ben Bell")
	require.True(t, ok)
	assert.Equal(t, "555-0101", ben.Phone, "blank existing phone is filled from the later submission")
	assert.Equal(t, "ben@example.com", ben.Email, "existing email is kept")
	assert.True(t, ben.Amount.Equal(dec("50")))
}

func TestBuilderDisjointGroupsStaySeparate(t *testing.T) {
	b := build(t, nil,
		submission{date: "2019-03-01 10:00:00", registrant: "Amy Adams", products: "Total: 100.00", companions: []string{"Ben Bell"}},
		submission{date: "2019-03-02 10:00:00", registrant: "Cat Cole", products: "Total: 100.00", companions: []string{"Dan Dee"}},
	)

	groups := b.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"Ben Bell", "Amy Adams"}, groups[0].Names())
	assert.Equal(t, []string{"Dan Dee", "Cat Cole"}, groups[1].Names())
}

func TestBuilderPartialOverlapCreatesNewGroup(t *testing.T) {
	b := build(t, nil,
		submission{date: "2019-03-01 10:00:00", registrant: "Amy Adams", products: "Total: 100.00", companions: []string{"Ben Bell"}},
		submission{date: "2019-03-02 10:00:00", registrant: "Cat Cole", products: "Total: 100.00", companions: []string{"Ben Bell"}},
	)

	groups := b.Groups()
	require.Len(t, groups, 2, "the first group stays reachable through Amy Adams")
	assert.Equal(t, []string{"Ben Bell", "Amy Adams"}, groups[0].Names())
	assert.Equal(t, []string{"Ben Bell", "Cat Cole"}, groups[1].Names())
}

func TestBuilderLatestSubmissionWinsAfterDedup(t *testing.T) {
	b := build(t, nil,
		submission{date: "2019-03-01 10:00:00", registrant: "Jane Doe", phone: "555-0001", products: "Total: 50.00"},
		submission{date: "2019-03-09 10:00:00", registrant: "Jane Doe", phone: "555-0009", products: "Total: 100.00", companions: []string{"John Smith"}},
	)

	groups := b.Groups()
	require.Len(t, groups, 1)

	jane, ok := groups[0].Attendee("Jane Doe")
	require.True(t, ok)
	assert.Equal(t, "555-0009", jane.Phone)
	assert.True(t, jane.Amount.Equal(dec("100")))
	assert.Len(t, groups[0].Payments(), 1)
}

func TestBuilderVerification(t *testing.T) {
	payments := paymentRows(t, "Jane Doe", "100.00", "John Smith", "150.00")

	b := build(t, payments,
		submission{date: "2019-03-01 10:00:00", registrant: "Jane Doe", products: "Total: 100.00"},
		submission{date: "2019-03-02 10:00:00", registrant: "John Smith", products: "Total: 100.00"},
		submission{date: "2019-03-03 10:00:00", registrant: "Kim Lee", products: "Total: 100.00"},
	)

	groups := b.Groups()
	require.Len(t, groups, 3)

	verified := map[string]bool{}
	for _, g := range groups {
		for _, p := range g.Payments() {
			verified[p.PayerName] = p.Verified
			require.NotNil(t, p.Time)
		}
	}
	assert.True(t, verified["Jane Doe"], "indexed with the same amount")
	assert.False(t, verified["John Smith"], "indexed with a different amount")
	assert.False(t, verified["Kim Lee"], "not indexed")
}

func TestBuilderRegistrantListedAsCompanion(t *testing.T) {
	b := build(t, nil,
		submission{date: "2019-03-01 10:00:00", registrant: "Jane Doe", phone: "555-0001", products: "Total: 100.00",
			companions: []string{"Jane Doe", "John Smith"}},
	)

	groups := b.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Jane Doe", "John Smith"}, groups[0].Names())

	jane, _ := groups[0].Attendee("Jane Doe")
	assert.Equal(t, "555-0001", jane.Phone, "registrant record replaces the companion record")
}

func TestBuilderAmountErrors(t *testing.T) {
	n := names.New(nil)
	index, err := BuildPaymentIndex(nil, IndexOptions{Fee: dec("50"), Normalizer: n})
	require.NoError(t, err)

	newSub := func(products string) Submission {
		row := submission{date: "2019-03-01", registrant: "Jane Doe", products: products}.row(7)
		return Submission{Registrant: "Jane Doe", Row: row}
	}

	t.Run("pattern absent", func(t *testing.T) {
		b := NewBuilder(index, n, BuilderOptions{AmountPattern: config.Default().CompiledAmountPattern()})
		err := b.Add(newSub("Ticket x2"))
		require.Error(t, err)
		assert.ErrorIs(t, err, validation.ErrMissingPatternMatch)

		var ve *validation.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, 7, ve.RowNumber)
		assert.Equal(t, ledger.FieldProducts, ve.Field)
		assert.Empty(t, b.Groups())
	})

	t.Run("captured amount malformed", func(t *testing.T) {
		b := NewBuilder(index, n, BuilderOptions{AmountPattern: regexp.MustCompile(`Total: (\S+)`)})
		err := b.Add(newSub("Total: lots"))
		assert.ErrorIs(t, err, validation.ErrMalformedAmount)
	})

	t.Run("thousands separators", func(t *testing.T) {
		b := NewBuilder(index, n, BuilderOptions{AmountPattern: config.Default().CompiledAmountPattern()})
		require.NoError(t, b.Add(newSub("Tickets Total: $1,250.00")))

		groups := b.Groups()
		require.Len(t, groups, 1)
		p, ok := groups[0].EarliestPayment()
		require.True(t, ok)
		assert.True(t, p.Amount.Equal(dec("1250")))
	})
}

func TestBuilderGroupsAreDistinct(t *testing.T) {
	b := build(t, nil,
		submission{date: "2019-03-01 10:00:00", registrant: "Amy Adams", products: "Total: 100.00", companions: []string{"Ben Bell", "Cat Cole"}},
	)

	groups := b.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Len())

	seen := map[*types.Group]int{}
	for _, g := range groups {
		seen[g]++
	}
	assert.Len(t, seen, 1)
}
