package grouping

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/registration-reconciler/internal/config"
	"github.com/ginjaninja78/registration-reconciler/internal/ledger"
	"github.com/ginjaninja78/registration-reconciler/internal/logging"
	"github.com/ginjaninja78/registration-reconciler/internal/names"
)

// submission describes a survey row for tests. Companions are "First Last".
type submission struct {
	date       string
	registrant string
	email      string
	phone      string
	address    string
	products   string
	companions []string
}

func (s submission) row(rowNumber int) ledger.SurveyRow {
	first, last, _ := strings.Cut(s.registrant, " ")
	row := ledger.SurveyRow{
		Source:         "survey.csv",
		RowNumber:      rowNumber,
		SubmissionDate: s.date,
		FirstName:      first,
		LastName:       last,
		Email:          s.email,
		Phone:          s.phone,
		AddressParts:   []string{s.address, "", "", "", "", ""},
		Products:       s.products,
		Companions:     make([]ledger.Companion, ledger.CompanionSlots),
	}
	for i, c := range s.companions {
		cf, cl, _ := strings.Cut(c, " ")
		row.Companions[i] = ledger.Companion{FirstName: cf, LastName: cl, Email: strings.ToLower(cf) + "@example.com"}
	}
	return row
}

func surveyRows(subs ...submission) []ledger.SurveyRow {
	rows := make([]ledger.SurveyRow, len(subs))
	for i, s := range subs {
		rows[i] = s.row(i + 2)
	}
	return rows
}

func paymentRows(t *testing.T, pairs ...string) []ledger.PaymentRow {
	t.Helper()
	require.Equal(t, 0, len(pairs)%2, "pairs must be name, gross")

	rows := make([]ledger.PaymentRow, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		gross, err := ledger.ParseAmount("Gross", pairs[i+1])
		require.NoError(t, err)
		rows = append(rows, ledger.PaymentRow{
			Source:    "paypal.csv",
			RowNumber: i/2 + 2,
			Name:      pairs[i],
			Type:      "Payment",
			Gross:     gross,
		})
	}
	return rows
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// build runs index, dedupe and builder over the inputs.
func build(t *testing.T, payments []ledger.PaymentRow, subs ...submission) *Builder {
	t.Helper()

	n := names.New(nil)
	index, err := BuildPaymentIndex(payments, IndexOptions{Fee: dec("50"), Normalizer: n})
	require.NoError(t, err)

	deduped, err := Deduplicate(surveyRows(subs...), n)
	require.NoError(t, err)

	b := NewBuilder(index, n, BuilderOptions{
		AmountPattern: config.Default().CompiledAmountPattern(),
		Logger:        logging.Nop(),
	})
	for _, sub := range deduped {
		require.NoError(t, b.Add(sub))
	}
	return b
}
