// =============================================================================
// Registration Reconciler - Ledger Decoding
// =============================================================================
//
// This module turns parsed tables into typed ledger rows.
//
// PAYMENT LEDGER:
//   Header row names the columns. Name and Gross are required; Date, Time,
//   Type and From Email Address are read when present. Gross may carry
//   thousands separators, which are stripped before parsing.
//
// SURVEY LEDGER:
//   No header is consumed as data. Columns are positional, in SurveyFormat
//   order. submission_date, the registrant's first and last name and the
//   products field are required; every other field defaults to "".
//
// Timestamps and the products amount stay as text here. The deduplicator and
// the group builder parse them and report their own errors.
//
// =============================================================================

package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/registration-reconciler/internal/config"
	"github.com/ginjaninja78/registration-reconciler/internal/csvparser"
	"github.com/ginjaninja78/registration-reconciler/internal/validation"
	"github.com/ginjaninja78/registration-reconciler/internal/xlsxparser"
)

// =============================================================================
// COLUMN NAMES
// =============================================================================

// Payment ledger columns.
const (
	ColumnDate  = "Date"
	ColumnTime  = "Time"
	ColumnName  = "Name"
	ColumnType  = "Type"
	ColumnGross = "Gross"
	ColumnEmail = "From Email Address"
)

// Survey ledger fields.
const (
	FieldSubmissionDate    = "submission_date"
	FieldSurveyeeFirstName = "surveyee_first_name"
	FieldSurveyeeLastName  = "surveyee_last_name"
	FieldProducts          = "products"
)

// CompanionSlots is the number of companion slots on a survey submission.
const CompanionSlots = 5

// SurveyFormat lists the survey ledger fields in column order.
var SurveyFormat = []string{
	"submission_date", "surveyee_first_name", "surveyee_last_name", "surveyee_email", "surveyee_phone",
	"surveyee_address1", "surveyee_address2", "surveyee_city", "surveyee_state", "surveyee_zip", "surveyee_country",
	"products", "payer_info", "payer_address",
	"player1_first_name", "player1_last_name", "player1_email",
	"player2_first_name", "player2_last_name", "player2_email",
	"player3_first_name", "player3_last_name", "player3_email",
	"player4_first_name", "player4_last_name", "player4_email",
	"player5_first_name", "player5_last_name", "player5_email",
}

// =============================================================================
// ROW TYPES
// =============================================================================

// PaymentRow is one payment ledger transaction.
type PaymentRow struct {
	// Source and RowNumber locate the row for error messages.
	Source    string
	RowNumber int

	Date  string
	Time  string
	Name  string
	Type  string
	Email string

	// Gross is the transaction amount with thousands separators removed.
	Gross decimal.Decimal

	// Fields holds every column of the row, keyed by header.
	Fields map[string]string
}

// PaymentLedger is a decoded payment ledger file.
type PaymentLedger struct {
	Source  string
	Headers []string
	Rows    []PaymentRow
}

// Companion is one filled or empty companion slot of a submission.
type Companion struct {
	FirstName string
	LastName  string
	Email     string
}

// SurveyRow is one survey submission.
type SurveyRow struct {
	// Source and RowNumber locate the row for error messages.
	Source    string
	RowNumber int

	// SubmissionDate is the unparsed submission timestamp.
	SubmissionDate string

	FirstName string
	LastName  string
	Email     string
	Phone     string

	// AddressParts are address1, address2, city, state, zip and country.
	AddressParts []string

	// Products is the free-text order summary holding "Total: <amount>".
	Products string

	// Companions holds all CompanionSlots slots in order, empty or not.
	Companions []Companion
}

// Address joins the non-empty address parts with ", ".
func (r SurveyRow) Address() string {
	parts := make([]string, 0, len(r.AddressParts))
	for _, p := range r.AddressParts {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// READING
// =============================================================================

// ReadTable reads a .csv or .xlsx file into a table.
func ReadTable(path string, settings config.CSVSettings, layout csvparser.Layout) (*csvparser.CSVData, error) {
	if xlsxparser.IsWorkbook(path) {
		return xlsxparser.Parse(path, layout)
	}
	return csvparser.Parse(path, settings, layout)
}

// ReadPayments reads and decodes a payment ledger file.
func ReadPayments(path string, settings config.CSVSettings) (*PaymentLedger, error) {
	data, err := ReadTable(path, settings, csvparser.Layout{Header: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read payment ledger: %w", err)
	}
	return DecodePayments(data)
}

// ReadSurvey reads and decodes a survey ledger file, discarding skipRows
// leading rows.
func ReadSurvey(path string, settings config.CSVSettings, skipRows int) ([]SurveyRow, error) {
	data, err := ReadTable(path, settings, csvparser.Layout{SkipRows: skipRows})
	if err != nil {
		return nil, fmt.Errorf("failed to read survey ledger: %w", err)
	}
	return DecodeSurvey(data)
}

// =============================================================================
// DECODING
// =============================================================================

// DecodePayments decodes a header-mode table into payment rows.
//
// PARAMETERS:
//   - data: The parsed table. It must have Name and Gross columns.
//
// RETURNS:
//   - The decoded ledger, rows in file order.
//   - A MissingField error for a missing column or blank Gross, or a
//     MalformedAmount error for an unparseable Gross, located at its row.
func DecodePayments(data *csvparser.CSVData) (*PaymentLedger, error) {
	if err := validation.RequireColumns(data.Headers, ColumnName, ColumnGross); err != nil {
		return nil, validation.AtRow(err, data.SourceFile, 1)
	}

	decoded := &PaymentLedger{
		Source:  data.SourceFile,
		Headers: data.Headers,
		Rows:    make([]PaymentRow, 0, len(data.Rows)),
	}

	for i, fields := range data.Rows {
		rowNumber := data.RowNumbers[i]

		if err := validation.RequireFields(fields, ColumnGross); err != nil {
			return nil, validation.AtRow(err, data.SourceFile, rowNumber)
		}

		gross, err := ParseAmount(ColumnGross, fields[ColumnGross])
		if err != nil {
			return nil, validation.AtRow(err, data.SourceFile, rowNumber)
		}

		decoded.Rows = append(decoded.Rows, PaymentRow{
			Source:    data.SourceFile,
			RowNumber: rowNumber,
			Date:      fields[ColumnDate],
			Time:      fields[ColumnTime],
			Name:      fields[ColumnName],
			Type:      fields[ColumnType],
			Email:     fields[ColumnEmail],
			Gross:     gross,
			Fields:    fields,
		})
	}

	return decoded, nil
}

// DecodeSurvey decodes a positional table into survey rows.
//
// PARAMETERS:
//   - data: The parsed table, without headers.
//
// RETURNS:
//   - The decoded rows in file order.
//   - A MissingField error, located at its row, when a required field is
//     absent or blank.
func DecodeSurvey(data *csvparser.CSVData) ([]SurveyRow, error) {
	rows := make([]SurveyRow, 0, len(data.RawRows))

	for i, raw := range data.RawRows {
		rowNumber := data.RowNumbers[i]
		fields := SurveyFields(raw)

		err := validation.RequireFields(fields,
			FieldSubmissionDate, FieldSurveyeeFirstName, FieldSurveyeeLastName, FieldProducts)
		if err != nil {
			return nil, validation.AtRow(err, data.SourceFile, rowNumber)
		}

		row := SurveyRow{
			Source:         data.SourceFile,
			RowNumber:      rowNumber,
			SubmissionDate: fields[FieldSubmissionDate],
			FirstName:      fields[FieldSurveyeeFirstName],
			LastName:       fields[FieldSurveyeeLastName],
			Email:          fields["surveyee_email"],
			Phone:          fields["surveyee_phone"],
			AddressParts: []string{
				fields["surveyee_address1"],
				fields["surveyee_address2"],
				fields["surveyee_city"],
				fields["surveyee_state"],
				fields["surveyee_zip"],
				fields["surveyee_country"],
			},
			Products:   fields[FieldProducts],
			Companions: make([]Companion, CompanionSlots),
		}

		for slot := range row.Companions {
			prefix := fmt.Sprintf("player%d_", slot+1)
			row.Companions[slot] = Companion{
				FirstName: fields[prefix+"first_name"],
				LastName:  fields[prefix+"last_name"],
				Email:     fields[prefix+"email"],
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// SurveyFields names a positional survey record by SurveyFormat. Fields past
// the end of a short record are absent from the map; extra trailing values
// are ignored.
func SurveyFields(record []string) map[string]string {
	fields := make(map[string]string, len(SurveyFormat))
	for i, name := range SurveyFormat {
		if i < len(record) {
			fields[name] = record[i]
		}
	}
	return fields
}

// ParseAmount parses a currency amount, removing thousands separators and a
// leading currency symbol.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, validation.NewMalformedAmount(field, value, err)
	}
	return amount, nil
}
