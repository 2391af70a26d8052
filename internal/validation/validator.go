// =============================================================================
// Registration Reconciler - Validation Errors
// =============================================================================
//
// This package defines the error taxonomy of a reconciliation run and the
// required-field checks applied to ledger rows.
//
// ERROR KINDS:
//   - MalformedAmount    : a Gross or products amount is not a decimal
//   - MalformedTimestamp : a submission_date cannot be parsed
//   - MissingPatternMatch: "Total: <amount>" is absent from a products field
//   - MissingField       : a required field is missing or empty
//
// ERROR HANDLING:
//   Every kind is fatal. The first error aborts the batch before any output
//   is written. Each error carries its context (file, row, field, value) so
//   the upstream data can be fixed before re-running.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrMalformedAmount indicates an amount that does not parse as a decimal.
	ErrMalformedAmount = errors.New("malformed amount")

	// ErrMalformedTimestamp indicates a submission timestamp that does not parse.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrMissingPatternMatch indicates the products field has no "Total: <amount>".
	ErrMissingPatternMatch = errors.New("missing amount pattern match")

	// ErrMissingField indicates a required field is absent or empty.
	ErrMissingField = errors.New("missing required field")
)

// Kind classifies a ValidationError.
type Kind int

const (
	KindMalformedAmount Kind = iota + 1
	KindMalformedTimestamp
	KindMissingPatternMatch
	KindMissingField
)

// String returns the label used in error messages.
func (k Kind) String() string {
	switch k {
	case KindMalformedAmount:
		return "malformed_amount"
	case KindMalformedTimestamp:
		return "malformed_timestamp"
	case KindMissingPatternMatch:
		return "missing_pattern_match"
	case KindMissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// sentinel returns the sentinel error matching the kind.
func (k Kind) sentinel() error {
	switch k {
	case KindMalformedAmount:
		return ErrMalformedAmount
	case KindMalformedTimestamp:
		return ErrMalformedTimestamp
	case KindMissingPatternMatch:
		return ErrMissingPatternMatch
	case KindMissingField:
		return ErrMissingField
	default:
		return nil
	}
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError is a fatal problem found in one ledger row.
type ValidationError struct {
	// Kind is the error classification.
	Kind Kind

	// File is the source file the row came from.
	File string

	// RowNumber is the 1-indexed row number in the source file.
	RowNumber int

	// Field is the name of the offending field.
	Field string

	// Value is the offending value.
	Value string

	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s]", strings.ToUpper(e.Kind.String()))
	if e.File != "" {
		fmt.Fprintf(&b, " %s", e.File)
	}
	if e.RowNumber > 0 {
		fmt.Fprintf(&b, " row %d", e.RowNumber)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ", field '%s'", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Kind.sentinel())
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	fmt.Fprintf(&b, " (value: '%s')", e.Value)

	return b.String()
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ValidationError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Unwrap returns the underlying parse error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewMalformedAmount reports an amount that failed to parse.
func NewMalformedAmount(field, value string, err error) *ValidationError {
	return &ValidationError{Kind: KindMalformedAmount, Field: field, Value: value, Err: err}
}

// NewMalformedTimestamp reports a timestamp that failed to parse.
func NewMalformedTimestamp(field, value string, err error) *ValidationError {
	return &ValidationError{Kind: KindMalformedTimestamp, Field: field, Value: value, Err: err}
}

// NewMissingPatternMatch reports a products field without the amount pattern.
func NewMissingPatternMatch(field, value string) *ValidationError {
	return &ValidationError{Kind: KindMissingPatternMatch, Field: field, Value: value}
}

// NewMissingField reports a required field that is absent or empty.
func NewMissingField(field string) *ValidationError {
	return &ValidationError{Kind: KindMissingField, Field: field}
}

// AtRow attaches the source location to an error. Non-validation errors are
// wrapped with the location instead.
func AtRow(err error, file string, rowNumber int) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		located := *ve
		located.File = file
		located.RowNumber = rowNumber
		return &located
	}
	return fmt.Errorf("%s row %d: %w", file, rowNumber, err)
}

// =============================================================================
// REQUIRED FIELD CHECKS
// =============================================================================

// RequireFields checks that every named field is present and non-blank.
//
// PARAMETERS:
//   - fields: The row as a map of field name -> value.
//   - required: The names of the required fields.
//
// RETURNS:
//   - A MissingField ValidationError for the first missing field, or nil.
func RequireFields(fields map[string]string, required ...string) error {
	for _, name := range required {
		value, ok := fields[name]
		if !ok || strings.TrimSpace(value) == "" {
			return NewMissingField(name)
		}
	}
	return nil
}

// RequireColumns checks that a header row contains every named column.
// It reports the first missing column as a MissingField error.
func RequireColumns(headers []string, required ...string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, name := range required {
		if !present[name] {
			return NewMissingField(name)
		}
	}
	return nil
}
