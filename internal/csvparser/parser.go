// =============================================================================
// Registration Reconciler - CSV Parser Module
// =============================================================================
//
// This module reads the two delimited-text ledgers into memory:
//   - the payment ledger, which has a header row naming its columns
//   - the survey ledger, which is positional and starts with rows to skip
//
// FEATURES:
//   - Configurable delimiter (comma, pipe, tab, semicolon)
//   - UTF-8 byte-order mark stripped from the first cell
//   - Blank rows skipped
//   - Source line numbers kept for every row, for error reporting
//
// The XLSX reader hands its sheet rows to FromRecords so both formats produce
// the same CSVData.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/registration-reconciler/internal/config"
)

// utf8BOM is the byte-order mark some spreadsheet exports prepend.
const utf8BOM = "\ufeff"

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed ledger file.
type CSVData struct {
	// Headers contains the column headers. Nil for positional files.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	// Nil for positional files.
	Rows []map[string]string

	// RawRows contains the data rows as string slices.
	RawRows [][]string

	// RowNumbers holds the 1-indexed source row of each data row.
	RowNumbers []int

	// SourceFile is the path to the source file.
	SourceFile string

	// RowCount is the number of data rows (excluding headers and skipped rows).
	RowCount int

	// ColumnCount is the number of header columns, or the widest row for
	// positional files.
	ColumnCount int
}

// Layout describes where the data starts in a file.
type Layout struct {
	// SkipRows is the number of leading rows to discard.
	SkipRows int

	// Header is true when the first row after the skipped rows names the columns.
	Header bool
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited text file.
//
// PARAMETERS:
//   - filePath: The path to the file.
//   - settings: The CSV settings from the configuration.
//   - layout: Skipped rows and header handling.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings, layout Layout) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(bufio.NewReader(file), filePath, settings, layout)
}

// ParseReader reads delimited text from r. source names the input in the
// returned data and in error messages.
func ParseReader(r io.Reader, source string, settings config.CSVSettings, layout Layout) (*CSVData, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	var records [][]string
	var lines []int

	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := csvReader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}

	return FromRecords(source, records, lines, layout)
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Survey exports have ragged rows when trailing companion slots are empty.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// Delimiter maps a configured delimiter name to its rune.
func Delimiter(name string) rune {
	switch name {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if len(name) > 0 {
			return rune(name[0])
		}
		return ','
	}
}

// FromRecords turns raw records into CSVData.
//
// PARAMETERS:
//   - source: The name of the input, for the returned data.
//   - records: All rows of the input, in order.
//   - lines: The 1-indexed source row of each record. When nil, the record
//     index plus one is used.
//   - layout: Skipped rows and header handling.
//
// RETURNS:
//   - The parsed data.
//   - An error if a header is expected but the input has no rows for it.
func FromRecords(source string, records [][]string, lines []int, layout Layout) (*CSVData, error) {
	if lines == nil {
		lines = make([]int, len(records))
		for i := range records {
			lines[i] = i + 1
		}
	}

	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}

	start := layout.SkipRows
	if start > len(records) {
		start = len(records)
	}

	data := &CSVData{SourceFile: source}

	if layout.Header {
		if start >= len(records) {
			return nil, fmt.Errorf("%s: file is empty", source)
		}
		data.Headers = cleanHeaders(records[start])
		data.ColumnCount = len(data.Headers)
		data.Rows = []map[string]string{}
		start++
	}

	for i := start; i < len(records); i++ {
		row := records[i]
		if isRowEmpty(row) {
			continue
		}

		values := make([]string, len(row))
		for j, cell := range row {
			values[j] = strings.TrimSpace(cell)
		}

		data.RawRows = append(data.RawRows, values)
		data.RowNumbers = append(data.RowNumbers, lines[i])

		if layout.Header {
			data.Rows = append(data.Rows, rowMap(data.Headers, values))
		} else if len(values) > data.ColumnCount {
			data.ColumnCount = len(values)
		}
	}

	data.RowCount = len(data.RawRows)
	return data, nil
}

// cleanHeaders trims header values and names blank headers by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// rowMap converts a row to a map. Columns missing from a short row are absent
// from the map, so required-field checks can tell "missing" from "blank".
func rowMap(headers, row []string) map[string]string {
	m := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(row) {
			m[header] = row[i]
		}
	}
	return m
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
