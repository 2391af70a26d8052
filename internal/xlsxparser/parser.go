// =============================================================================
// Registration Reconciler - XLSX Ledger Reader
// =============================================================================
//
// This module reads a ledger exported as an Excel workbook. Payment and survey
// exports are often saved from a spreadsheet, so either ledger may be given as
// .xlsx instead of .csv.
//
// SHEET SELECTION:
//   The first sheet is read unless a sheet name is given. Sheets whose name
//   starts with "_" are never picked automatically.
//
// The sheet's rows are passed to csvparser.FromRecords, so row numbers, blank
// row handling and header cleaning match the CSV reader exactly.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/registration-reconciler/internal/csvparser"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// IsWorkbook reports whether path names an Excel workbook.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}

// Parse reads the first visible sheet of an XLSX workbook.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - layout: Skipped rows and header handling, as for CSV input.
//
// RETURNS:
//   - The sheet contents in the same shape the CSV reader produces.
//   - An error if the workbook cannot be opened or has no usable sheet.
func Parse(path string, layout csvparser.Layout) (*csvparser.CSVData, error) {
	return ParseSheet(path, "", layout)
}

// ParseSheet reads the named sheet of an XLSX workbook. An empty sheet name
// selects the first sheet whose name does not start with "_".
func ParseSheet(path, sheet string, layout csvparser.Layout) (*csvparser.CSVData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = firstSheet(f.GetSheetList())
		if sheet == "" {
			return nil, fmt.Errorf("%s: workbook has no sheets", path)
		}
	}

	// GetRows drops trailing empty cells, which matches a ragged CSV row.
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet '%s': %w", sheet, err)
	}

	return csvparser.FromRecords(path, rows, nil, layout)
}

// firstSheet returns the first sheet name not starting with "_".
func firstSheet(sheets []string) string {
	for _, name := range sheets {
		if !strings.HasPrefix(name, "_") {
			return name
		}
	}
	return ""
}
