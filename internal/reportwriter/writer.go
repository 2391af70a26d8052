// =============================================================================
// Registration Reconciler - Report Writer Module
// =============================================================================
//
// This module writes tables produced by a run: the attendee roster and the
// filtered payment ledger.
//
// FORMATS:
//   The output format follows the file extension.
//   - .xlsx : one sheet with a bold, frozen header row
//   - other : delimited text with a header row
//
// ALL-OR-NOTHING:
//   Every table is rendered to a temporary file next to the destination and
//   renamed into place only when complete. A failed run never leaves a
//   truncated output or replaces the previous one.
//
// =============================================================================

package reportwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/registration-reconciler/internal/config"
	"github.com/ginjaninja78/registration-reconciler/internal/csvparser"
	"github.com/ginjaninja78/registration-reconciler/internal/types"
	"github.com/ginjaninja78/registration-reconciler/internal/xlsxparser"
	"github.com/ginjaninja78/registration-reconciler/pkg/utils"
)

// Sheet names used for workbook output.
const (
	RosterSheet   = "Roster"
	PaymentsSheet = "Payments"
)

// =============================================================================
// TABLE
// =============================================================================

// Table is a header row plus data records.
type Table struct {
	// Sheet names the worksheet when the table is written as XLSX.
	Sheet string

	Header  []string
	Records [][]string
}

// RosterTable converts roster rows into a table.
func RosterTable(rows []types.RosterRow) Table {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return Table{Sheet: RosterSheet, Header: types.RosterHeader, Records: records}
}

// =============================================================================
// WRITING
// =============================================================================

// Write writes a table to path, choosing the format from the extension.
//
// PARAMETERS:
//   - path: The destination file.
//   - table: The header and records to write.
//   - settings: The delimiter used for text output.
//
// RETURNS:
//   - An error if the table cannot be written. The destination is unchanged
//     on error.
func Write(path string, table Table, settings config.CSVSettings) error {
	render := func(w io.Writer) error { return writeCSV(w, table, settings) }
	if xlsxparser.IsWorkbook(path) {
		render = func(w io.Writer) error { return writeXLSX(w, table) }
	}

	if err := utils.AtomicWriteFile(path, render); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteRoster writes the attendee roster to path.
func WriteRoster(path string, rows []types.RosterRow, settings config.CSVSettings) error {
	return Write(path, RosterTable(rows), settings)
}

// writeCSV renders a table as delimited text.
func writeCSV(w io.Writer, table Table, settings config.CSVSettings) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = csvparser.Delimiter(settings.Delimiter)

	if err := csvWriter.Write(table.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := csvWriter.WriteAll(table.Records); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// writeXLSX renders a table as a single-sheet workbook.
func writeXLSX(w io.Writer, table Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := table.Sheet
	if sheet == "" {
		sheet = RosterSheet
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, table.Header); err != nil {
		return err
	}
	for i, record := range table.Records {
		if err := setRow(f, sheet, i+2, record); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if len(table.Header) > 0 {
		lastCell, err := excelize.CoordinatesToCellName(len(table.Header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", lastCell, bold); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	err = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	return nil
}

// setRow writes values as text cells starting at column A of the given row.
func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}

	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
