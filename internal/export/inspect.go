package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetSummary describes a workbook returned by the spreadsheet endpoint.
type SheetSummary struct {
	Sheets []string
	Sheet  string
	Header []string
	Rows   int
}

// InspectSpreadsheet opens an XLSX payload and summarizes its first
// sheet: the header row and the number of data rows below it.
func InspectSpreadsheet(data []byte) (*SheetSummary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	summary := &SheetSummary{Sheets: sheets, Sheet: sheets[0]}
	rows, err := f.GetRows(summary.Sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", summary.Sheet, err)
	}
	if len(rows) > 0 {
		summary.Header = rows[0]
		summary.Rows = len(rows) - 1
	}
	return summary, nil
}
