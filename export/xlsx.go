// Package export writes extracted question sets to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/prasadg/examsift/store"
)

const sheetName = "Questions"

var headers = []string{"Q.No", "Type", "Question", "List I", "List II", "Options", "Answer", "Diagram"}

// WriteXLSX writes the question set as a single-sheet workbook. Rows keep
// the input order; options are flattened to "A) ... B) ..." lines.
func WriteXLSX(w io.Writer, questions []store.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, q := range questions {
		row := i + 2
		values := []any{
			q.Qno,
			q.Type,
			q.Question,
			strings.Join(q.List1, "\n"),
			strings.Join(q.List2, "\n"),
			formatOptions(q.Options),
			q.Answer,
			q.Diagram,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "C", "C", 60); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "F", "F", 40); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// formatOptions renders the option map as one line per letter, letters in
// order.
func formatOptions(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s) %s", k, options[k]))
	}
	return strings.Join(lines, "\n")
}
