package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/prasadg/examsift/store"
)

func TestWriteXLSX(t *testing.T) {
	questions := []store.Question{
		{
			Qno:      1,
			Type:     "mcq",
			Question: "What is 2+2?",
			Options:  map[string]string{"B": "4", "A": "3"},
			Answer:   "B",
		},
		{
			Qno:      2,
			Type:     "match",
			Question: "Match the lists.",
			List1:    []string{"x", "y"},
			List2:    []string{"p", "q"},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, questions); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reading workbook back: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Q.No" {
		t.Errorf("header = %q, want Q.No", rows[0][0])
	}
	if rows[1][2] != "What is 2+2?" {
		t.Errorf("question cell = %q", rows[1][2])
	}
	// Option letters come out sorted regardless of map order.
	if rows[1][5] != "A) 3\nB) 4" {
		t.Errorf("options cell = %q", rows[1][5])
	}
	if rows[2][3] != "x\ny" {
		t.Errorf("list1 cell = %q", rows[2][3])
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err != nil {
		t.Fatalf("WriteXLSX with no questions: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected a workbook with just the header row")
	}
}

func TestFormatOptions(t *testing.T) {
	if got := formatOptions(nil); got != "" {
		t.Errorf("formatOptions(nil) = %q, want empty", got)
	}
	got := formatOptions(map[string]string{"D": "4", "A": "1"})
	if got != "A) 1\nD) 4" {
		t.Errorf("formatOptions = %q", got)
	}
}
