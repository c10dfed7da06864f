package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prasadg/examsift/merge"
	"github.com/prasadg/examsift/parser"
)

func record(qno int, typ parser.QuestionType, text, answer string) merge.QuestionRecord {
	return merge.QuestionRecord{
		Qno:          qno,
		Type:         typ,
		QuestionText: text,
		List1:        []string{},
		List2:        []string{},
		Options:      map[string]string{},
		Answer:       answer,
	}
}

func TestGradeCasePerfect(t *testing.T) {
	records := []merge.QuestionRecord{
		record(1, parser.TypeMCQ, "What is the capital of France?", "B"),
		record(2, parser.TypeText, "Simplify the ratio 35:45.", "7:9"),
	}
	expected := []ExpectedQuestion{
		{Qno: 1, Type: "mcq", Answer: "B", TextContains: []string{"capital"}},
		{Qno: 2, Type: "text"},
	}

	tr := gradeCase(records, expected)
	if !tr.Passed {
		t.Fatalf("Passed = false, mismatches %+v, missing %v, spurious %v",
			tr.Mismatches, tr.Missing, tr.Spurious)
	}
	if tr.Coverage != 1.0 || tr.AnswerAccuracy != 1.0 || tr.TypeAccuracy != 1.0 {
		t.Errorf("metrics = %v/%v/%v, want all 1.0",
			tr.Coverage, tr.AnswerAccuracy, tr.TypeAccuracy)
	}
}

func TestGradeCaseMissingAndSpurious(t *testing.T) {
	records := []merge.QuestionRecord{
		record(1, parser.TypeMCQ, "first", "A"),
		record(9, parser.TypeMCQ, "stray", "C"),
	}
	expected := []ExpectedQuestion{
		{Qno: 1, Answer: "A"},
		{Qno: 2, Answer: "B"},
	}

	tr := gradeCase(records, expected)
	if tr.Passed {
		t.Fatal("Passed = true for incomplete extraction")
	}
	if len(tr.Missing) != 1 || tr.Missing[0] != 2 {
		t.Errorf("Missing = %v, want [2]", tr.Missing)
	}
	if len(tr.Spurious) != 1 || tr.Spurious[0] != 9 {
		t.Errorf("Spurious = %v, want [9]", tr.Spurious)
	}
	if tr.Coverage != 0.5 {
		t.Errorf("Coverage = %v, want 0.5", tr.Coverage)
	}
	if tr.SpuriousRate != 0.5 {
		t.Errorf("SpuriousRate = %v, want 0.5", tr.SpuriousRate)
	}
}

func TestGradeCaseAnswerCaseInsensitive(t *testing.T) {
	records := []merge.QuestionRecord{record(1, parser.TypeMCQ, "q", "b")}
	expected := []ExpectedQuestion{{Qno: 1, Answer: "B"}}

	tr := gradeCase(records, expected)
	if tr.AnswerAccuracy != 1.0 {
		t.Errorf("AnswerAccuracy = %v, want 1.0", tr.AnswerAccuracy)
	}
}

func TestGradeCaseFieldMismatches(t *testing.T) {
	rec := record(3, parser.TypeMCQ, "Select the odd one out.", "A")
	records := []merge.QuestionRecord{rec}
	expected := []ExpectedQuestion{
		{
			Qno:          3,
			Type:         "match",
			Answer:       "D",
			TextContains: []string{"even"},
			OptionKeys:   []string{"A"},
			HasDiagram:   true,
		},
	}

	tr := gradeCase(records, expected)
	if tr.Passed {
		t.Fatal("Passed = true despite mismatches")
	}

	fields := make(map[string]bool)
	for _, m := range tr.Mismatches {
		fields[m.Field] = true
	}
	for _, want := range []string{"answer", "type", "text", "option", "diagram"} {
		if !fields[want] {
			t.Errorf("no mismatch recorded for field %q: %+v", want, tr.Mismatches)
		}
	}
}

func TestGradeCaseUncheckedFieldsScoreFull(t *testing.T) {
	// A dataset that only lists question numbers still grades coverage,
	// and the unchecked dimensions stay at 1.0.
	records := []merge.QuestionRecord{record(1, parser.TypeMCQ, "q", "")}
	expected := []ExpectedQuestion{{Qno: 1}}

	tr := gradeCase(records, expected)
	if !tr.Passed {
		t.Fatalf("Passed = false: %+v", tr)
	}
	if tr.AnswerAccuracy != 1.0 || tr.TypeAccuracy != 1.0 || tr.TextAccuracy != 1.0 {
		t.Errorf("unchecked accuracies = %v/%v/%v, want 1.0",
			tr.AnswerAccuracy, tr.TypeAccuracy, tr.TextAccuracy)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"nbsp", "35\u00a0:\u00a045", "35 : 45"},
		{"en dash", "pages 3\u20135", "pages 3-5"},
		{"zero width", "rat\u200bio", "ratio"},
		{"plain", "unchanged", "unchanged"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeText(tt.in); got != tt.want {
				t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAggregateAverages(t *testing.T) {
	results := []TestResult{
		{Coverage: 1.0, AnswerAccuracy: 1.0, TypeAccuracy: 1.0, TextAccuracy: 1.0},
		{Coverage: 0.5, AnswerAccuracy: 0.0, TypeAccuracy: 1.0, TextAccuracy: 0.5, SpuriousRate: 0.2},
	}
	m := aggregate(results)
	if m.AvgCoverage != 0.75 {
		t.Errorf("AvgCoverage = %v, want 0.75", m.AvgCoverage)
	}
	if m.AvgAnswerAccuracy != 0.5 {
		t.Errorf("AvgAnswerAccuracy = %v, want 0.5", m.AvgAnswerAccuracy)
	}
	if m.AvgSpuriousRate != 0.1 {
		t.Errorf("AvgSpuriousRate = %v, want 0.1", m.AvgSpuriousRate)
	}
}

// ---

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golden.json")
	data := `{
		"name": "sample papers",
		"tests": [
			{"pdf": "papers/set_a.pdf", "expected": [{"qno": 1, "answer": "B"}]},
			{"pdf": "/abs/set_b.pdf", "expected": [{"qno": 1}]}
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if ds.Name != "sample papers" || len(ds.Tests) != 2 {
		t.Fatalf("dataset = %+v", ds)
	}
	if want := filepath.Join(dir, "papers", "set_a.pdf"); ds.Tests[0].PDF != want {
		t.Errorf("relative pdf = %q, want %q", ds.Tests[0].PDF, want)
	}
	if ds.Tests[1].PDF != "/abs/set_b.pdf" {
		t.Errorf("absolute pdf rewritten: %q", ds.Tests[1].PDF)
	}
}

func TestLoadDatasetErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"empty tests", `{"name": "x", "tests": []}`},
		{"missing pdf", `{"name": "x", "tests": [{"expected": []}]}`},
		{"malformed", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadDataset(path); err == nil {
				t.Error("LoadDataset succeeded, want error")
			}
		})
	}

	if _, err := LoadDataset(filepath.Join(dir, "nope.json")); err == nil {
		t.Error("LoadDataset on missing file succeeded, want error")
	}
}
