package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Dataset is a collection of graded papers for an evaluation run. Each test
// case names a PDF and the question records a correct extraction produces.
type Dataset struct {
	Name  string     `json:"name"`
	Tests []TestCase `json:"tests"`
}

// TestCase pairs one exam paper with its expected questions. Relative PDF
// paths are resolved against the dataset file's directory.
type TestCase struct {
	PDF      string             `json:"pdf"`
	Expected []ExpectedQuestion `json:"expected"`
}

// ExpectedQuestion is the ground truth for a single question. Zero-valued
// fields are not checked, so a dataset can grade answers only, or types
// only, without transcribing full question text.
type ExpectedQuestion struct {
	Qno          int      `json:"qno"`
	Type         string   `json:"type,omitempty"`
	Answer       string   `json:"answer,omitempty"`
	TextContains []string `json:"text_contains,omitempty"`
	OptionKeys   []string `json:"option_keys,omitempty"`
	HasDiagram   bool     `json:"has_diagram,omitempty"`
}

// LoadDataset reads a dataset from a JSON file and resolves relative PDF
// paths against the file's directory.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("reading dataset: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	if len(ds.Tests) == 0 {
		return Dataset{}, fmt.Errorf("dataset %s has no tests", path)
	}

	base := filepath.Dir(path)
	for i, tc := range ds.Tests {
		if tc.PDF == "" {
			return Dataset{}, fmt.Errorf("dataset %s: test %d has no pdf", path, i)
		}
		if !filepath.IsAbs(tc.PDF) {
			ds.Tests[i].PDF = filepath.Join(base, tc.PDF)
		}
	}
	return ds, nil
}
