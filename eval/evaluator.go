package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/prasadg/examsift"
	"github.com/prasadg/examsift/merge"
)

// Evaluator runs extraction accuracy suites against an examsift engine.
type Evaluator struct {
	engine examsift.Engine
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(engine examsift.Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

// Report holds the results of an evaluation run.
type Report struct {
	Dataset    string           `json:"dataset"`
	TotalTests int              `json:"total_tests"`
	Passed     int              `json:"passed"`
	Failed     int              `json:"failed"`
	Metrics    AggregateMetrics `json:"metrics"`
	Results    []TestResult     `json:"results"`
	RunTime    time.Duration    `json:"run_time"`
}

// AggregateMetrics holds averaged metrics across all tests.
type AggregateMetrics struct {
	AvgCoverage       float64 `json:"avg_coverage"`
	AvgAnswerAccuracy float64 `json:"avg_answer_accuracy"`
	AvgTypeAccuracy   float64 `json:"avg_type_accuracy"`
	AvgTextAccuracy   float64 `json:"avg_text_accuracy"`
	AvgSpuriousRate   float64 `json:"avg_spurious_rate"`
}

// TestResult holds the graded outcome for a single paper.
type TestResult struct {
	PDF            string     `json:"pdf"`
	ExpectedCount  int        `json:"expected_count"`
	ExtractedCount int        `json:"extracted_count"`
	Coverage       float64    `json:"coverage"`
	AnswerAccuracy float64    `json:"answer_accuracy"`
	TypeAccuracy   float64    `json:"type_accuracy"`
	TextAccuracy   float64    `json:"text_accuracy"`
	SpuriousRate   float64    `json:"spurious_rate"`
	Missing        []int      `json:"missing,omitempty"`
	Spurious       []int      `json:"spurious,omitempty"`
	Mismatches     []Mismatch `json:"mismatches,omitempty"`
	Passed         bool       `json:"passed"`
	Error          string     `json:"error,omitempty"`
	ElapsedMs      int64      `json:"elapsed_ms"`
}

// Mismatch records one field-level disagreement for diagnostics.
type Mismatch struct {
	Qno      int    `json:"qno"`
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

// Run extracts every paper in the dataset and grades the results.
func (e *Evaluator) Run(ctx context.Context, ds Dataset) (*Report, error) {
	start := time.Now()
	report := &Report{
		Dataset:    ds.Name,
		TotalTests: len(ds.Tests),
	}

	for _, tc := range ds.Tests {
		caseStart := time.Now()
		slog.Info("evaluating paper", "pdf", tc.PDF, "expected", len(tc.Expected))

		result, err := e.engine.Extract(ctx, tc.PDF)
		if err != nil {
			report.Results = append(report.Results, TestResult{
				PDF:           tc.PDF,
				ExpectedCount: len(tc.Expected),
				Error:         fmt.Sprintf("extract: %v", err),
				ElapsedMs:     time.Since(caseStart).Milliseconds(),
			})
			report.Failed++
			continue
		}

		tr := gradeCase(result.Questions, tc.Expected)
		tr.PDF = tc.PDF
		tr.ElapsedMs = time.Since(caseStart).Milliseconds()
		report.Results = append(report.Results, tr)
		if tr.Passed {
			report.Passed++
		} else {
			report.Failed++
		}

		slog.Info("paper graded",
			"pdf", tc.PDF,
			"coverage", tr.Coverage,
			"answer_accuracy", tr.AnswerAccuracy,
			"passed", tr.Passed,
		)
	}

	report.Metrics = aggregate(report.Results)
	report.RunTime = time.Since(start)
	return report, nil
}

// gradeCase compares extracted records against the expected questions. Only
// fields present in the expectation are checked. A case passes when every
// expected question is found, nothing spurious appears, and all checked
// fields agree.
func gradeCase(records []merge.QuestionRecord, expected []ExpectedQuestion) TestResult {
	tr := TestResult{
		ExpectedCount:  len(expected),
		ExtractedCount: len(records),
	}

	byQno := make(map[int]merge.QuestionRecord, len(records))
	for _, rec := range records {
		byQno[rec.Qno] = rec
	}
	wanted := make(map[int]bool, len(expected))
	for _, exp := range expected {
		wanted[exp.Qno] = true
	}

	var found, answerHits, answerChecked, typeHits, typeChecked int
	var textHits, textChecked int

	for _, exp := range expected {
		rec, ok := byQno[exp.Qno]
		if !ok {
			tr.Missing = append(tr.Missing, exp.Qno)
			continue
		}
		found++

		if exp.Answer != "" {
			answerChecked++
			if strings.EqualFold(strings.TrimSpace(rec.Answer), exp.Answer) {
				answerHits++
			} else {
				tr.Mismatches = append(tr.Mismatches, Mismatch{
					Qno: exp.Qno, Field: "answer", Expected: exp.Answer, Got: rec.Answer,
				})
			}
		}
		if exp.Type != "" {
			typeChecked++
			if string(rec.Type) == exp.Type {
				typeHits++
			} else {
				tr.Mismatches = append(tr.Mismatches, Mismatch{
					Qno: exp.Qno, Field: "type", Expected: exp.Type, Got: string(rec.Type),
				})
			}
		}
		if len(exp.TextContains) > 0 {
			textChecked++
			text := normalizeText(strings.ToLower(rec.QuestionText))
			missing := ""
			for _, frag := range exp.TextContains {
				if !strings.Contains(text, normalizeText(strings.ToLower(frag))) {
					missing = frag
					break
				}
			}
			if missing == "" {
				textHits++
			} else {
				tr.Mismatches = append(tr.Mismatches, Mismatch{
					Qno: exp.Qno, Field: "text", Expected: missing, Got: rec.QuestionText,
				})
			}
		}
		for _, key := range exp.OptionKeys {
			if _, ok := rec.Options[key]; !ok {
				tr.Mismatches = append(tr.Mismatches, Mismatch{
					Qno: exp.Qno, Field: "option", Expected: key, Got: "",
				})
			}
		}
		if exp.HasDiagram && rec.Diagram == "" {
			tr.Mismatches = append(tr.Mismatches, Mismatch{
				Qno: exp.Qno, Field: "diagram", Expected: "present", Got: "",
			})
		}
	}

	for _, rec := range records {
		if !wanted[rec.Qno] {
			tr.Spurious = append(tr.Spurious, rec.Qno)
		}
	}
	sort.Ints(tr.Missing)
	sort.Ints(tr.Spurious)

	tr.Coverage = ratio(found, len(expected))
	tr.AnswerAccuracy = ratio(answerHits, answerChecked)
	tr.TypeAccuracy = ratio(typeHits, typeChecked)
	tr.TextAccuracy = ratio(textHits, textChecked)
	if len(records) > 0 {
		tr.SpuriousRate = float64(len(tr.Spurious)) / float64(len(records))
	}

	tr.Passed = len(tr.Missing) == 0 && len(tr.Spurious) == 0 && len(tr.Mismatches) == 0
	return tr
}

func aggregate(results []TestResult) AggregateMetrics {
	var m AggregateMetrics
	if len(results) == 0 {
		return m
	}
	for _, r := range results {
		m.AvgCoverage += r.Coverage
		m.AvgAnswerAccuracy += r.AnswerAccuracy
		m.AvgTypeAccuracy += r.TypeAccuracy
		m.AvgTextAccuracy += r.TextAccuracy
		m.AvgSpuriousRate += r.SpuriousRate
	}
	n := float64(len(results))
	m.AvgCoverage /= n
	m.AvgAnswerAccuracy /= n
	m.AvgTypeAccuracy /= n
	m.AvgTextAccuracy /= n
	m.AvgSpuriousRate /= n
	return m
}

// ratio returns hits/checked, or 1.0 when nothing was checked so that an
// unchecked dimension never drags an average down.
func ratio(hits, checked int) float64 {
	if checked == 0 {
		return 1.0
	}
	return float64(hits) / float64(checked)
}

// normalizeText normalizes Unicode characters commonly produced by vision
// models so that substring matching works reliably. Handles:
//   - Unicode whitespace → ASCII space (U+202F, U+00A0, etc.)
//   - Unicode hyphens → ASCII hyphen (U+2010..U+2014)
//   - Strips zero-width characters (U+200B, U+200C, U+200D, U+FEFF)
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case r == '\u2010' || r == '\u2011' || r == '\u2012' || r == '\u2013' || r == '\u2014':
			b.WriteByte('-')
		case r == '\u200B' || r == '\u200C' || r == '\u200D' || r == '\uFEFF':
			// strip zero-width characters
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
