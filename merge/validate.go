package merge

import (
	"sort"
	"strings"

	"github.com/prasadg/examsift/parser"
)

// Clean drops records with no usable content and normalizes the rest. A
// record survives only with a positive qno and at least some question text
// or options. Output is ordered ascending by qno.
func Clean(records []QuestionRecord) []QuestionRecord {
	cleaned := make([]QuestionRecord, 0, len(records))
	for _, q := range records {
		if q.Qno <= 0 {
			continue
		}
		q.QuestionText = strings.TrimSpace(q.QuestionText)
		if q.QuestionText == "" && len(q.Options) == 0 {
			continue
		}
		if q.Type == "" {
			q.Type = parser.TypeMCQ
		}
		if q.List1 == nil {
			q.List1 = []string{}
		}
		if q.List2 == nil {
			q.List2 = []string{}
		}
		if q.Options == nil {
			q.Options = map[string]string{}
		}
		cleaned = append(cleaned, q)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].Qno < cleaned[j].Qno })
	return cleaned
}

// AttachDiagrams assigns a page region's extracted diagram paths to that
// region's fragments positionally: the i-th fragment without a diagram gets
// the i-th path. Surplus paths are discarded; surplus fragments keep no
// diagram. Runs per region, before merging.
func AttachDiagrams(questions []parser.QuestionFragment, paths []string) {
	next := 0
	for i := range questions {
		if questions[i].Diagram != "" {
			continue
		}
		if next >= len(paths) {
			return
		}
		questions[i].Diagram = paths[next]
		next++
	}
}
