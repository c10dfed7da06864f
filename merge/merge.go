// Package merge stitches per-page parse results into a single ordered
// question list. It resolves questions split across page boundaries,
// reconciles answers from inline text, orphan lines and answer-key tables,
// and drops records with no extractable content.
package merge

import (
	"sort"

	"github.com/prasadg/examsift/parser"
)

// QuestionRecord is one finalized question. Unlike a fragment it has a
// unique qno within the document and no continuation flag.
type QuestionRecord struct {
	Qno          int                 `json:"qno"`
	Type         parser.QuestionType `json:"type"`
	QuestionText string              `json:"question"`
	List1        []string            `json:"list1"`
	List2        []string            `json:"list2"`
	Options      map[string]string   `json:"options"`
	Answer       string              `json:"answer,omitempty"`
	Diagram      string              `json:"diagram,omitempty"`
}

// Scorer rates how complete a fragment is. When two fragments claim the same
// qno, the higher-scoring one is kept.
type Scorer func(parser.QuestionFragment) int

// DefaultScorer weights options heavily (they are the hardest part to
// recover once lost), match lists next, then raw text length, with a small
// bonus for a present answer.
func DefaultScorer(q parser.QuestionFragment) int {
	score := len(q.QuestionText)
	score += 10 * len(q.Options)
	score += 5 * (len(q.List1) + len(q.List2))
	if q.Answer != "" {
		score += 3
	}
	return score
}

// Resolver consumes page sections strictly in page/region order and
// accumulates in-progress question records. It is not safe for concurrent
// use; the pass is order-dependent and runs on one goroutine.
type Resolver struct {
	score Scorer

	byQno   map[int]*parser.QuestionFragment
	answers answerBook

	// pendingContinuation holds the qno of a question whose options were
	// cut off at the bottom of a page, waiting for the next section's
	// prevPageContinuation. pendingDangling holds a bare trailing question
	// number whose body never appeared. Both hold at most one open
	// obligation; zero means none.
	pendingContinuation int
	pendingDangling     int
}

// NewResolver creates a resolver. A nil scorer uses DefaultScorer.
func NewResolver(score Scorer) *Resolver {
	if score == nil {
		score = DefaultScorer
	}
	return &Resolver{
		score:   score,
		byQno:   make(map[int]*parser.QuestionFragment),
		answers: newAnswerBook(),
	}
}

// Merge runs a full pass over sections in order and returns the finalized,
// cleaned question list.
func Merge(sections []*parser.PageSection) []QuestionRecord {
	r := NewResolver(nil)
	for _, sec := range sections {
		r.Add(sec)
	}
	return Clean(r.Finalize())
}

// Add consumes the next section in page/region order.
func (r *Resolver) Add(sec *parser.PageSection) {
	if sec == nil {
		return
	}

	r.answers.record(sec)

	if sec.PageType == parser.PageAnswers {
		// A pure answer-key page cannot host a continuation for either
		// pending slot, so both obligations are abandoned here.
		r.pendingContinuation = 0
		r.pendingDangling = 0
		return
	}

	cont := sec.PrevPageContinuation

	// A continuation at the top of this section completes the question left
	// open at the bottom of the previous one. Only missing fields are
	// filled; the slot clears whether or not the record was found.
	if cont != nil && r.pendingContinuation != 0 {
		if q, ok := r.byQno[r.pendingContinuation]; ok {
			if len(cont.Options) > 0 && len(q.Options) == 0 {
				q.Options = cont.Options
			}
			if cont.Answer != "" && q.Answer == "" {
				q.Answer = cont.Answer
			}
		}
		r.pendingContinuation = 0
	}

	// A dangling number followed by a continuation means the whole question
	// body lived on the next page. Synthesize a record from the continuation
	// alone; the question text is unrecoverable.
	if r.pendingDangling != 0 && cont != nil {
		if _, ok := r.byQno[r.pendingDangling]; !ok {
			r.byQno[r.pendingDangling] = &parser.QuestionFragment{
				Qno:     r.pendingDangling,
				Type:    parser.TypeMCQ,
				List1:   []string{},
				List2:   []string{},
				Options: cont.Options,
				Answer:  cont.Answer,
			}
		}
		r.pendingDangling = 0
	}

	// Orphan answers with no qno attach to the highest question seen so
	// far, and only if it has no answer yet. Proximity heuristic; it can
	// misattribute when numbering has gaps.
	r.attachOrphans(sec.OrphanAnswers)

	for i := range sec.Questions {
		q := sec.Questions[i]
		if q.Qno <= 0 {
			continue
		}
		existing, seen := r.byQno[q.Qno]
		if !seen || r.score(q) > r.score(*existing) {
			frag := q
			r.byQno[q.Qno] = &frag
		}
		if r.byQno[q.Qno].ContinuationToNext {
			r.pendingContinuation = q.Qno
		}
	}

	if sec.DanglingQno > 0 {
		r.pendingDangling = sec.DanglingQno
	}
}

func (r *Resolver) attachOrphans(rows []parser.AnswerRow) {
	if len(r.byQno) == 0 {
		return
	}
	last := 0
	for qno := range r.byQno {
		if qno > last {
			last = qno
		}
	}
	for _, row := range rows {
		if row.Qno != 0 || row.Answer == "" {
			continue
		}
		if r.byQno[last].Answer == "" {
			r.byQno[last].Answer = row.Answer
		}
	}
}

// Finalize reconciles answers into the accumulated records and returns them
// ordered by qno. The resolver should not be reused afterwards.
func (r *Resolver) Finalize() []QuestionRecord {
	qnos := make([]int, 0, len(r.byQno))
	for qno := range r.byQno {
		qnos = append(qnos, qno)
	}
	sort.Ints(qnos)

	records := make([]QuestionRecord, 0, len(qnos))
	for _, qno := range qnos {
		q := r.byQno[qno]
		answer := r.answers.resolve(qno, q.Answer)
		records = append(records, QuestionRecord{
			Qno:          qno,
			Type:         q.Type,
			QuestionText: q.QuestionText,
			List1:        q.List1,
			List2:        q.List2,
			Options:      q.Options,
			Answer:       answer,
			Diagram:      q.Diagram,
		})
	}
	return records
}
