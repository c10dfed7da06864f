package merge

import "github.com/prasadg/examsift/parser"

// answerBook accumulates every answer sighting across the document in two
// layers. The base layer takes inline fragment answers, answer rows and
// orphan rows in section order, later sightings overwriting earlier ones.
// The key layer takes only rows from answer-key pages; it wins over anything
// inline regardless of where the key page sits in the document.
type answerBook struct {
	base map[int]string
	key  map[int]string
}

func newAnswerBook() answerBook {
	return answerBook{
		base: make(map[int]string),
		key:  make(map[int]string),
	}
}

func (b answerBook) record(sec *parser.PageSection) {
	for _, q := range sec.Questions {
		if q.Qno > 0 && q.Answer != "" {
			b.base[q.Qno] = q.Answer
		}
	}
	for _, row := range sec.Answers {
		if row.Qno > 0 && row.Answer != "" {
			b.base[row.Qno] = row.Answer
		}
	}
	for _, row := range sec.OrphanAnswers {
		if row.Qno > 0 && row.Answer != "" {
			b.base[row.Qno] = row.Answer
		}
	}

	if sec.PageType == parser.PageAnswers {
		for _, row := range sec.Answers {
			if row.Qno > 0 && row.Answer != "" {
				b.key[row.Qno] = row.Answer
			}
		}
	}
}

// resolve picks the final answer for a record. An answer-key entry
// overrides whatever the record carries. Otherwise the record's own answer
// stands, and only an empty one is filled from the base layer.
func (b answerBook) resolve(qno int, current string) string {
	if ans, ok := b.key[qno]; ok {
		return ans
	}
	if current != "" {
		return current
	}
	return b.base[qno]
}
