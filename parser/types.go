package parser

import "strings"

// PageType classifies what a parsed page region contains.
type PageType string

const (
	// PageQuestions is a region with questions and no inline answers.
	PageQuestions PageType = "questions"
	// PageMixed is a region where answers appear inline with the questions.
	PageMixed PageType = "mixed"
	// PageAnswers is an answer-key table.
	PageAnswers PageType = "answers"
)

// QuestionType classifies the format of a single question.
type QuestionType string

const (
	TypeMCQ       QuestionType = "mcq"
	TypeMatch     QuestionType = "match"
	TypeStatement QuestionType = "statement"
	TypeText      QuestionType = "text"
	TypeImage     QuestionType = "image"
	TypeFill      QuestionType = "fill"
)

// Continuation holds options and an answer found at the top of a region that
// belong to the previous region's last question.
type Continuation struct {
	Options map[string]string `json:"options"`
	Answer  string            `json:"answer"`
}

// AnswerRow is one qno/answer pair from an answer-key table or a standalone
// answer line. Qno is 0 when the model could not infer it.
type AnswerRow struct {
	Qno    int    `json:"qno"`
	Answer string `json:"answer"`
}

// QuestionFragment is one question as seen on a single page region. A question
// split across regions produces multiple fragments with the same Qno; the
// merge stage picks the most complete one.
type QuestionFragment struct {
	Qno                int               `json:"qno"`
	Type               QuestionType      `json:"type"`
	QuestionText       string            `json:"question"`
	List1              []string          `json:"list1"`
	List2              []string          `json:"list2"`
	Options            map[string]string `json:"options"`
	Answer             string            `json:"answer"`
	ContinuationToNext bool              `json:"continuation_to_next"`

	// Diagram is the path of an extracted figure attached after parsing.
	// It is never populated by the model.
	Diagram string `json:"diagram,omitempty"`
}

// PageSection is everything extracted from one page region.
type PageSection struct {
	PageType             PageType           `json:"page_type"`
	PrevPageContinuation *Continuation      `json:"prev_page_continuation"`
	DanglingQno          int                `json:"dangling_qno"`
	Questions            []QuestionFragment `json:"questions"`
	Answers              []AnswerRow        `json:"answers"`
	OrphanAnswers        []AnswerRow        `json:"orphan_answers"`
}

// EmptySection is the canonical degraded result: a questions page with
// nothing on it. Every parser failure maps to this so the merge stage never
// sees a nil section.
func EmptySection() *PageSection {
	return &PageSection{
		PageType:      PageQuestions,
		Questions:     []QuestionFragment{},
		Answers:       []AnswerRow{},
		OrphanAnswers: []AnswerRow{},
	}
}

// letterAnswerTypes are the question types whose answer is an option letter
// and should be uppercased. Text and fill answers keep their raw value.
var letterAnswerTypes = map[QuestionType]bool{
	TypeMCQ:       true,
	TypeMatch:     true,
	TypeStatement: true,
	TypeImage:     true,
}

// Normalize fills missing fields with defaults and canonicalizes answers and
// option keys in place. Models are inconsistent about null vs missing vs
// empty, and about answer casing; everything downstream assumes the
// normalized form.
func (s *PageSection) Normalize() {
	if s.PageType == "" {
		s.PageType = PageQuestions
	}
	if s.Questions == nil {
		s.Questions = []QuestionFragment{}
	}
	if s.Answers == nil {
		s.Answers = []AnswerRow{}
	}
	if s.OrphanAnswers == nil {
		s.OrphanAnswers = []AnswerRow{}
	}

	for i := range s.Questions {
		q := &s.Questions[i]
		if q.Type == "" {
			q.Type = TypeMCQ
		}
		if q.List1 == nil {
			q.List1 = []string{}
		}
		if q.List2 == nil {
			q.List2 = []string{}
		}
		q.Options = upperKeys(q.Options)

		if q.Answer != "" {
			if letterAnswerTypes[q.Type] {
				q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
			} else {
				q.Answer = strings.TrimSpace(q.Answer)
			}
		}
	}

	normalizeRows(s.Answers)
	normalizeRows(s.OrphanAnswers)

	if c := s.PrevPageContinuation; c != nil {
		c.Options = upperKeys(c.Options)
		if c.Answer != "" {
			c.Answer = strings.ToUpper(strings.TrimSpace(c.Answer))
		}
	}
}

// normalizeRows uppercases answers that look like a single option letter and
// trims the rest.
func normalizeRows(rows []AnswerRow) {
	for i := range rows {
		ans := strings.TrimSpace(rows[i].Answer)
		if len(ans) == 1 && isLetter(ans[0]) {
			ans = strings.ToUpper(ans)
		}
		rows[i].Answer = ans
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func upperKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}
