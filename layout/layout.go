// Package layout classifies exam-paper pages by their visual layout so the
// pipeline knows whether to parse a page whole, split it into column regions,
// or treat it as an answer-key table.
package layout

import "strings"

// Kind is the detected layout of a single page.
type Kind string

const (
	// Single is a single-column page (coaching PDFs, books, inline answers).
	Single Kind = "single"
	// TwoColumn is a classic two-column exam paper (UPSC / APSC / SSC style).
	TwoColumn Kind = "two_column"
	// AnswerKey is a page holding a Q.NO → ANS table.
	AnswerKey Kind = "answer_key"
)

// Block is a text block placed on the page. Only the x-origin matters for
// column detection.
type Block struct {
	X float64
}

// answerKeySignals is the phrase lexicon for answer-key pages. A page whose
// text contains at least two distinct phrases is classified AnswerKey.
var answerKeySignals = []string{
	"ans_key",
	"answer key",
	"provisional answer",
	"q. no.",
	"q.no.",
	"ans key",
}

const (
	// minBlocks is the minimum number of text blocks needed before the
	// two-column heuristic has enough evidence; below it we default to Single.
	minBlocks = 4
	// midMargin is the dead zone (in page units) around the page mid-line;
	// blocks inside it count for neither side.
	midMargin = 60.0
	// minSideBlocks is the minimum block count each side must reach.
	minSideBlocks = 3
	// balanceRatio rejects lightly staggered single-column text misread as
	// two columns: min(left,right)/max(left,right) must exceed it.
	balanceRatio = 0.35
)

// Config tunes the classifier. The zero value is not usable; call
// DefaultConfig and adjust.
type Config struct {
	MidMargin     float64
	MinBlocks     int
	MinSideBlocks int
	BalanceRatio  float64
}

// DefaultConfig returns the thresholds used in production.
func DefaultConfig() Config {
	return Config{
		MidMargin:     midMargin,
		MinBlocks:     minBlocks,
		MinSideBlocks: minSideBlocks,
		BalanceRatio:  balanceRatio,
	}
}

// Classifier classifies pages from their text and block geometry.
type Classifier struct {
	cfg Config
}

// New creates a Classifier with the given configuration.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify decides the layout of one page. pageText is the full extracted
// text of the page (case does not matter); blocks are the non-image text
// blocks with their x-origins; pageWidth is the page width in the same units.
func (c *Classifier) Classify(pageText string, blocks []Block, pageWidth float64) Kind {
	if countAnswerKeySignals(pageText) >= 2 {
		return AnswerKey
	}

	if len(blocks) < c.cfg.MinBlocks {
		// Not enough evidence for a column split.
		return Single
	}

	mid := pageWidth / 2
	var left, right int
	for _, b := range blocks {
		switch {
		case b.X < mid-c.cfg.MidMargin:
			left++
		case b.X > mid+c.cfg.MidMargin:
			right++
		}
	}

	if left >= c.cfg.MinSideBlocks && right >= c.cfg.MinSideBlocks {
		lo, hi := left, right
		if lo > hi {
			lo, hi = hi, lo
		}
		if float64(lo)/float64(hi) > c.cfg.BalanceRatio {
			return TwoColumn
		}
	}

	return Single
}

// countAnswerKeySignals returns how many distinct lexicon phrases occur in
// the page text.
func countAnswerKeySignals(pageText string) int {
	text := strings.ToLower(pageText)
	n := 0
	for _, s := range answerKeySignals {
		if strings.Contains(text, s) {
			n++
		}
	}
	return n
}
