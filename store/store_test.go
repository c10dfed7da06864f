//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleQuestions() []Question {
	return []Question{
		{
			Qno:      1,
			Type:     "mcq",
			Question: "What is the capital of Assam?",
			Options:  map[string]string{"A": "Guwahati", "B": "Dispur", "C": "Jorhat", "D": "Tezpur"},
			Answer:   "B",
		},
		{
			Qno:      2,
			Type:     "text",
			Question: "If a:b = 7:9 and b:c = 15:7, what is a:b:c?",
			Answer:   "35:45:21",
		},
		{
			Qno:      3,
			Type:     "match",
			Question: "Match List-I with List-II.",
			List1:    []string{"Kaziranga", "Manas"},
			List2:    []string{"Rhino", "Tiger"},
			Options:  map[string]string{"A": "1-a 2-b", "B": "1-b 2-a"},
			Diagram:  "temp/diagrams/2_abc123.png",
		},
	}
}

func saveSample(t *testing.T, s *Store) int64 {
	t.Helper()
	ctx := context.Background()

	uploadID, err := s.SaveUpload(ctx, Upload{Filename: "paper.pdf", TotalQuestions: 3, WithAnswers: 2, WithDiagrams: 1})
	if err != nil {
		t.Fatalf("saving upload: %v", err)
	}
	if _, err := s.SaveQuestions(ctx, uploadID, sampleQuestions()); err != nil {
		t.Fatalf("saving questions: %v", err)
	}
	return uploadID
}

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	// New already ran migrations once; a second run must be a no-op.
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Uploads
// ---------------------------------------------------------------------------

func TestSaveAndListUploads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.SaveUpload(ctx, Upload{Filename: "first.pdf", TotalQuestions: 10})
	if err != nil {
		t.Fatalf("saving upload: %v", err)
	}
	id2, err := s.SaveUpload(ctx, Upload{Filename: "second.pdf", TotalQuestions: 5, WithAnswers: 5})
	if err != nil {
		t.Fatalf("saving upload: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("upload ids not unique: %d", id1)
	}

	uploads, err := s.ListUploads(ctx)
	if err != nil {
		t.Fatalf("listing uploads: %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("got %d uploads, want 2", len(uploads))
	}
	// Most recent first.
	if uploads[0].Filename != "second.pdf" {
		t.Errorf("first listed upload = %q, want second.pdf", uploads[0].Filename)
	}

	got, err := s.GetUpload(ctx, id2)
	if err != nil {
		t.Fatalf("getting upload: %v", err)
	}
	if got == nil || got.WithAnswers != 5 {
		t.Errorf("GetUpload = %+v, want with_answers 5", got)
	}
}

func TestGetUploadMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetUpload(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for missing upload", got)
	}
}

// ---------------------------------------------------------------------------
// Questions
// ---------------------------------------------------------------------------

func TestSaveAndListQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uploadID := saveSample(t, s)

	questions, err := s.ListQuestions(ctx, uploadID)
	if err != nil {
		t.Fatalf("listing questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}

	// Ordered by qno, collections round-trip through JSON columns.
	if questions[0].Qno != 1 || questions[2].Qno != 3 {
		t.Errorf("questions out of order: %v", questions)
	}
	if questions[0].Options["B"] != "Dispur" {
		t.Errorf("options = %v", questions[0].Options)
	}
	if questions[1].Answer != "35:45:21" {
		t.Errorf("text answer = %q", questions[1].Answer)
	}
	if len(questions[2].List1) != 2 || questions[2].List1[0] != "Kaziranga" {
		t.Errorf("list1 = %v", questions[2].List1)
	}
	if questions[2].Diagram == "" {
		t.Error("diagram path lost")
	}

	// Answerless mcq should come back with empty answer, not "null".
	if questions[2].Answer != "" {
		t.Errorf("answer = %q, want empty", questions[2].Answer)
	}
}

func TestSaveQuestionsEmpty(t *testing.T) {
	s := newTestStore(t)
	n, err := s.SaveQuestions(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("inserted %d, want 0", n)
	}
}

func TestListQuestionsAllUploads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveSample(t, s)
	saveSample(t, s)

	all, err := s.ListQuestions(ctx, 0)
	if err != nil {
		t.Fatalf("listing all questions: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("got %d questions across uploads, want 6", len(all))
	}
}

func TestGetQuestionByQno(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uploadID := saveSample(t, s)

	q, err := s.GetQuestionByQno(ctx, 2, uploadID)
	if err != nil {
		t.Fatalf("getting question: %v", err)
	}
	if q == nil || q.Type != "text" {
		t.Errorf("GetQuestionByQno = %+v, want the text question", q)
	}

	missing, err := s.GetQuestionByQno(ctx, 42, uploadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("got %+v, want nil for missing qno", missing)
	}
}

func TestDeleteQuestionsByUpload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := saveSample(t, s)
	second := saveSample(t, s)

	n, err := s.DeleteQuestions(ctx, first)
	if err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d, want 3", n)
	}

	remaining, err := s.ListQuestions(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 3 {
		t.Errorf("got %d remaining questions, want 3", len(remaining))
	}
	for _, q := range remaining {
		if q.UploadID != second {
			t.Errorf("question %d belongs to upload %d, want %d", q.Qno, q.UploadID, second)
		}
	}

	uploads, err := s.ListUploads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(uploads) != 1 {
		t.Errorf("got %d uploads, want the deleted one gone", len(uploads))
	}
}

func TestDeleteAllQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveSample(t, s)
	saveSample(t, s)

	n, err := s.DeleteQuestions(ctx, 0)
	if err != nil {
		t.Fatalf("deleting all: %v", err)
	}
	if n != 6 {
		t.Errorf("deleted %d, want 6", n)
	}

	uploads, err := s.ListUploads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(uploads) != 0 {
		t.Errorf("uploads remain after delete-all: %v", uploads)
	}
}

// ---------------------------------------------------------------------------
// Full-text search
// ---------------------------------------------------------------------------

func TestSearchQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveSample(t, s)

	results, err := s.SearchQuestions(ctx, "capital", 10)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Qno != 1 {
		t.Errorf("matched qno %d, want 1", results[0].Qno)
	}
}

func TestSearchAfterDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uploadID := saveSample(t, s)

	if _, err := s.DeleteQuestions(ctx, uploadID); err != nil {
		t.Fatal(err)
	}

	// Triggers must have cleaned the FTS index.
	results, err := s.SearchQuestions(ctx, "capital", 10)
	if err != nil {
		t.Fatalf("searching: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results after delete, want 0", len(results))
	}
}
