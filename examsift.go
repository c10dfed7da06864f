// Package examsift extracts structured question records from exam-paper
// PDFs. Pages are rendered and classified, parsed by a vision LLM, and
// stitched back together across page boundaries into one ordered question
// list per document.
package examsift

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prasadg/examsift/diagram"
	"github.com/prasadg/examsift/export"
	"github.com/prasadg/examsift/llm"
	"github.com/prasadg/examsift/merge"
	"github.com/prasadg/examsift/parser"
	"github.com/prasadg/examsift/render"
	"github.com/prasadg/examsift/store"
)

// Engine is the main entry point for exam-paper extraction.
type Engine interface {
	// Extract runs the full pipeline on a PDF and returns the merged,
	// validated question list with extraction metadata. Nothing is
	// persisted.
	Extract(ctx context.Context, path string) (*Result, error)

	// Save persists an extraction result under a new upload record and
	// returns the upload ID and the number of questions saved. Without a
	// reachable database it is a no-op returning zero counts.
	Save(ctx context.Context, filename string, result *Result) (int64, int, error)

	// ListQuestions returns stored questions, optionally scoped to one
	// upload (uploadID 0 means all).
	ListQuestions(ctx context.Context, uploadID int64) ([]store.Question, error)

	// GetQuestion returns one stored question by number.
	GetQuestion(ctx context.Context, qno int, uploadID int64) (*store.Question, error)

	// DeleteQuestions removes stored questions for one upload, or all of
	// them when uploadID is 0. Returns the number deleted.
	DeleteQuestions(ctx context.Context, uploadID int64) (int, error)

	// ListUploads returns upload records, most recent first.
	ListUploads(ctx context.Context) ([]store.Upload, error)

	// SearchQuestions runs full-text search over stored question text.
	SearchQuestions(ctx context.Context, query string, limit int) ([]store.SearchResult, error)

	// ExportXLSX writes stored questions as a spreadsheet.
	ExportXLSX(ctx context.Context, w io.Writer, uploadID int64) error

	// Store returns the underlying store, or nil when persistence is
	// unavailable.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// Result is the outcome of extracting one document.
type Result struct {
	Questions []merge.QuestionRecord `json:"questions"`
	Metadata  Metadata               `json:"metadata"`
}

// Metadata summarizes an extraction for observability.
type Metadata struct {
	Pages          int `json:"pages"`
	Sections       int `json:"sections"`
	TotalQuestions int `json:"total_questions"`
	WithAnswers    int `json:"questions_with_answers"`
	WithDiagrams   int `json:"questions_with_diagrams"`
	TextType       int `json:"questions_text_type"`
}

// The pipeline collaborators, narrowed so tests can substitute them.
type documentRenderer interface {
	RenderDocument(ctx context.Context, pdfPath string) ([]render.Region, error)
}

type diagramExtractor interface {
	ExtractDocument(pdfData []byte) map[int][]diagram.Diagram
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg     Config
	store   *store.Store
	render  documentRenderer
	diagram diagramExtractor
	pages   parser.PageParser
	logger  *slog.Logger
}

// New creates an ExamSift engine. A failure to open the database is not
// fatal: extraction still works and store operations become no-ops, the way
// a missing database should not block reading a paper.
func New(cfg Config) (Engine, error) {
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.TempDir == "" {
		cfg.TempDir = "temp"
	}
	if cfg.Layout.MinBlocks == 0 {
		cfg.Layout = DefaultConfig().Layout
	}

	logger := slog.Default()

	visionLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Vision.Provider,
		Model:    cfg.Vision.Model,
		BaseURL:  cfg.Vision.BaseURL,
		APIKey:   cfg.Vision.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vision provider: %w", err)
	}

	var s *store.Store
	if s, err = store.New(cfg.resolveDBPath()); err != nil {
		logger.Warn("database unavailable, running without persistence", "error", err)
		s = nil
	}

	return &engine{
		cfg:     cfg,
		store:   s,
		render:  render.New(cfg.Layout, filepath.Join(cfg.TempDir, "page_images"), cfg.DPI, logger),
		diagram: diagram.New(filepath.Join(cfg.TempDir, "diagrams"), logger),
		pages:   parser.NewVisionPageParser(visionLLM, logger),
		logger:  logger,
	}, nil
}

// Extract runs render, parse, and merge for one document.
func (e *engine) Extract(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	regions, err := e.render.RenderDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	diagrams := e.diagram.ExtractDocument(data)

	e.logger.Info("extract: document rendered",
		"file", filepath.Base(path), "sections", len(regions),
		"elapsed", time.Since(start).Round(time.Millisecond))

	sections := e.parseRegions(ctx, regions)
	e.attachDiagrams(regions, sections, diagrams)

	records := merge.Merge(sections)

	pages := 0
	for _, r := range regions {
		if r.PageNo+1 > pages {
			pages = r.PageNo + 1
		}
	}
	meta := Metadata{
		Pages:          pages,
		Sections:       len(regions),
		TotalQuestions: len(records),
	}
	for _, q := range records {
		if q.Answer != "" {
			meta.WithAnswers++
		}
		if q.Diagram != "" {
			meta.WithDiagrams++
		}
		if q.Type == parser.TypeText {
			meta.TextType++
		}
	}

	e.logger.Info("extract: complete",
		"file", filepath.Base(path),
		"questions", meta.TotalQuestions,
		"answered", meta.WithAnswers,
		"diagrams", meta.WithDiagrams,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return &Result{Questions: records, Metadata: meta}, nil
}

// parseRegions calls the page oracle for every region on a bounded worker
// pool. Results land in region order; the parser contract guarantees every
// slot is filled, so the merge pass never sees a gap.
func (e *engine) parseRegions(ctx context.Context, regions []render.Region) []*parser.PageSection {
	sections := make([]*parser.PageSection, len(regions))

	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup
	for i := range regions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			sections[i] = e.pages.Parse(ctx, regions[i].ImagePath, regions[i].Layout)
		}(i)
	}
	wg.Wait()

	return sections
}

// attachDiagrams assigns each page's extracted diagrams to the first region
// on that page that parsed any questions. Diagram positions within the page
// are not known, so the split of a two-column page cannot be told apart;
// attaching to the leading region keeps assignment deterministic.
func (e *engine) attachDiagrams(regions []render.Region, sections []*parser.PageSection, diagrams map[int][]diagram.Diagram) {
	attached := make(map[int]bool)
	for i, region := range regions {
		if attached[region.PageNo] {
			continue
		}
		ds := diagrams[region.PageNo]
		if len(ds) == 0 || sections[i] == nil || len(sections[i].Questions) == 0 {
			continue
		}
		paths := make([]string, len(ds))
		for j, d := range ds {
			paths[j] = d.Path
		}
		merge.AttachDiagrams(sections[i].Questions, paths)
		attached[region.PageNo] = true
	}
}

// Save persists the result as a new upload.
func (e *engine) Save(ctx context.Context, filename string, result *Result) (int64, int, error) {
	if result == nil || len(result.Questions) == 0 {
		return 0, 0, ErrNoQuestions
	}
	if e.store == nil {
		return 0, 0, nil
	}

	uploadID, err := e.store.SaveUpload(ctx, store.Upload{
		Filename:       filename,
		TotalQuestions: result.Metadata.TotalQuestions,
		WithAnswers:    result.Metadata.WithAnswers,
		WithDiagrams:   result.Metadata.WithDiagrams,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("saving upload: %w", err)
	}

	questions := make([]store.Question, len(result.Questions))
	for i, q := range result.Questions {
		questions[i] = store.Question{
			Qno:      q.Qno,
			Type:     string(q.Type),
			Question: q.QuestionText,
			List1:    q.List1,
			List2:    q.List2,
			Options:  q.Options,
			Answer:   q.Answer,
			Diagram:  q.Diagram,
		}
	}

	saved, err := e.store.SaveQuestions(ctx, uploadID, questions)
	if err != nil {
		return 0, 0, fmt.Errorf("saving questions: %w", err)
	}
	return uploadID, saved, nil
}

func (e *engine) ListQuestions(ctx context.Context, uploadID int64) ([]store.Question, error) {
	if e.store == nil {
		return []store.Question{}, nil
	}
	return e.store.ListQuestions(ctx, uploadID)
}

func (e *engine) GetQuestion(ctx context.Context, qno int, uploadID int64) (*store.Question, error) {
	if e.store == nil {
		return nil, ErrQuestionNotFound
	}
	q, err := e.store.GetQuestionByQno(ctx, qno, uploadID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}

func (e *engine) DeleteQuestions(ctx context.Context, uploadID int64) (int, error) {
	if e.store == nil {
		return 0, nil
	}
	return e.store.DeleteQuestions(ctx, uploadID)
}

func (e *engine) ListUploads(ctx context.Context) ([]store.Upload, error) {
	if e.store == nil {
		return []store.Upload{}, nil
	}
	return e.store.ListUploads(ctx)
}

func (e *engine) SearchQuestions(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	if e.store == nil {
		return []store.SearchResult{}, nil
	}
	return e.store.SearchQuestions(ctx, query, limit)
}

// ExportXLSX writes the stored question set for an upload (or all uploads
// when uploadID is 0) as a spreadsheet.
func (e *engine) ExportXLSX(ctx context.Context, w io.Writer, uploadID int64) error {
	questions, err := e.ListQuestions(ctx, uploadID)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, questions)
}

// Store returns the underlying store for diagnostic access.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}
