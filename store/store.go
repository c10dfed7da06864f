// Package store persists extracted questions and upload metadata in SQLite,
// with FTS5 full-text search over question text.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Upload represents a row in the uploads table.
type Upload struct {
	ID             int64  `json:"id"`
	Filename       string `json:"filename"`
	TotalQuestions int    `json:"total_questions"`
	WithAnswers    int    `json:"with_answers"`
	WithDiagrams   int    `json:"with_diagrams"`
	CreatedAt      string `json:"created_at"`
}

// Question represents a row in the questions table. The list and option
// collections are stored as JSON columns.
type Question struct {
	ID       int64             `json:"id"`
	UploadID int64             `json:"upload_id"`
	Qno      int               `json:"qno"`
	Type     string            `json:"type"`
	Question string            `json:"question"`
	List1    []string          `json:"list1"`
	List2    []string          `json:"list2"`
	Options  map[string]string `json:"options"`
	Answer   string            `json:"answer,omitempty"`
	Diagram  string            `json:"diagram,omitempty"`
}

// SearchResult is a question matched by full-text search, with its BM25
// rank (lower is better).
type SearchResult struct {
	Question
	Rank float64 `json:"rank"`
}

// Store wraps the SQLite database for all examsift persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including the FTS5 virtual table.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Upload operations ---

// SaveUpload inserts an upload record and returns its generated ID.
func (s *Store) SaveUpload(ctx context.Context, u Upload) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (filename, total_questions, with_answers, with_diagrams)
		VALUES (?, ?, ?, ?)
	`, u.Filename, u.TotalQuestions, u.WithAnswers, u.WithDiagrams)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListUploads returns all upload records, most recent first.
func (s *Store) ListUploads(ctx context.Context) ([]Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, total_questions, with_answers, with_diagrams, created_at
		FROM uploads ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.Filename, &u.TotalQuestions,
			&u.WithAnswers, &u.WithDiagrams, &u.CreatedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// GetUpload retrieves one upload by ID. Returns nil if not found.
func (s *Store) GetUpload(ctx context.Context, id int64) (*Upload, error) {
	u := &Upload{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, total_questions, with_answers, with_diagrams, created_at
		FROM uploads WHERE id = ?
	`, id).Scan(&u.ID, &u.Filename, &u.TotalQuestions, &u.WithAnswers, &u.WithDiagrams, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// --- Question operations ---

// SaveQuestions inserts a batch of questions under one upload inside a
// single transaction. Returns the number of rows inserted.
func (s *Store) SaveQuestions(ctx context.Context, uploadID int64, questions []Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	count := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO questions (upload_id, qno, type, question, list1, list2, options, answer, diagram)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, q := range questions {
			list1, err := json.Marshal(q.List1)
			if err != nil {
				return fmt.Errorf("marshaling list1 for qno %d: %w", q.Qno, err)
			}
			list2, err := json.Marshal(q.List2)
			if err != nil {
				return fmt.Errorf("marshaling list2 for qno %d: %w", q.Qno, err)
			}
			options, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("marshaling options for qno %d: %w", q.Qno, err)
			}

			if _, err := stmt.ExecContext(ctx, uploadID, q.Qno, q.Type, q.Question,
				string(list1), string(list2), string(options),
				nullable(q.Answer), nullable(q.Diagram)); err != nil {
				return fmt.Errorf("inserting qno %d: %w", q.Qno, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

const questionColumns = `id, upload_id, qno, type, question, list1, list2, options, answer, diagram`

// ListQuestions returns questions ordered by qno. A zero uploadID returns
// questions from every upload.
func (s *Store) ListQuestions(ctx context.Context, uploadID int64) ([]Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions`
	args := []any{}
	if uploadID != 0 {
		query += ` WHERE upload_id = ?`
		args = append(args, uploadID)
	}
	query += ` ORDER BY qno ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// GetQuestionByQno returns one question by number, optionally scoped to an
// upload. Returns nil if not found.
func (s *Store) GetQuestionByQno(ctx context.Context, qno int, uploadID int64) (*Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE qno = ?`
	args := []any{qno}
	if uploadID != 0 {
		query += ` AND upload_id = ?`
		args = append(args, uploadID)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}
	return &questions[0], nil
}

// DeleteQuestions removes questions (FTS cleanup runs via triggers). A zero
// uploadID deletes every question and upload record; otherwise only the
// given upload is removed. Returns the number of questions deleted.
func (s *Store) DeleteQuestions(ctx context.Context, uploadID int64) (int, error) {
	var deleted int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		if uploadID != 0 {
			res, err = tx.ExecContext(ctx, "DELETE FROM questions WHERE upload_id = ?", uploadID)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM uploads WHERE id = ?", uploadID); err != nil {
				return err
			}
		} else {
			res, err = tx.ExecContext(ctx, "DELETE FROM questions")
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM uploads"); err != nil {
				return err
			}
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// SearchQuestions performs full-text search over question text.
func (s *Store) SearchQuestions(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.upload_id, q.qno, q.type, q.question, q.list1, q.list2,
		       q.options, q.answer, q.diagram, f.rank
		FROM questions_fts f
		JOIN questions q ON q.id = f.rowid
		WHERE questions_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var list1, list2, options sql.NullString
		var answer, diagram sql.NullString
		if err := rows.Scan(&r.ID, &r.UploadID, &r.Qno, &r.Type, &r.Question,
			&list1, &list2, &options, &answer, &diagram, &r.Rank); err != nil {
			return nil, err
		}
		if err := unmarshalCollections(&r.Question.List1, &r.Question.List2, &r.Question.Options,
			list1, list2, options); err != nil {
			return nil, err
		}
		r.Answer = answer.String
		r.Diagram = diagram.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- helpers ---

func scanQuestions(rows *sql.Rows) ([]Question, error) {
	var questions []Question
	for rows.Next() {
		var q Question
		var list1, list2, options, answer, diagram sql.NullString
		if err := rows.Scan(&q.ID, &q.UploadID, &q.Qno, &q.Type, &q.Question,
			&list1, &list2, &options, &answer, &diagram); err != nil {
			return nil, err
		}
		if err := unmarshalCollections(&q.List1, &q.List2, &q.Options, list1, list2, options); err != nil {
			return nil, err
		}
		q.Answer = answer.String
		q.Diagram = diagram.String
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func unmarshalCollections(l1 *[]string, l2 *[]string, opts *map[string]string, list1, list2, options sql.NullString) error {
	*l1 = []string{}
	*l2 = []string{}
	*opts = map[string]string{}
	if list1.Valid && list1.String != "" {
		if err := json.Unmarshal([]byte(list1.String), l1); err != nil {
			return fmt.Errorf("decoding list1: %w", err)
		}
	}
	if list2.Valid && list2.String != "" {
		if err := json.Unmarshal([]byte(list2.String), l2); err != nil {
			return fmt.Errorf("decoding list2: %w", err)
		}
	}
	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), opts); err != nil {
			return fmt.Errorf("decoding options: %w", err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
