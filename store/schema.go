package store

// schemaSQL is the DDL for all tables. Questions are scoped to the upload
// that produced them; deleting an upload cascades to its questions.
const schemaSQL = `
-- One row per processed exam paper
CREATE TABLE IF NOT EXISTS uploads (
    id INTEGER PRIMARY KEY,
    filename TEXT NOT NULL,
    total_questions INTEGER DEFAULT 0,
    with_answers INTEGER DEFAULT 0,
    with_diagrams INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Extracted question records
CREATE TABLE IF NOT EXISTS questions (
    id INTEGER PRIMARY KEY,
    upload_id INTEGER NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
    qno INTEGER NOT NULL,
    type TEXT NOT NULL DEFAULT 'mcq',
    question TEXT NOT NULL,
    list1 JSON,
    list2 JSON,
    options JSON,
    answer TEXT,
    diagram TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Full-text search over question text via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS questions_fts USING fts5(
    question,
    content='questions',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- FTS triggers to keep index in sync
CREATE TRIGGER IF NOT EXISTS questions_ai AFTER INSERT ON questions BEGIN
    INSERT INTO questions_fts(rowid, question) VALUES (new.id, new.question);
END;
CREATE TRIGGER IF NOT EXISTS questions_ad AFTER DELETE ON questions BEGIN
    INSERT INTO questions_fts(questions_fts, rowid, question) VALUES ('delete', old.id, old.question);
END;
CREATE TRIGGER IF NOT EXISTS questions_au AFTER UPDATE ON questions BEGIN
    INSERT INTO questions_fts(questions_fts, rowid, question) VALUES ('delete', old.id, old.question);
    INSERT INTO questions_fts(rowid, question) VALUES (new.id, new.question);
END;

-- Indexes
CREATE INDEX IF NOT EXISTS idx_questions_upload ON questions(upload_id);
CREATE INDEX IF NOT EXISTS idx_questions_qno ON questions(qno);
CREATE INDEX IF NOT EXISTS idx_uploads_created ON uploads(created_at);
`
