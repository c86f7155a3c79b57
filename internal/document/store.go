// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

const dbFile = "lectures.db"

// Store persists outline documents in a local SQLite database. Sections
// are stored as ordered rows with their structured fields JSON-encoded,
// plus an FTS index over section content for search.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the database at cfg.DataDir/lectures.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			target_audience TEXT,
			duration_minutes INTEGER,
			status TEXT,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			type TEXT,
			content TEXT,
			key_points TEXT,
			research TEXT,
			slide_count INTEGER,
			collapsed INTEGER,
			status TEXT,
			follow_up_questions TEXT,
			selected_question_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_document_id ON sections(document_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sections_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sections_fts USING fts5(title, content, content=sections, content_rowid=rowid)`,
			`CREATE TRIGGER sections_ai AFTER INSERT ON sections BEGIN
				INSERT INTO sections_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
			`CREATE TRIGGER sections_ad AFTER DELETE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
			END`,
			`CREATE TRIGGER sections_au AFTER UPDATE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
				INSERT INTO sections_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save writes the document and all its sections in one transaction,
// replacing any previous version.
func (s *Store) Save(ctx context.Context, doc *types.OutlineDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, topic, target_audience, duration_minutes, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			topic=excluded.topic, target_audience=excluded.target_audience,
			duration_minutes=excluded.duration_minutes, status=excluded.status,
			updated_at=excluded.updated_at`,
		doc.ID, doc.Topic, string(doc.TargetAudience), doc.DurationMinutes,
		string(doc.Status),
		doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		doc.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	// Section order lives in the position column; delete and reinsert so
	// reorders and removals never leave stale rows behind.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clearing old sections: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (id, document_id, position, title, type, content, key_points,
			research, slide_count, collapsed, status, follow_up_questions, selected_question_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing section insert: %w", err)
	}
	defer stmt.Close()

	for i, section := range doc.Sections {
		keyPointsJSON, _ := json.Marshal(section.KeyPoints)
		researchJSON, _ := json.Marshal(section.Research)
		questionsJSON, _ := json.Marshal(section.FollowUpQuestions)
		_, err := stmt.ExecContext(ctx,
			section.ID, doc.ID, i, section.Title, string(section.Type),
			section.Content, string(keyPointsJSON), string(researchJSON),
			section.SlideCount, section.Collapsed, string(section.Status),
			string(questionsJSON), section.SelectedQuestionID,
		)
		if err != nil {
			return fmt.Errorf("inserting section %s: %w", section.ID, err)
		}
	}

	return tx.Commit()
}

// Load reads one document and its sections in position order.
func (s *Store) Load(ctx context.Context, id string) (*types.OutlineDocument, error) {
	var doc types.OutlineDocument
	var audience, status, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic, target_audience, duration_minutes, status, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Topic, &audience, &doc.DurationMinutes, &status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no document with ID %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	doc.TargetAudience = types.Audience(audience)
	doc.Status = types.DocumentStatus(status)
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, type, content, key_points, research, slide_count,
			collapsed, status, follow_up_questions, selected_question_id
		 FROM sections WHERE document_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("loading sections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var section types.Section
		var sectionType, sectionStatus, keyPointsJSON, researchJSON, questionsJSON string
		if err := rows.Scan(
			&section.ID, &section.Title, &sectionType, &section.Content,
			&keyPointsJSON, &researchJSON, &section.SlideCount,
			&section.Collapsed, &sectionStatus, &questionsJSON,
			&section.SelectedQuestionID,
		); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		section.Type = types.SectionType(sectionType)
		section.Status = types.SectionStatus(sectionStatus)
		if err := json.Unmarshal([]byte(keyPointsJSON), &section.KeyPoints); err != nil {
			return nil, fmt.Errorf("decoding key points for section %s: %w", section.ID, err)
		}
		if err := json.Unmarshal([]byte(researchJSON), &section.Research); err != nil {
			return nil, fmt.Errorf("decoding research for section %s: %w", section.ID, err)
		}
		if err := json.Unmarshal([]byte(questionsJSON), &section.FollowUpQuestions); err != nil {
			return nil, fmt.Errorf("decoding questions for section %s: %w", section.ID, err)
		}
		doc.Sections = append(doc.Sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sections: %w", err)
	}

	return &doc, nil
}

// Summary is one row of a document listing.
type Summary struct {
	ID           string
	Topic        string
	Audience     types.Audience
	Status       types.DocumentStatus
	SectionCount int
	UpdatedAt    time.Time
}

// List returns summaries of all stored documents, most recently updated
// first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.topic, d.target_audience, d.status, d.updated_at,
			(SELECT count(*) FROM sections WHERE document_id = d.id)
		 FROM documents d ORDER BY d.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var audience, status, updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Topic, &audience, &status, &updatedAt, &sum.SectionCount); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		sum.Audience = types.Audience(audience)
		sum.Status = types.DocumentStatus(status)
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes a document and, through the cascade, its sections.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no document with ID %s", id)
	}
	return nil
}

// SectionHit is one full-text match across stored sections.
type SectionHit struct {
	DocumentID string
	Topic      string
	SectionID  string
	Title      string
	Snippet    string
}

// SearchSections runs an FTS query over section titles and content across
// all documents.
func (s *Store) SearchSections(ctx context.Context, query string) ([]SectionHit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sec.document_id, d.topic, sec.id, sec.title,
			snippet(sections_fts, 1, '[', ']', '...', 12)
		 FROM sections_fts
		 JOIN sections sec ON sec.rowid = sections_fts.rowid
		 JOIN documents d ON d.id = sec.document_id
		 WHERE sections_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching sections: %w", err)
	}
	defer rows.Close()

	var hits []SectionHit
	for rows.Next() {
		var hit SectionHit
		if err := rows.Scan(&hit.DocumentID, &hit.Topic, &hit.SectionID, &hit.Title, &hit.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
