// Package store is the SQLite-backed translation memory: a segment-level
// cache keyed by normalized source text and language pair, the terminology
// glossary, and an audit trail of translation runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS segment_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		target_text TEXT NOT NULL,
		service_used TEXT,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, source_term)
	);

	-- runs records each translate invocation for audit
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		batches_dir TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		service TEXT NOT NULL,
		batches_done INTEGER DEFAULT 0,
		batches_failed INTEGER DEFAULT 0,
		segments_done INTEGER DEFAULT 0,
		status TEXT DEFAULT 'running',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON segment_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_glossary_lookup ON glossary(source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetCachedSegment returns the remembered translation for a segment's source
// text and language pair, bumping the usage counter on a hit.
func (s *Store) GetCachedSegment(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	var targetText string

	err := s.db.QueryRowContext(ctx,
		`SELECT target_text FROM segment_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		normalizeText(sourceText), sourceLang, targetLang).Scan(&targetText)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE segment_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), normalizeText(sourceText), sourceLang, targetLang)

	return targetText, true, err
}

// SaveSegment inserts or replaces a remembered segment translation.
func (s *Store) SaveSegment(ctx context.Context, sourceText, sourceLang, targetLang, targetText, serviceUsed string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO segment_memory (id, source_text, source_lang, target_lang, target_text, service_used, usage_count, last_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		uuid.New().String(), normalizeText(sourceText), sourceLang, targetLang, targetText, serviceUsed, time.Now(), time.Now())
	return err
}

// ClearMemory removes all remembered segment translations.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM segment_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CacheStats summarises segment memory usage.
type CacheStats struct {
	TotalEntries int
	TotalUsage   int
	Pairs        int
}

// Stats returns summary statistics for the segment memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(usage_count), 0),
			COUNT(DISTINCT source_lang || '→' || target_lang)
		FROM segment_memory`).Scan(
		&stats.TotalEntries,
		&stats.TotalUsage,
		&stats.Pairs,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GlossaryEntry is one terminology mapping.
type GlossaryEntry struct {
	ID         string
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
	CreatedAt  time.Time
}

// AddGlossaryTerm inserts or replaces a glossary entry.
func (s *Store) AddGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO glossary (id, source_lang, target_lang, source_term, target_term)
		 VALUES (?, ?, ?, ?, ?)`,
		"gl_"+uuid.New().String(), sourceLang, targetLang, sourceTerm, targetTerm)
	return err
}

// GlossaryMap returns all glossary terms for a language pair as a
// source-term → target-term map, ready to embed in a translation prompt.
func (s *Store) GlossaryMap(ctx context.Context, sourceLang, targetLang string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term FROM glossary WHERE source_lang = ? AND target_lang = ?`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make(map[string]string)
	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return nil, err
		}
		terms[src] = tgt
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns all glossary entries, optionally filtered by
// language pair (pass empty strings to return everything).
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryEntry, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term, created_at FROM glossary`
	var args []interface{}

	switch {
	case sourceLang != "" && targetLang != "":
		query += ` WHERE source_lang = ? AND target_lang = ?`
		args = append(args, sourceLang, targetLang)
	case sourceLang != "":
		query += ` WHERE source_lang = ?`
		args = append(args, sourceLang)
	case targetLang != "":
		query += ` WHERE target_lang = ?`
		args = append(args, targetLang)
	}
	query += ` ORDER BY source_lang, target_lang, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ?`, id)
	return err
}

// CreateRun records the start of a translate invocation and returns its ID.
func (s *Store) CreateRun(ctx context.Context, batchesDir, outputDir, sourceLang, targetLang, service string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, batches_dir, output_dir, source_lang, target_lang, service) VALUES (?, ?, ?, ?, ?, ?)`,
		id, batchesDir, outputDir, sourceLang, targetLang, service)
	return id, err
}

// FinishRun records a run's outcome counts.
func (s *Store) FinishRun(ctx context.Context, id string, done, failed, segments int) error {
	status := "completed"
	if failed > 0 {
		status = "partial"
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET batches_done = ?, batches_failed = ?, segments_done = ?, status = ?, finished_at = ? WHERE id = ?`,
		done, failed, segments, status, time.Now(), id)
	return err
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
