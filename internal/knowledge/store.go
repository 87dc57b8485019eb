// Package knowledge is the sqlite-backed store behind the query-engine
// and knowledge-graph collaborators: indexed content, person entities and
// per-source sync state.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"attache/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	id    TEXT PRIMARY KEY,
	kind  TEXT NOT NULL,
	name  TEXT NOT NULL,
	email TEXT
);
CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);

CREATE TABLE IF NOT EXISTS content (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	source     TEXT NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT,
	person_id  TEXT REFERENCES entities(id),
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_content_person ON content(person_id);
CREATE INDEX IF NOT EXISTS idx_content_type ON content(type);

CREATE TABLE IF NOT EXISTS sync_state (
	source    TEXT PRIMARY KEY,
	last_sync TIMESTAMP NOT NULL
);
`

// Store provides search, person lookup and stats over the indexed data.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the store at the given path and applies the
// schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Search returns content matching the query, newest first, optionally
// filtered by content types and sources.
func (s *Store) Search(ctx context.Context, query string, contentTypes, sources []string, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, type, source, title, COALESCE(body, ''), created_at
		FROM content WHERE (title LIKE ? OR body LIKE ?)`)
	pattern := "%" + query + "%"
	args := []any{pattern, pattern}

	if len(contentTypes) > 0 {
		sb.WriteString(" AND type IN (" + placeholders(len(contentTypes)) + ")")
		for _, t := range contentTypes {
			args = append(args, t)
		}
	}
	if len(sources) > 0 {
		sb.WriteString(" AND source IN (" + placeholders(len(sources)) + ")")
		for _, src := range sources {
			args = append(args, src)
		}
	}
	sb.WriteString(" ORDER BY created_at DESC LIMIT ?")
	args = append(args, topK)

	rows, err := s.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		var body string
		if err := rows.Scan(&r.ID, &r.Type, &r.Source, &r.Title, &body, &r.Created); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		r.Snippet = snippet(body)
		results = append(results, r)
	}
	return results, rows.Err()
}

// FindPerson looks up person entities by name or email.
func (s *Store) FindPerson(ctx context.Context, query string) ([]models.Person, error) {
	pattern := "%" + query + "%"
	rows, err := s.conn.QueryContext(ctx, `SELECT id, name, COALESCE(email, '')
		FROM entities WHERE kind = 'person' AND (name LIKE ? OR email LIKE ?)
		ORDER BY name`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("person query failed: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// PersonActivity returns recent content involving a person, newest first.
func (s *Store) PersonActivity(ctx context.Context, personID string, contentTypes []string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 20
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, type, source, title, created_at
		FROM content WHERE person_id = ?`)
	args := []any{personID}

	if len(contentTypes) > 0 {
		sb.WriteString(" AND type IN (" + placeholders(len(contentTypes)) + ")")
		for _, t := range contentTypes {
			args = append(args, t)
		}
	}
	sb.WriteString(" ORDER BY created_at DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("activity query failed: %w", err)
	}
	defer rows.Close()

	var activity []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.Source, &a.Title, &a.Created); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

// Stats aggregates entity counts by kind, content counts by type and the
// most recent sync time across sources.
func (s *Store) Stats(ctx context.Context) (models.GraphStats, error) {
	stats := models.GraphStats{
		EntityCounts:  make(map[string]int),
		ContentCounts: make(map[string]int),
	}

	rows, err := s.conn.QueryContext(ctx, `SELECT kind, COUNT(*) FROM entities GROUP BY kind`)
	if err != nil {
		return stats, fmt.Errorf("entity stats query failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return stats, err
		}
		stats.EntityCounts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	contentRows, err := s.conn.QueryContext(ctx, `SELECT type, COUNT(*) FROM content GROUP BY type`)
	if err != nil {
		return stats, fmt.Errorf("content stats query failed: %w", err)
	}
	defer contentRows.Close()
	for contentRows.Next() {
		var kind string
		var count int
		if err := contentRows.Scan(&kind, &count); err != nil {
			return stats, err
		}
		stats.ContentCounts[kind] = count
	}
	if err := contentRows.Err(); err != nil {
		return stats, err
	}

	// Selecting the column directly (not MAX) keeps the TIMESTAMP decltype
	// so the driver hands back a time.Time.
	var lastSync sql.NullTime
	err = s.conn.QueryRowContext(ctx,
		`SELECT last_sync FROM sync_state ORDER BY last_sync DESC LIMIT 1`).Scan(&lastSync)
	if err != nil && err != sql.ErrNoRows {
		return stats, fmt.Errorf("sync stats query failed: %w", err)
	}
	if lastSync.Valid {
		stats.LastSync = &lastSync.Time
	}

	return stats, nil
}

// AddPerson inserts a person entity and returns its generated ID.
func (s *Store) AddPerson(ctx context.Context, name, email string) (string, error) {
	id := uuid.NewString()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO entities (id, kind, name, email) VALUES (?, 'person', ?, ?)`,
		id, name, email)
	if err != nil {
		return "", fmt.Errorf("failed to insert person: %w", err)
	}
	return id, nil
}

// AddContent inserts one piece of indexed content and returns its ID.
// personID may be empty when the content involves no known person.
func (s *Store) AddContent(ctx context.Context, contentType, source, title, body, personID string, created time.Time) (string, error) {
	id := uuid.NewString()
	var person any
	if personID != "" {
		person = personID
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO content (id, type, source, title, body, person_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, contentType, source, title, body, person, created)
	if err != nil {
		return "", fmt.Errorf("failed to insert content: %w", err)
	}
	return id, nil
}

// MarkSynced records a source's last successful sync time.
func (s *Store) MarkSynced(ctx context.Context, source string, at time.Time) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sync_state (source, last_sync) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET last_sync = excluded.last_sync`,
		source, at)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func snippet(body string) string {
	const max = 200
	if len(body) <= max {
		return body
	}
	return body[:max] + "…"
}
