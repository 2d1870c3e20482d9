package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mindtek/leadchat/domain"
)

// SQLiteStore implements Store using SQLite. Each session is one row with
// its message history encoded as a JSON array.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			session_id TEXT PRIMARY KEY,
			messages TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			customer_analysis TEXT,
			analysis_timestamp DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSession retrieves a session by ID, or nil if it does not exist.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, messages, created_at, updated_at, customer_analysis, analysis_timestamp
		 FROM conversations WHERE session_id = ?`, sessionID)

	session, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// SaveSession upserts a session by its ID.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *domain.Session) error {
	messages, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, messages, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET messages = excluded.messages, updated_at = excluded.updated_at`,
		session.SessionID, string(messages), session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession removes a session. Absence of the record is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions returns all sessions ordered by creation time, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, messages, created_at, updated_at, customer_analysis, analysis_timestamp
		 FROM conversations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// CountSessions returns the number of stored sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// AttachProfile stores an analysis result on an existing session.
func (s *SQLiteStore) AttachProfile(ctx context.Context, sessionID string, profile *domain.CustomerProfile, analyzedAt time.Time) error {
	analysis, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE conversations SET customer_analysis = ?, analysis_timestamp = ? WHERE session_id = ?`,
		string(analysis), analyzedAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to attach analysis: %w", err)
	}
	return nil
}

// scanSession decodes one conversations row via the given Scan function.
func scanSession(scan func(dest ...interface{}) error) (*domain.Session, error) {
	var session domain.Session
	var messages string
	var analysis sql.NullString
	var analyzedAt sql.NullTime

	if err := scan(&session.SessionID, &messages, &session.CreatedAt, &session.UpdatedAt, &analysis, &analyzedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(messages), &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	if analysis.Valid {
		var profile domain.CustomerProfile
		if err := json.Unmarshal([]byte(analysis.String), &profile); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
		session.Analysis = &profile
	}
	if analyzedAt.Valid {
		session.AnalyzedAt = &analyzedAt.Time
	}
	return &session, nil
}
