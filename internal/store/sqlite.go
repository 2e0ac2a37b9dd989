// Package store persists growth state, the processed-message set and
// per-session chat analytics in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"streamnova/internal/domain"
)

// SQLiteStore implements domain.PersistentStore on a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// SQLite wants a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS growth_state (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		doc         TEXT NOT NULL,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS processed_messages (
		message_id  TEXT PRIMARY KEY,
		seen_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		video_id    TEXT NOT NULL,
		started_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		ended_at    DATETIME
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		message_id   TEXT NOT NULL,
		author       TEXT NOT NULL,
		text         TEXT,
		is_moderator INTEGER DEFAULT 0,
		received_at  DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_chat_session ON chat_messages(session_id, received_at);

	CREATE TABLE IF NOT EXISTS command_runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		command     TEXT NOT NULL,
		ok          INTEGER DEFAULT 1,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS viewer_samples (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		viewers     INTEGER,
		likes       INTEGER,
		subs        INTEGER,
		sampled_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_samples_session ON viewer_samples(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) LoadGrowth(ctx context.Context) (*domain.GrowthSnapshot, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM growth_state WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.GrowthSnapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return nil, fmt.Errorf("corrupt growth state: %w", err)
	}
	return &snap, nil
}

func (s *SQLiteStore) SaveGrowth(ctx context.Context, snap domain.GrowthSnapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO growth_state (id, doc, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		string(doc), time.Now())
	return err
}

func (s *SQLiteStore) LoadProcessedIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT message_id FROM processed_messages`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) MarkProcessed(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_messages (message_id) VALUES (?)`, messageID)
	return err
}

func (s *SQLiteStore) StartSession(ctx context.Context, videoID string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, video_id, started_at) VALUES (?, ?, ?)`,
		id, videoID, time.Now())
	if err != nil {
		return "", err
	}
	s.logger.Info("analytics session started", "session_id", id, "video_id", videoID)
	return id, nil
}

func (s *SQLiteStore) EndSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		time.Now(), sessionID)
	return err
}

func (s *SQLiteStore) RecordChatMessage(ctx context.Context, sessionID string, msg domain.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, message_id, author, text, is_moderator, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, msg.ID, msg.Author, msg.Text, boolToInt(msg.IsModerator), msg.ReceivedAt)
	return err
}

func (s *SQLiteStore) RecordCommand(ctx context.Context, sessionID, command string, ok bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_runs (session_id, command, ok) VALUES (?, ?, ?)`,
		sessionID, command, boolToInt(ok))
	return err
}

func (s *SQLiteStore) RecordViewerSample(ctx context.Context, sessionID string, stats domain.StreamStats) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO viewer_samples (session_id, viewers, likes, subs) VALUES (?, ?, ?, ?)`,
		sessionID, stats.Viewers, stats.Likes, stats.Subs)
	return err
}

func (s *SQLiteStore) SessionReport(ctx context.Context, sessionID string) (*domain.SessionReport, error) {
	report := &domain.SessionReport{SessionID: sessionID}

	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT video_id, started_at, ended_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&report.VideoID, &report.StartedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		report.EndedAt = &endedAt.Time
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT author) FROM chat_messages WHERE session_id = ?`, sessionID,
	).Scan(&report.Messages, &report.Chatters)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(viewers), 0) FROM viewer_samples WHERE session_id = ?`, sessionID,
	).Scan(&report.PeakViewers)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM command_runs WHERE session_id = ?`, sessionID,
	).Scan(&report.CommandRuns)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT author, COUNT(*) AS n FROM chat_messages
		 WHERE session_id = ?
		 GROUP BY author ORDER BY n DESC, author ASC LIMIT 5`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tc domain.ChatterCount
		if err := rows.Scan(&tc.Author, &tc.Messages); err != nil {
			return nil, err
		}
		report.TopChatters = append(report.TopChatters, tc)
	}
	return report, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
