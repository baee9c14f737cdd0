package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// createdAtLayout is fixed width so created_at sorts chronologically as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is the SQLite-backed transcript store.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at dbPath,
// applies pragmas and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("transcript store opened",
		"component", "transcript",
		"action", "store_opened",
		"path", dbPath,
	)

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Append stores e, assigning its ID and timestamp.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) (*Entry, error) {
	if e.SessionID == "" || e.Kind == "" {
		return nil, fmt.Errorf("%w: session_id and kind are required", ErrInvalidEntry)
	}

	e.ID = ulid.Make().String()
	e.CreatedAt = s.now().UTC()

	clues := e.NewClues
	if clues == nil {
		clues = []string{}
	}
	cluesJSON, err := json.Marshal(clues)
	if err != nil {
		return nil, fmt.Errorf("encode new clues: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcript_turns (id, session_id, episode, kind, input, response, verdict, new_clues, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SessionID, e.Episode, string(e.Kind), e.Input, e.Response, e.Verdict, string(cluesJSON),
		e.CreatedAt.Format(createdAtLayout))
	if err != nil {
		return nil, fmt.Errorf("insert transcript entry: %w", err)
	}

	return &e, nil
}

// List returns a session's entries oldest first. An unknown session yields
// an empty slice.
func (s *SQLiteStore) List(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, episode, kind, input, response, verdict, new_clues, created_at
		FROM transcript_turns
		WHERE session_id = ?
		ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteSession removes every entry recorded for sessionID.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transcript_turns WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete transcript: %w", err)
	}
	return res.RowsAffected()
}

// Snapshot writes a consistent copy of the database to dest, replacing any
// previous snapshot there.
func (s *SQLiteStore) Snapshot(ctx context.Context, dest string) error {
	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	// VACUUM INTO refuses to overwrite an existing file.
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove previous snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEntry(scanner interface{ Scan(...any) error }) (*Entry, error) {
	var e Entry
	var kind, cluesJSON, createdAt string

	err := scanner.Scan(
		&e.ID,
		&e.SessionID,
		&e.Episode,
		&kind,
		&e.Input,
		&e.Response,
		&e.Verdict,
		&cluesJSON,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan transcript entry: %w", err)
	}
	e.Kind = Kind(kind)

	if err := json.Unmarshal([]byte(cluesJSON), &e.NewClues); err != nil {
		return nil, fmt.Errorf("parse new_clues JSON: %w", err)
	}
	if len(e.NewClues) == 0 {
		e.NewClues = nil
	}

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		e.CreatedAt = t
	}

	return &e, nil
}
