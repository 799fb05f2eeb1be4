package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/johndosdos/roomrelay/internal/model"
	"github.com/johndosdos/roomrelay/sql/schema"
)

const (
	sqliteEnsureRooms = `CREATE TABLE IF NOT EXISTS rooms (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

	sqliteEnsureMessages = `CREATE TABLE IF NOT EXISTS messages (
    room_id TEXT NOT NULL,
    id TEXT NOT NULL,
    "user" TEXT,
    role TEXT,
    content TEXT,
    "timestamp" TEXT,
    color TEXT,
    PRIMARY KEY (room_id, id)
)`

	sqliteAddTimestamp = `ALTER TABLE messages ADD COLUMN "timestamp" TEXT`
	sqliteAddColor     = `ALTER TABLE messages ADD COLUMN color TEXT`

	sqliteCreateRoom = `INSERT INTO rooms (id) VALUES (?) ON CONFLICT (id) DO NOTHING`

	sqliteListMessages = `SELECT
    id,
    COALESCE("user", ''),
    COALESCE(role, ''),
    COALESCE(content, ''),
    COALESCE("timestamp", ?),
    COALESCE(color, '')
FROM messages
WHERE room_id = ?
ORDER BY rowid`

	sqliteUpsertMessage = `INSERT INTO messages (room_id, id, "user", role, content, "timestamp", color)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (room_id, id) DO UPDATE
SET content = excluded.content,
    "timestamp" = excluded."timestamp",
    color = excluded.color`
)

// SQLite stores messages in a local database file through modernc.org/sqlite.
type SQLite struct {
	db *sql.DB

	mu          sync.Mutex
	schemaReady bool
}

// OpenSQLite opens (or creates) the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string, migrate bool) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("internal/store: sqlite path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("internal/store: could not open sqlite db: %w", err)
	}

	// An in-memory database lives and dies with its connection. Files in WAL
	// mode take a pool, with busy_timeout queueing concurrent writers.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("internal/store: could not ping sqlite db: %w", err)
	}

	if migrate {
		if err := Migrate(ctx, db, goose.DialectSQLite3, schema.SQLiteDir); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return NewSQLite(db), nil
}

// NewSQLite wraps an already opened database handle.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Initialize(ctx context.Context, roomID string) error {
	if roomID == "" {
		return ErrEmptyRoom
	}

	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, sqliteCreateRoom, roomID); err != nil {
		return fmt.Errorf("internal/store: failed to register room [%s]: %w", roomID, err)
	}

	return nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schemaReady {
		return nil
	}

	steps := []struct {
		name  string
		query string
	}{
		{"create rooms table", sqliteEnsureRooms},
		{"create messages table", sqliteEnsureMessages},
		{"add timestamp column", sqliteAddTimestamp},
		{"add color column", sqliteAddColor},
	}

	for _, step := range steps {
		if _, err := s.db.ExecContext(ctx, step.query); err != nil && !isSQLiteAlreadyExists(err) {
			return fmt.Errorf("internal/store: failed to %s: %w", step.name, err)
		}
	}

	s.schemaReady = true
	return nil
}

// SQLite reports every schema conflict as a generic SQLITE_ERROR, so the
// message text is all we have to go on.
func isSQLiteAlreadyExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate column name") || strings.Contains(msg, "already exists")
}

func (s *SQLite) LoadAll(ctx context.Context, roomID string) ([]model.Message, error) {
	if roomID == "" {
		return nil, ErrEmptyRoom
	}

	rows, err := s.db.QueryContext(ctx, sqliteListMessages, LegacyTimestamp, roomID)
	if err != nil {
		return nil, fmt.Errorf("internal/store: failed to load messages for room [%s]: %w", roomID, err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.User, &m.Role, &m.Content, &m.Timestamp, &m.Color); err != nil {
			return nil, fmt.Errorf("internal/store: failed to scan message in room [%s]: %w", roomID, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("internal/store: failed to load messages for room [%s]: %w", roomID, err)
	}

	return messages, nil
}

func (s *SQLite) Upsert(ctx context.Context, roomID string, msg model.Message) error {
	if roomID == "" {
		return ErrEmptyRoom
	}
	if msg.ID == "" {
		return ErrEmptyMessageID
	}

	_, err := s.db.ExecContext(ctx, sqliteUpsertMessage,
		roomID,
		msg.ID,
		msg.User,
		msg.Role,
		msg.Content,
		msg.Timestamp,
		msg.Color,
	)
	if err != nil {
		return fmt.Errorf("internal/store: failed to store message [%s] in room [%s]: %w", msg.ID, roomID, err)
	}

	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
