package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/johndosdos/roomrelay/internal/database"
	"github.com/johndosdos/roomrelay/internal/model"
	"github.com/johndosdos/roomrelay/sql/schema"
)

// Postgres error codes that mean the schema object is already there.
const (
	pgDuplicateColumn = "42701"
	pgDuplicateTable  = "42P07"
	// Concurrent CREATE TABLE IF NOT EXISTS may race on the catalog.
	pgUniqueViolation = "23505"
)

// Postgres stores messages through pgx.
type Postgres struct {
	pool *pgxpool.Pool
	db   *database.Queries

	mu          sync.Mutex
	schemaReady bool
}

// OpenPostgres connects to dsn and, if migrate is set, applies migrations.
func OpenPostgres(ctx context.Context, dsn string, migrate bool) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("internal/store: could not connect to the postgresql database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("internal/store: could not ping the postgresql database: %w", err)
	}

	if migrate {
		sqlDB := stdlib.OpenDBFromPool(pool)
		err := Migrate(ctx, sqlDB, goose.DialectPostgres, schema.PostgresDir)
		sqlDB.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	return NewPostgres(pool), nil
}

// NewPostgres wraps an existing pool. The caller keeps ownership of the pool
// unless it calls Close.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		db:   database.New(pool),
	}
}

func (s *Postgres) Initialize(ctx context.Context, roomID string) error {
	if roomID == "" {
		return ErrEmptyRoom
	}

	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	if err := s.db.CreateRoom(ctx, roomID); err != nil {
		return fmt.Errorf("internal/store: failed to register room [%s]: %w", roomID, err)
	}

	return nil
}

// ensureSchema runs the schema statements once per process. Tables created
// before timestamp and color existed get the columns added in place.
func (s *Postgres) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schemaReady {
		return nil
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"create rooms table", s.db.EnsureRoomsTable},
		{"create messages table", s.db.EnsureMessagesTable},
		{"add timestamp column", s.db.AddTimestampColumn},
		{"add color column", s.db.AddColorColumn},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil && !isPgAlreadyExists(err) {
			return fmt.Errorf("internal/store: failed to %s: %w", step.name, err)
		}
	}

	s.schemaReady = true
	return nil
}

func isPgAlreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgDuplicateColumn, pgDuplicateTable, pgUniqueViolation:
		return true
	}
	return false
}

func (s *Postgres) LoadAll(ctx context.Context, roomID string) ([]model.Message, error) {
	if roomID == "" {
		return nil, ErrEmptyRoom
	}

	rows, err := s.db.ListMessages(ctx, database.ListMessagesParams{
		LegacyTimestamp: LegacyTimestamp,
		RoomID:          roomID,
	})
	if err != nil {
		return nil, fmt.Errorf("internal/store: failed to load messages for room [%s]: %w", roomID, err)
	}

	messages := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, model.Message{
			ID:        row.ID,
			User:      row.User,
			Role:      row.Role,
			Content:   row.Content,
			Timestamp: row.Timestamp,
			Color:     row.Color,
		})
	}

	return messages, nil
}

func (s *Postgres) Upsert(ctx context.Context, roomID string, msg model.Message) error {
	if roomID == "" {
		return ErrEmptyRoom
	}
	if msg.ID == "" {
		return ErrEmptyMessageID
	}

	err := s.db.UpsertMessage(ctx, database.UpsertMessageParams{
		RoomID:    roomID,
		ID:        msg.ID,
		User:      pgtype.Text{String: msg.User, Valid: true},
		Role:      pgtype.Text{String: msg.Role, Valid: true},
		Content:   pgtype.Text{String: msg.Content, Valid: true},
		Timestamp: pgtype.Text{String: msg.Timestamp, Valid: true},
		Color:     pgtype.Text{String: msg.Color, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("internal/store: failed to store message [%s] in room [%s]: %w", msg.ID, roomID, err)
	}

	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
