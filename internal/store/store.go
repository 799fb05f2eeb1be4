// Package store persists room message logs. Every room is a namespace inside
// one messages table, keyed by (room_id, id).
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/johndosdos/roomrelay/internal/model"
)

// LegacyTimestamp is reported for rows written before messages carried a
// timestamp. It is constant so reloading a room always yields the same log.
const LegacyTimestamp = "1970-01-01T00:00:00.000Z"

var (
	ErrEmptyRoom      = errors.New("internal/store: room id is empty")
	ErrEmptyMessageID = errors.New("internal/store: message id is empty")
)

// Store is the durable message table behind every room.
type Store interface {
	// Initialize makes sure the schema exists and registers the room. It is
	// safe to call any number of times, including against tables created by
	// older versions.
	Initialize(ctx context.Context, roomID string) error

	// LoadAll returns the room's messages in insertion order.
	LoadAll(ctx context.Context, roomID string) ([]model.Message, error)

	// Upsert inserts msg, or replaces content, timestamp and color of the
	// row that already has its id. User and role keep their first value.
	Upsert(ctx context.Context, roomID string, msg model.Message) error

	Close() error
}

// Open picks a backend from the DSN: postgres URLs use pgx, anything else is
// treated as a SQLite database path.
func Open(ctx context.Context, dsn string, migrate bool) (Store, error) {
	if isPostgresDSN(dsn) {
		pg, err := OpenPostgres(ctx, dsn, migrate)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}

	lite, err := OpenSQLite(ctx, dsn, migrate)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
