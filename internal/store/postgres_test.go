package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/roomrelay/internal/model"
	"github.com/johndosdos/roomrelay/internal/testutil"
)

func TestPostgresStore(t *testing.T) {
	pool, _ := testutil.DbInit(t)
	s := NewPostgres(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, s.Initialize(ctx, "r1"))
	require.NoError(t, s.Initialize(ctx, "r1"))

	t.Run("upsert keeps position and first author", func(t *testing.T) {
		require.NoError(t, s.Upsert(ctx, "r1", msg("a", "first")))
		require.NoError(t, s.Upsert(ctx, "r1", msg("b", "second")))
		require.NoError(t, s.Upsert(ctx, "r1", model.Message{
			ID: "a", User: "Mallory", Role: "bot", Content: "first!", Timestamp: "2024-01-03T00:00:00Z", Color: "#000000",
		}))

		got, err := s.LoadAll(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(got))
		assert.Equal(t, "Alice", got[0].User)
		assert.Equal(t, model.RoleUser, got[0].Role)
		assert.Equal(t, "first!", got[0].Content)
		assert.Equal(t, "#000000", got[0].Color)
	})

	t.Run("legacy rows", func(t *testing.T) {
		_, err := pool.Exec(ctx, `INSERT INTO messages (room_id, id, "user", role, content) VALUES ('r2', 'old', 'Bob', 'user', 'legacy')`)
		require.NoError(t, err)

		got, err := s.LoadAll(ctx, "r2")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, LegacyTimestamp, got[0].Timestamp)
		assert.Equal(t, "", got[0].Color)
	})

	t.Run("schema evolution on an old table", func(t *testing.T) {
		_, err := pool.Exec(ctx, `ALTER TABLE messages DROP COLUMN color`)
		require.NoError(t, err)

		fresh := NewPostgres(pool)
		require.NoError(t, fresh.Initialize(ctx, "r3"))
		require.NoError(t, fresh.Initialize(ctx, "r3"))

		got, err := fresh.LoadAll(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(got))
		assert.Equal(t, "", got[0].Color)
	})
}
