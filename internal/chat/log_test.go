package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johndosdos/roomrelay/internal/model"
)

func message(id, content string) model.Message {
	return model.Message{
		ID:        id,
		User:      "Alice",
		Role:      model.RoleUser,
		Content:   content,
		Timestamp: "2024-01-01T00:00:00Z",
	}
}

func TestLogMergeIdempotent(t *testing.T) {
	once := NewLog()
	once.Merge(message("m1", "hi"))

	twice := NewLog()
	twice.Merge(message("m1", "hi"))
	twice.Merge(message("m1", "hi"))

	assert.Equal(t, once.Snapshot(), twice.Snapshot())
	assert.Equal(t, 1, twice.Len())
}

func TestLogUpdatePreservesPosition(t *testing.T) {
	l := NewLog()
	l.Merge(message("a", "A"))
	l.Merge(message("b", "B"))
	l.Merge(message("c", "C"))

	l.Merge(model.Message{ID: "b", User: "Alice", Role: model.RoleUser, Content: "B'", Color: "#ff0000"})

	got := l.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, logIDs(got))
	assert.Equal(t, "B'", got[1].Content)
	assert.Equal(t, "#ff0000", got[1].Color)
	// The whole entry is replaced, timestamp included.
	assert.Equal(t, "", got[1].Timestamp)
}

func TestLogSnapshotCompleteness(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"one", 1},
		{"many", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLog()
			var want []string
			for i := range tt.n {
				id := string(rune('A'+i%26)) + string(rune('a'+i/26))
				want = append(want, id)
				l.Merge(message(id, "x"))
			}

			got := l.Snapshot()
			assert.Len(t, got, tt.n)
			if tt.n > 0 {
				assert.Equal(t, want, logIDs(got))
			}
		})
	}
}

func TestLogLoad(t *testing.T) {
	l := NewLog()
	l.Merge(message("stale", "gone after load"))

	l.Load([]model.Message{message("a", "A"), message("b", "B")})
	assert.Equal(t, []string{"a", "b"}, logIDs(l.Snapshot()))

	l.Merge(message("a", "A2"))
	l.Merge(message("c", "C"))
	assert.Equal(t, []string{"a", "b", "c"}, logIDs(l.Snapshot()))
	assert.Equal(t, "A2", l.Snapshot()[0].Content)
}

func TestLogSnapshotIsACopy(t *testing.T) {
	l := NewLog()
	l.Merge(message("a", "A"))

	snap := l.Snapshot()
	snap[0].Content = "mutated"

	assert.Equal(t, "A", l.Snapshot()[0].Content)
}

func logIDs(msgs []model.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
