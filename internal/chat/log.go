package chat

import "github.com/johndosdos/roomrelay/internal/model"

// Log is the in-memory, ordered copy of one room's messages. Order is the
// order in which each id was first seen. A Log is owned by a single Room
// goroutine and is not safe for concurrent use.
type Log struct {
	messages []model.Message
	index    map[string]int
}

func NewLog() *Log {
	return &Log{index: make(map[string]int)}
}

// Load replaces the log contents with snapshot.
func (l *Log) Load(snapshot []model.Message) {
	l.messages = make([]model.Message, 0, len(snapshot))
	l.index = make(map[string]int, len(snapshot))
	for _, m := range snapshot {
		l.Merge(m)
	}
}

// Merge appends m if its id is new, otherwise replaces the existing entry
// in place.
func (l *Log) Merge(m model.Message) {
	if i, ok := l.index[m.ID]; ok {
		l.messages[i] = m
		return
	}
	l.index[m.ID] = len(l.messages)
	l.messages = append(l.messages, m)
}

// Snapshot returns a copy of the log in order.
func (l *Log) Snapshot() []model.Message {
	out := make([]model.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	return len(l.messages)
}
