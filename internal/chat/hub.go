package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/johndosdos/roomrelay/internal/store"
)

// Options tunes every room the hub creates.
type Options struct {
	// PersistTimeout bounds each storage call made by a room.
	PersistTimeout time.Duration
	// InboxSize is the number of requests a room buffers.
	InboxSize int
}

func (o Options) withDefaults() Options {
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 5 * time.Second
	}
	if o.InboxSize <= 0 {
		o.InboxSize = 256
	}
	return o
}

type roomEntry struct {
	room *Room
	refs int
}

// Hub owns the live rooms. A room is created on first Acquire and stopped
// when the last holder releases it; the next Acquire reloads it from storage.
type Hub struct {
	store store.Store
	opts  Options

	mu    sync.Mutex
	rooms map[string]*roomEntry
	// Rooms that were released but may still be writing.
	draining map[string]<-chan struct{}

	// running counts room goroutines; idle is closed each time it drops to
	// zero and replaced when the next room starts.
	running int
	idle    chan struct{}
}

// NewHub returns a new instance of Hub.
func NewHub(st store.Store, opts Options) *Hub {
	idle := make(chan struct{})
	close(idle)

	return &Hub{
		store:    st,
		opts:     opts.withDefaults(),
		rooms:    make(map[string]*roomEntry),
		draining: make(map[string]<-chan struct{}),
		idle:     idle,
	}
}

// Acquire returns the room for id, creating it if needed. Every Acquire must
// be paired with a Release once the caller stops talking to the room.
func (h *Hub) Acquire(id string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.rooms[id]
	if !ok {
		room := newRoom(id, h.store, h.draining[id], h.opts)
		e = &roomEntry{room: room}
		h.rooms[id] = e

		if h.running == 0 {
			h.idle = make(chan struct{})
		}
		h.running++

		go func() {
			room.run()
			h.forget(room)
		}()
	}

	e.refs++
	return e.room
}

// Release drops one reference to room. The last release stops the room after
// it has worked through its queue.
func (h *Hub) Release(room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.rooms[room.id]
	if !ok || e.room != room {
		return
	}

	e.refs--
	if e.refs > 0 {
		return
	}

	delete(h.rooms, room.id)
	h.draining[room.id] = room.done
	close(room.inbox)

	slog.Info("room released", "room", room.id)
}

func (h *Hub) forget(room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.draining[room.id] == room.Done() {
		delete(h.draining, room.id)
	}

	h.running--
	if h.running == 0 {
		close(h.idle)
	}
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Wait blocks until no room is running or ctx is done. It may be called
// while rooms are still being acquired; a room started before the last one
// stops extends the wait.
func (h *Hub) Wait(ctx context.Context) error {
	for {
		h.mu.Lock()
		if h.running == 0 {
			h.mu.Unlock()
			return nil
		}
		idle := h.idle
		h.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
