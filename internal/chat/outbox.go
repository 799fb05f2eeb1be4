package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Peer is anything a room can deliver frames to.
type Peer interface {
	ID() uuid.UUID
	// Enqueue hands frame to the peer without blocking. It reports false if
	// the peer is gone or cannot keep up.
	Enqueue(frame []byte) bool
}

// Outbox is a bounded, closable frame queue that implements Peer. The
// transport drains Frames and calls Close once the connection is done.
type Outbox struct {
	id     uuid.UUID
	mu     sync.Mutex
	closed bool
	frames chan []byte
}

func NewOutbox(size int) *Outbox {
	if size < 1 {
		size = 1
	}
	return &Outbox{
		id:     uuid.New(),
		frames: make(chan []byte, size),
	}
}

func (o *Outbox) ID() uuid.UUID {
	return o.id
}

func (o *Outbox) Enqueue(frame []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}

	select {
	case o.frames <- frame:
		return true
	default:
		return false
	}
}

// Frames is closed after Close, once every queued frame has been received.
func (o *Outbox) Frames() <-chan []byte {
	return o.frames
}

// Close is idempotent.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	close(o.frames)
}
