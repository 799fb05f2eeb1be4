package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/johndosdos/roomrelay/internal/model"
	"github.com/johndosdos/roomrelay/internal/store"
)

var ErrPeerClosed = errors.New("internal/chat: peer closed before the snapshot was delivered")

// Requests handled by the room goroutine, in arrival order.
type (
	joinRequest struct {
		peer  Peer
		reply chan error
	}

	eventRequest struct {
		from uuid.UUID
		raw  []byte
	}

	leaveRequest struct {
		id uuid.UUID
	}

	snapshotRequest struct {
		reply chan snapshotReply
	}
)

type snapshotReply struct {
	messages []model.Message
	err      error
}

// Room coordinates one chat room. All of its state is owned by the run
// goroutine; other goroutines talk to it only through inbox.
type Room struct {
	id    string
	store store.Store
	inbox chan any
	done  chan struct{}

	// Closed once the previous instance of this room has stopped writing.
	prev <-chan struct{}

	persistTimeout time.Duration

	// Owned by run.
	active  bool
	log     *Log
	peers   map[uuid.UUID]Peer
	dropLog rate.Sometimes
}

func newRoom(id string, st store.Store, prev <-chan struct{}, opts Options) *Room {
	return &Room{
		id:             id,
		store:          st,
		inbox:          make(chan any, opts.InboxSize),
		done:           make(chan struct{}),
		prev:           prev,
		persistTimeout: opts.PersistTimeout,
		log:            NewLog(),
		peers:          make(map[uuid.UUID]Peer),
		dropLog:        rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
}

func (r *Room) ID() string {
	return r.id
}

// Done is closed when the room has processed its last request.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Join registers peer and queues the full snapshot to it as the first frame
// it will ever receive from this room.
func (r *Room) Join(ctx context.Context, peer Peer) error {
	reply := make(chan error, 1)
	if err := r.send(ctx, joinRequest{peer: peer, reply: reply}); err != nil {
		return err
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive relays raw to every other peer and then merges it into the room
// log if it is an add or update event.
func (r *Room) Receive(ctx context.Context, from uuid.UUID, raw []byte) error {
	return r.send(ctx, eventRequest{from: from, raw: raw})
}

// Leave removes the peer from the live set.
func (r *Room) Leave(ctx context.Context, id uuid.UUID) error {
	return r.send(ctx, leaveRequest{id: id})
}

// Snapshot returns the current log, loading it from storage if needed.
func (r *Room) Snapshot(ctx context.Context) ([]model.Message, error) {
	reply := make(chan snapshotReply, 1)
	if err := r.send(ctx, snapshotRequest{reply: reply}); err != nil {
		return nil, err
	}

	select {
	case res := <-reply:
		return res.messages, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Room) send(ctx context.Context, req any) error {
	select {
	case r.inbox <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run processes requests one at a time until inbox is closed.
func (r *Room) run() {
	defer close(r.done)

	for req := range r.inbox {
		switch req := req.(type) {
		case joinRequest:
			req.reply <- r.handleJoin(req.peer)
		case eventRequest:
			r.handleEvent(req.from, req.raw)
		case leaveRequest:
			delete(r.peers, req.id)
		case snapshotRequest:
			if err := r.activate(); err != nil {
				req.reply <- snapshotReply{err: err}
				continue
			}
			req.reply <- snapshotReply{messages: r.log.Snapshot()}
		default:
			slog.Error("unknown room request", "room", r.id, "request", fmt.Sprintf("%T", req))
		}
	}

	// Our successor waits on done, so it must also cover everything before us.
	if r.prev != nil {
		<-r.prev
	}
}

// activate loads the room log from storage the first time it is needed.
func (r *Room) activate() error {
	if r.active {
		return nil
	}

	if r.prev != nil {
		<-r.prev
		r.prev = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.persistTimeout)
	defer cancel()

	if err := r.store.Initialize(ctx, r.id); err != nil {
		return fmt.Errorf("internal/chat: could not initialize room [%s]: %w", r.id, err)
	}

	messages, err := r.store.LoadAll(ctx, r.id)
	if err != nil {
		return fmt.Errorf("internal/chat: could not load room [%s]: %w", r.id, err)
	}

	r.log.Load(messages)
	r.active = true

	slog.Info("room activated", "room", r.id, "messages", r.log.Len())
	return nil
}

func (r *Room) handleJoin(peer Peer) error {
	if err := r.activate(); err != nil {
		return err
	}

	frame, err := model.EncodeAll(r.log.Snapshot())
	if err != nil {
		return err
	}

	if !peer.Enqueue(frame) {
		return ErrPeerClosed
	}

	r.peers[peer.ID()] = peer
	slog.Info("peer joined", "room", r.id, "peer", peer.ID().String(), "peers", len(r.peers))
	return nil
}

func (r *Room) handleEvent(from uuid.UUID, raw []byte) {
	// Peers see the event before it is durable.
	r.broadcast(raw, from)

	ev, err := model.DecodeEvent(raw)
	if err != nil {
		slog.Warn("relayed malformed event without merging",
			"room", r.id,
			"peer", from.String(),
			"error", err)
		return
	}

	switch ev := ev.(type) {
	case model.AddEvent:
		r.apply(ev.Message)
	case model.UpdateEvent:
		r.apply(ev.Message)
	case model.AllEvent, model.UnknownEvent:
		slog.Debug("relayed event without merging",
			"room", r.id,
			"type", ev.EventType())
	}
}

// apply merges m into the log and persists it. A failed write leaves the
// log ahead of storage until the next successful write or reload.
func (r *Room) apply(m model.Message) {
	if err := r.activate(); err != nil {
		slog.Error("dropping event for inactive room", "room", r.id, "id", m.ID, "error", err)
		return
	}

	r.log.Merge(m)

	ctx, cancel := context.WithTimeout(context.Background(), r.persistTimeout)
	defer cancel()

	if err := r.store.Upsert(ctx, r.id, m); err != nil {
		slog.Error("failed to store message",
			"room", r.id,
			"id", m.ID,
			"error", err)
	}
}

// broadcast delivers frame verbatim to every registered peer not listed in
// exclude. A peer that cannot take the frame is skipped.
func (r *Room) broadcast(frame []byte, exclude ...uuid.UUID) int {
	delivered := 0

	for id, peer := range r.peers {
		if isExcluded(id, exclude) {
			continue
		}
		if peer.Enqueue(frame) {
			delivered++
			continue
		}
		r.dropLog.Do(func() {
			slog.Warn("skipping frame - peer closed or slow",
				"room", r.id,
				"peer", id.String())
		})
	}

	return delivered
}

func isExcluded(id uuid.UUID, exclude []uuid.UUID) bool {
	for _, x := range exclude {
		if x == id {
			return true
		}
	}
	return false
}
