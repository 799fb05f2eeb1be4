package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/johndosdos/roomrelay/internal/chat"
)

// StreamSSE is a read-only view of a room: the snapshot first, then every
// relayed event, as server-sent events.
func StreamSSE(hub *chat.Hub, bufferSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		roomID, _ := roomParam(r)

		observer := chat.NewOutbox(bufferSize)
		defer observer.Close()

		room := hub.Acquire(roomID)
		defer hub.Release(room)
		defer func() {
			if err := room.Leave(context.WithoutCancel(ctx), observer.ID()); err != nil {
				slog.WarnContext(ctx, "failed to leave room", "room", roomID, "error", err)
			}
		}()

		if err := room.Join(ctx, observer); err != nil {
			slog.ErrorContext(ctx, "failed to join room",
				"room", roomID,
				"error", err)
			http.Error(w, "Room unavailable.", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("X-Accel-Buffering", "no")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		rc := http.NewResponseController(w)
		if err := rc.Flush(); err != nil {
			slog.WarnContext(ctx, "streaming unsupported", "error", err)
			return
		}

		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case frame, ok := <-observer.Frames():
				if !ok {
					return
				}
				if err := writeEvent(w, frame); err != nil {
					slog.WarnContext(ctx, "failed to write event", "room", roomID, "error", err)
					return
				}
				if err := rc.Flush(); err != nil {
					slog.WarnContext(ctx, "could not flush buffer to writer", "error", err)
					return
				}

			case <-ticker.C:
				fmt.Fprint(w, ": \n\n") //nolint:errcheck
				if err := rc.Flush(); err != nil {
					slog.WarnContext(ctx, "could not flush buffer to writer", "error", err)
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}
}

// writeEvent writes frame as one "message" event. Relayed frames are
// client-supplied, so each line gets its own data field.
func writeEvent(w io.Writer, frame []byte) error {
	var buf bytes.Buffer
	buf.WriteString("event: message\n")
	for _, line := range bytes.Split(frame, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(bytes.TrimSuffix(line, []byte("\r")))
		buf.WriteString("\n")
	}
	buf.WriteString("\n")

	_, err := w.Write(buf.Bytes())
	return err
}
