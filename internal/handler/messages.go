package handler

import (
	"log/slog"
	"net/http"

	"github.com/johndosdos/roomrelay/internal/chat"
	"github.com/johndosdos/roomrelay/internal/model"
)

// ServeMessages returns the room's current log as an "all" event.
func ServeMessages(hub *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		roomID, _ := roomParam(r)

		room := hub.Acquire(roomID)
		defer hub.Release(room)

		messages, err := room.Snapshot(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load messages",
				"room", roomID,
				"error", err)
			http.Error(w, "Room unavailable.", http.StatusServiceUnavailable)
			return
		}

		p, err := model.EncodeAll(messages)
		if err != nil {
			slog.ErrorContext(ctx, "failed to encode messages", "room", roomID, "error", err)
			http.Error(w, "Server error.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(p); err != nil {
			slog.WarnContext(ctx, "failed to write response", "error", err)
		}
	}
}
