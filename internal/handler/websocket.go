package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/johndosdos/roomrelay/internal/chat"
	ws "github.com/johndosdos/roomrelay/internal/websocket"
)

// ServeWs upgrades the request and joins the client to the room named in the
// path for as long as the connection lives.
func ServeWs(hub *chat.Hub, opts ws.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		roomID, _ := roomParam(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to upgrade connection",
				"room", roomID,
				"error", err)
			return
		}
		defer conn.CloseNow()

		c := ws.NewClient(conn, opts)
		defer c.Close()

		room := hub.Acquire(roomID)
		defer hub.Release(room)

		// Deferred after Acquire so the leave is queued before the release.
		defer func() {
			if err := room.Leave(context.WithoutCancel(ctx), c.ID()); err != nil {
				slog.WarnContext(ctx, "failed to leave room", "room", roomID, "error", err)
			}
		}()

		if err := room.Join(ctx, c); err != nil {
			slog.ErrorContext(ctx, "failed to join room",
				"room", roomID,
				"error", err)
			conn.Close(websocket.StatusInternalError, "room unavailable")
			return
		}

		writeCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.WriteMessage(writeCtx)
		}()
		go func() {
			defer wg.Done()
			c.Keepalive(writeCtx)
		}()

		// We block on c.ReadMessage() because the request context will be
		// canceled as soon we return from the handler.
		if err := c.ReadMessage(ctx, room); err != nil {
			slog.WarnContext(ctx, "connection closed with error",
				"room", roomID,
				"peer", c.ID().String(),
				"error", err)
		}

		c.Close()
		cancel()
		wg.Wait()
	}
}
