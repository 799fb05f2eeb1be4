package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/johndosdos/roomrelay/internal"
	"github.com/johndosdos/roomrelay/internal/chat"
	ws "github.com/johndosdos/roomrelay/internal/websocket"
)

// Routes wires every HTTP endpoint onto a chi router.
func Routes(hub *chat.Hub, opts ws.Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(EscapedRoutes)
	r.Use(internal.Middleware)

	r.Get("/", ServeRoot())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck
	})

	r.Route(RoomPrefix+"/{room}", func(r chi.Router) {
		r.Use(ValidateRoom)
		r.Get("/", ServeWs(hub, opts))
		r.Get("/messages", ServeMessages(hub))
		r.Get("/events", StreamSSE(hub, opts.BufferSize))
	})

	return r
}
