package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
)

// RoomPrefix is the path under which rooms are addressed.
const RoomPrefix = "/parties/chat"

const maxRoomIDLen = 128

var (
	errEmptyRoomID   = errors.New("room id is empty")
	errLongRoomID    = errors.New("room id is too long")
	errInvalidRoomID = errors.New("room id contains markup or reserved characters")
)

// Room ids are echoed back in redirects and logs; anything the strict policy
// would rewrite is refused.
var roomPolicy = bluemonday.StrictPolicy()

func validateRoomID(id string) error {
	switch {
	case id == "":
		return errEmptyRoomID
	case len(id) > maxRoomIDLen:
		return errLongRoomID
	case roomPolicy.Sanitize(id) != id:
		return errInvalidRoomID
	}
	return nil
}

// EscapedRoutes makes chi match routes against the escaped request path, so
// URL parameters are always still percent-encoded, whatever the client sent.
// Without it chi routes on RawPath only when one was recorded, and parameters
// come back decoded or not depending on the request.
func EscapedRoutes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePath == "" {
			rctx.RoutePath = r.URL.EscapedPath()
		}
		next.ServeHTTP(w, r)
	})
}

// roomParam returns the {room} path parameter decoded exactly once. It
// expects routing on the escaped path, see EscapedRoutes.
func roomParam(r *http.Request) (string, error) {
	return url.PathUnescape(chi.URLParam(r, "room"))
}

// ValidateRoom rejects requests whose {room} path parameter is not a usable
// room id.
func ValidateRoom(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := roomParam(r)
		if err == nil {
			err = validateRoomID(id)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}
