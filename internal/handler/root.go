package handler

import (
	"net/http"

	"github.com/google/uuid"
)

// ServeRoot sends visitors without a room to a brand new one.
func ServeRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RoomPrefix+"/"+uuid.NewString(), http.StatusSeeOther)
	}
}
