// Package model defines data structure.
package model

// RoleUser tags human-authored content. It is the only role current
// clients produce.
const RoleUser = "user"

// Message holds information about a single chat message. ID is assigned by
// the sending client and is the identity key within a room; every other
// field may be replaced by a later update.
type Message struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Color     string `json:"color,omitempty"`
}
