package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event tags exchanged over the websocket.
const (
	TypeAdd    = "add"
	TypeUpdate = "update"
	TypeAll    = "all"
)

var (
	ErrMissingType = errors.New("internal/model: event has no type")
	ErrMissingID   = errors.New("internal/model: message event has no id")
)

// Event is one decoded websocket frame. The concrete type is one of
// AddEvent, UpdateEvent, AllEvent or UnknownEvent.
type Event interface {
	EventType() string
	isEvent()
}

// AddEvent is sent by a participant composing a new message.
type AddEvent struct {
	Message
}

// UpdateEvent is sent by a participant editing a message it already sent.
type UpdateEvent struct {
	Message
}

// AllEvent carries the full room log. Only the server sends it, once per
// connection, right after the join.
type AllEvent struct {
	Messages []Message
}

// UnknownEvent is any well-formed frame with a tag this server does not
// know. It is relayed but never merged.
type UnknownEvent struct {
	Type string
}

func (AddEvent) EventType() string       { return TypeAdd }
func (UpdateEvent) EventType() string    { return TypeUpdate }
func (AllEvent) EventType() string       { return TypeAll }
func (e UnknownEvent) EventType() string { return e.Type }

func (AddEvent) isEvent()     {}
func (UpdateEvent) isEvent()  {}
func (AllEvent) isEvent()     {}
func (UnknownEvent) isEvent() {}

// DecodeEvent parses a raw client frame into its tagged variant. Keys are
// matched exactly, the way browser peers read them, so a frame spelling
// "Type" or "ID" is not an add or update.
func DecodeEvent(raw []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("internal/model: could not decode event: %w", err)
	}

	var typ string
	if err := decodeField(fields, "type", &typ); err != nil {
		return nil, err
	}

	switch typ {
	case "":
		return nil, ErrMissingType
	case TypeAdd, TypeUpdate:
		m, err := decodeMessage(fields)
		if err != nil {
			return nil, err
		}
		if m.ID == "" {
			return nil, ErrMissingID
		}
		if typ == TypeAdd {
			return AddEvent{Message: m}, nil
		}
		return UpdateEvent{Message: m}, nil
	case TypeAll:
		var messages []Message
		if err := decodeField(fields, "messages", &messages); err != nil {
			return nil, err
		}
		return AllEvent{Messages: messages}, nil
	default:
		return UnknownEvent{Type: typ}, nil
	}
}

func decodeMessage(fields map[string]json.RawMessage) (Message, error) {
	var m Message
	for key, dst := range map[string]*string{
		"id":        &m.ID,
		"user":      &m.User,
		"role":      &m.Role,
		"content":   &m.Content,
		"timestamp": &m.Timestamp,
		"color":     &m.Color,
	} {
		if err := decodeField(fields, key, dst); err != nil {
			return Message{}, err
		}
	}
	return m, nil
}

// decodeField leaves v untouched when key is absent.
func decodeField(fields map[string]json.RawMessage, key string, v any) error {
	p, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(p, v); err != nil {
		return fmt.Errorf("internal/model: invalid %q field: %w", key, err)
	}
	return nil
}

func marshalTagged(tag string, m Message) ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Message
	}{tag, m})
}

func (e AddEvent) MarshalJSON() ([]byte, error) {
	return marshalTagged(TypeAdd, e.Message)
}

func (e UpdateEvent) MarshalJSON() ([]byte, error) {
	return marshalTagged(TypeUpdate, e.Message)
}

func (e AllEvent) MarshalJSON() ([]byte, error) {
	// Clients expect an array, even for an empty room.
	messages := e.Messages
	if messages == nil {
		messages = []Message{}
	}
	return json.Marshal(struct {
		Type     string    `json:"type"`
		Messages []Message `json:"messages"`
	}{TypeAll, messages})
}

// EncodeAll returns the snapshot frame sent to a newly joined connection.
func EncodeAll(messages []Message) ([]byte, error) {
	p, err := json.Marshal(AllEvent{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("internal/model: could not encode snapshot: %w", err)
	}
	return p, nil
}
