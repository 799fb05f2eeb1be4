package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Receiver is where a client's inbound frames go.
type Receiver interface {
	Receive(ctx context.Context, from uuid.UUID, raw []byte) error
}

// ReadMessage reads the incoming data from the websocket stream and hands
// every text frame to room. It returns when the connection is closed.
func (c *Client) ReadMessage(ctx context.Context, room Receiver) error {
	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return err
		}

		// Only text frames are part of the protocol.
		if msgType != websocket.MessageText {
			slog.DebugContext(ctx, "ignoring non-text frame",
				"peer", c.ID().String(),
				"type", msgType)
			continue
		}

		if err := room.Receive(ctx, c.ID(), p); err != nil {
			return err
		}
	}
}

// isClosed reports whether err is an ordinary end of the connection: a close
// handshake, a peer that just went away, or our own shutdown.
func isClosed(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
