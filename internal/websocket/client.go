package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/johndosdos/roomrelay/internal/chat"
)

// Options controls a single client connection.
type Options struct {
	BufferSize   int
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadLimit    int64
}

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 << 10
	}
	return o
}

// Client is one participant connected to a room. It is a chat.Peer: the
// room queues frames into its outbox and WriteMessage drains them.
type Client struct {
	*chat.Outbox
	conn *websocket.Conn
	opts Options
}

func NewClient(conn *websocket.Conn, opts Options) *Client {
	opts = opts.withDefaults()
	conn.SetReadLimit(opts.ReadLimit)

	return &Client{
		Outbox: chat.NewOutbox(opts.BufferSize),
		conn:   conn,
		opts:   opts,
	}
}

// WriteMessage writes queued frames to the outgoing websocket stream until
// the outbox is closed or ctx is done.
func (c *Client) WriteMessage(ctx context.Context) {
	for {
		select {
		case frame, ok := <-c.Frames():
			// The outbox is closed once the client has left the room.
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				slog.WarnContext(ctx, "failed to write frame",
					"error", err,
					"peer", c.ID().String())
				c.conn.CloseNow()
				return
			}

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
	}
}

// Keepalive pings the client until ctx is done. Proxies and load balancers
// drop connections that look idle, and a peer that stops answering is
// disconnected so its reader returns.
func (c *Client) Keepalive(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					slog.WarnContext(ctx, "failed to ping client",
						"error", err,
						"peer", c.ID().String())
					c.conn.Close(websocket.StatusGoingAway, "ping timeout")
				}
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
