package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	frames []string
}

func (r *recorder) Receive(_ context.Context, _ uuid.UUID, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, string(raw))
	return nil
}

func (r *recorder) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

// serve starts a server that wraps every connection in a Client and hands it
// to fn. It returns a connected client-side conn.
func serve(t *testing.T, fn func(ctx context.Context, c *Client)) *websocket.Conn {
	t.Helper()

	var wg sync.WaitGroup
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wg.Add(1)
		defer wg.Done()

		conn, err := websocket.Accept(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.CloseNow()

		fn(r.Context(), NewClient(conn, Options{PingInterval: 20 * time.Millisecond}))
	}))
	t.Cleanup(func() {
		srv.Close()
		wg.Wait()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func TestWriteMessage(t *testing.T) {
	frames := []string{"one", "two", "three"}

	conn := serve(t, func(ctx context.Context, c *Client) {
		for _, f := range frames {
			assert.True(t, c.Enqueue([]byte(f)))
		}
		c.Close()
		c.WriteMessage(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, want := range frames {
		typ, p, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, websocket.MessageText, typ)
		assert.Equal(t, want, string(p))
	}

	_, _, err := conn.Read(ctx)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestWriteMessageStopsOnCancel(t *testing.T) {
	conn := serve(t, func(ctx context.Context, c *Client) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		c.WriteMessage(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, err := conn.Read(ctx)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}

func TestReadMessage(t *testing.T) {
	rec := &recorder{}
	result := make(chan error, 1)

	conn := serve(t, func(ctx context.Context, c *Client) {
		result <- c.ReadMessage(ctx, rec)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"add"}`)))
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, []byte{0x01, 0x02}))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`not json`)))
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("reader did not return after close")
	}

	assert.Equal(t, []string{`{"type":"add"}`, `not json`}, rec.received())
}

func TestKeepalive(t *testing.T) {
	pinged := make(chan struct{})

	conn := serve(t, func(ctx context.Context, c *Client) {
		ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		c.Keepalive(ctx)
		close(pinged)
	})

	// Pongs are only sent while the client side is reading.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go conn.Read(ctx) //nolint:errcheck

	select {
	case <-pinged:
	case <-ctx.Done():
		t.Fatal("keepalive did not stop")
	}
}

func TestReadMessagePeerGone(t *testing.T) {
	rec := &recorder{}
	result := make(chan error, 1)

	conn := serve(t, func(ctx context.Context, c *Client) {
		result <- c.ReadMessage(ctx, rec)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"add"}`)))
	// No close frame, the TCP connection just ends.
	require.NoError(t, conn.CloseNow())

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("reader did not return after the peer went away")
	}

	assert.Equal(t, []string{`{"type":"add"}`}, rec.received())
}

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"normal closure", websocket.CloseError{Code: websocket.StatusNormalClosure}, true},
		{"going away", websocket.CloseError{Code: websocket.StatusGoingAway}, true},
		{"eof", fmt.Errorf("failed to get reader: %w", io.EOF), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"closed conn", fmt.Errorf("read: %w", net.ErrClosed), true},
		{"canceled", context.Canceled, true},
		{"protocol error", websocket.CloseError{Code: websocket.StatusProtocolError}, false},
		{"message too big", websocket.CloseError{Code: websocket.StatusMessageTooBig}, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isClosed(tt.err))
		})
	}
}
