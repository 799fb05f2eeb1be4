// Command loadtest drives a running server with one writer and one observer
// and reports how many relayed frames the observer saw.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/johndosdos/roomrelay/internal/model"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080", "server base url")
	room := flag.String("room", "", "room to join (default: a new one)")
	n := flag.Int("n", 100, "number of messages to add and then update")
	timeout := flag.Duration("timeout", 30*time.Second, "overall time limit")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if *room == "" {
		*room = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	url := strings.TrimSuffix(*addr, "/") + "/parties/chat/" + *room

	writer, err := join(ctx, url)
	if err != nil {
		log.Fatalf("writer: %v", err)
	}
	defer writer.CloseNow()

	observer, err := join(ctx, url)
	if err != nil {
		log.Fatalf("observer: %v", err)
	}
	defer observer.CloseNow()

	want := int64(2 * *n)
	var got atomic.Int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for got.Load() < want {
			if _, _, err := observer.Read(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Printf("observer read: %v", err)
				}
				return
			}
			got.Add(1)
		}
	}()

	start := time.Now()
	user := "loadtest-" + uuid.NewString()[:8]

	for _, kind := range []string{model.TypeAdd, model.TypeUpdate} {
		for i := range *n {
			m := model.Message{
				ID:        fmt.Sprintf("lt-%d", i),
				User:      user,
				Role:      model.RoleUser,
				Content:   fmt.Sprintf("%s %d", kind, i),
				Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
			}

			var p []byte
			if kind == model.TypeAdd {
				p, err = model.AddEvent{Message: m}.MarshalJSON()
			} else {
				p, err = model.UpdateEvent{Message: m}.MarshalJSON()
			}
			if err != nil {
				log.Fatalf("encode: %v", err)
			}

			if err := writer.Write(ctx, websocket.MessageText, p); err != nil {
				log.Fatalf("write: %v", err)
			}
		}
	}
	sent := time.Since(start)

	select {
	case <-done:
	case <-ctx.Done():
	}

	writer.Close(websocket.StatusNormalClosure, "")
	observer.Close(websocket.StatusNormalClosure, "")

	log.Printf("room=%s sent=%d received=%d send=%s total=%s",
		*room, want, got.Load(), sent, time.Since(start))

	if got.Load() != want {
		os.Exit(1)
	}
}

// join dials url and waits for the snapshot every new connection gets first.
func join(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial [%s]: %w", url, err)
	}

	_, p, err := conn.Read(ctx)
	if err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	ev, err := model.DecodeEvent(p)
	if err != nil {
		conn.CloseNow()
		return nil, err
	}
	if _, ok := ev.(model.AllEvent); !ok {
		conn.CloseNow()
		return nil, fmt.Errorf("first frame was %q, not %q", ev.EventType(), model.TypeAll)
	}

	return conn, nil
}
