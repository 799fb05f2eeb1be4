// Package main our entry point.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johndosdos/roomrelay/internal/chat"
	"github.com/johndosdos/roomrelay/internal/config"
	"github.com/johndosdos/roomrelay/internal/handler"
	"github.com/johndosdos/roomrelay/internal/store"
	ws "github.com/johndosdos/roomrelay/internal/websocket"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Starting application...")

	// Init storage
	log.Println("Initializing message store...")

	st, err := store.Open(ctx, cfg.DBURL, cfg.Migrate)
	if err != nil {
		log.Fatalf("could not open message store: %v", err)
	}

	// hub owns every live room; rooms come and go with their connections.
	hub := chat.NewHub(st, chat.Options{PersistTimeout: cfg.PersistTimeout})

	server := &http.Server{
		Addr: "0.0.0.0:" + cfg.Port,
		Handler: handler.Routes(hub, ws.Options{
			BufferSize:   cfg.ClientBuffer,
			WriteTimeout: cfg.WriteTimeout,
			PingInterval: cfg.PingInterval,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		// Hijacked websocket handlers are not tracked by Shutdown; they stop
		// when this context is canceled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Printf("Server starting at 0.0.0.0:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	// Let every room finish its pending writes.
	if err := hub.Wait(shutdownCtx); err != nil {
		log.Printf("rooms did not stop in time: %v", err)
	}

	if err := st.Close(); err != nil {
		log.Printf("couldn't close message store: %+v", err)
	}

	log.Println("Server stopped")
}
