package hub

import (
	"chat-rooms/infrastructure/socket"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

type ServerConfig struct {
	Address         string
	SendBuffer      int
	PingPeriod      time.Duration
	ShutdownTimeout time.Duration
	Socket          socket.Options
}

// Server exposes the hub over HTTP: /ws upgrades to a websocket,
// /health answers the liveness probe.
type Server struct {
	log      *slog.Logger
	hub      *Hub
	config   ServerConfig
	upgrader websocket.Upgrader
}

func NewServer(log *slog.Logger, hub *Hub, config ServerConfig) *Server {
	return &Server{
		log:    log,
		hub:    hub,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// terminal clients send no Origin header
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler serves the routes with clients bound to ctx, for callers owning
// the listener.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", s.health)
	r.Get("/ws", s.serveWebsocket(ctx))
	return r
}

// Run serves until ctx is canceled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting hub server", "address", s.config.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("hub server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Hub server shutdown", "error", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) serveWebsocket(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("Websocket upgrade failed", "error", err)
			return
		}
		s.Attach(ctx, socket.NewChannel(conn, s.config.Socket))
	}
}

// Attach registers a connected channel and serves it until it breaks.
// The read side runs on the caller goroutine.
func (s *Server) Attach(ctx context.Context, channel FrameChannel) {
	client := NewClient(s.log, channel, s.config.SendBuffer)
	if !s.hub.Register(ctx, client) {
		_ = channel.Close()
		return
	}
	go client.WritePump(ctx, s.config.PingPeriod)
	client.ReadPump(ctx, s.hub)
}
