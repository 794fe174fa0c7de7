// Package server streams cipher sessions over websockets. Each connection
// gets its own push session; the key material and its matrix are shared
// read-only between connections.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/playfair/core/errors"
	"github.com/FocuswithJustin/playfair/core/playfair"
	"github.com/FocuswithJustin/playfair/internal/logging"
)

// Config holds server configuration.
type Config struct {
	Addr string
	// AllowedOrigins lists accepted Origin values ("*", exact, "*.domain").
	// Empty means same-host only.
	AllowedOrigins []string
	MaxMessageSize int64
	// MaxMessageRate is messages per second per connection; 0 disables.
	MaxMessageRate int
}

// DefaultConfig returns the settings used by the serve command.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		MaxMessageSize: 64 << 10,
		MaxMessageRate: 50,
	}
}

// Server serves /ws and /health.
type Server struct {
	cfg      Config
	ciphers  map[playfair.Direction]*playfair.Cipher
	upgrader websocket.Upgrader
	active   atomic.Int64
	newID    func() string
	now      func() time.Time
}

// New builds encode and decode ciphers from km.
func New(km playfair.KeyMaterial, cfg Config) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		ciphers: make(map[playfair.Direction]*playfair.Cipher, 2),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, dir := range []playfair.Direction{playfair.Encode, playfair.Decode} {
		c, err := playfair.New(km, dir)
		if err != nil {
			return nil, err
		}
		s.ciphers[dir] = c
	}
	return s, nil
}

// Active is the number of open sessions.
func (s *Server) Active() int { return int(s.active.Load()) }

// Handler returns the routes wrapped in security headers and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)

	var handler http.Handler = SecurityHeadersWithCSP(APICSPConfig(), mux)
	return logging.CombinedMiddleware(handler)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.NewIO("listen", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	logging.ServerStartup("websocket", "http", ln.Addr().String(),
		"allowed_origins", len(s.cfg.AllowedOrigins),
		"max_message_size", s.cfg.MaxMessageSize)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errc
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "ok",
		"active_sessions": s.Active(),
		"time":            s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = playfair.Encode.String()
	}
	dir, err := playfair.ParseDirection(mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.LoggerFromContext(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}
	if s.cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(s.cfg.MaxMessageSize)
	}

	id := s.newID()
	ctx := logging.WithSessionID(r.Context(), id)
	c := &conn{
		ctx:     ctx,
		ws:      ws,
		id:      id,
		session: s.ciphers[dir].NewSession(),
		done:    make(chan struct{}),
	}
	if s.cfg.MaxMessageRate > 0 {
		c.limiter = newMessageRateBucket(s.cfg.MaxMessageRate, s.now)
	}

	logging.SessionEvent(ctx, "open", int(s.active.Add(1)), "mode", dir.String(), "remote_addr", r.RemoteAddr)
	go c.pingLoop()
	c.readLoop()
	close(c.done)
	ws.Close()
	logging.SessionEvent(ctx, "close", int(s.active.Add(-1)), "letters", c.session.Letters())
}
