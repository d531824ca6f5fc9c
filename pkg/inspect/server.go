// Package inspect exposes the running tree and the lifecycle registry over
// HTTP for tooling: a JSON dump of the element tree, the live attachment
// table, the recent transition history, a WebSocket feed of transitions as
// they happen, and Prometheus metrics.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/lifecycle"
)

// Options configures an inspection server.
type Options struct {
	// Root returns the element tree root to serialize, or nil when no tree
	// is mounted. The handler reads the tree between build passes; the
	// caller is responsible for not rebuilding concurrently.
	Root func() core.Element

	// Registry is the lifecycle registry to expose.
	// Default: lifecycle.Shared().
	Registry *lifecycle.Registry

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int
}

// Server serves the inspection API.
type Server struct {
	registry *lifecycle.Registry
	root     func() core.Element
	upgrader websocket.Upgrader

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer builds an inspection server from opts.
func NewServer(opts Options) *Server {
	registry := opts.Registry
	if registry == nil {
		registry = lifecycle.Shared()
	}
	root := opts.Root
	if root == nil {
		root = func() core.Element { return nil }
	}
	return &Server{
		registry: registry,
		root:     root,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  opts.ReadBufferSize,
			WriteBufferSize: opts.WriteBufferSize,
			// The inspector is a local debugging surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the routed inspection API for mounting in an external
// server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/tree", s.handleTree)
	r.Route("/lifecycle", func(r chi.Router) {
		r.Get("/entries", s.handleEntries)
		r.Get("/events", s.handleEvents)
		r.Get("/watch", s.handleWatch)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start binds the listener and begins serving. Returns the actual port,
// useful when port=0 for ephemeral allocation. Starting an already running
// server returns its current port.
func (s *Server) Start(port int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().(*net.TCPAddr).Port, nil
	}

	// Bind first to fail fast on port conflicts.
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("inspect server listen: %w", err)
	}

	server := &http.Server{Handler: s.Handler()}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
			errors.Report(&errors.ArborError{
				Kind: errors.KindInspect,
				Op:   "inspect.serve",
				Err:  err,
			})
		}
	}()

	return listener.Addr().(*net.TCPAddr).Port, nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	// Recover from panics during serialization
	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	root := s.root()
	if root == nil {
		http.Error(w, "no tree mounted", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, SerializeTree(root))
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Entries []lifecycle.EntrySnapshot `json:"entries"`
	}{
		Entries: s.registry.Snapshot(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Events []lifecycle.Event `json:"events"`
	}{
		Events: s.registry.Recent(),
	})
}

// watchHello is the first frame on a watch connection.
type watchHello struct {
	Session string `json:"session"`
}

// eventBufferSize bounds the per-connection event queue; a client that
// cannot keep up is disconnected rather than backing up the registry.
const eventBufferSize = 64

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		errors.Report(&errors.ArborError{
			Kind: errors.KindInspect,
			Op:   "inspect.watch.upgrade",
			Err:  err,
		})
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	if err := conn.WriteJSON(watchHello{Session: session}); err != nil {
		return
	}

	events := make(chan lifecycle.Event, eventBufferSize)
	overflow := make(chan struct{})
	var overflowOnce sync.Once

	cancel := s.registry.Subscribe(func(event lifecycle.Event) {
		select {
		case events <- event:
		default:
			overflowOnce.Do(func() { close(overflow) })
		}
	})
	defer cancel()

	// Reader goroutine: the client sends nothing meaningful, but reading
	// is how we learn the connection is gone.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-events:
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-overflow:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "event backlog overflow"),
				time.Now().Add(time.Second))
			return
		case <-done:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
