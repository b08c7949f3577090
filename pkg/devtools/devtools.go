// Package devtools exposes a running store over HTTP for inspection:
// atom snapshots, the dependency graph, on-demand invalidation, and a
// WebSocket stream of store events. It is out-of-band tooling; nothing
// in the store depends on it.
package devtools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// Config configures the devtools server.
type Config struct {
	// Logger for server lifecycle and connection events.
	// Default: slog.Default().
	Logger *slog.Logger

	// CheckOrigin decides whether to accept a WebSocket upgrade.
	// Default: same-origin (gorilla's default).
	CheckOrigin func(r *http.Request) bool

	// MetricsHandler serves GET /metrics. Default: promhttp.Handler()
	// (the default Prometheus registry).
	MetricsHandler http.Handler

	// EventRate caps the rate of events fanned out to WebSocket
	// clients; events beyond it are dropped. Default: 500/s with a
	// burst of 1000.
	EventRate rate.Limit

	// EventBurst is the burst size for EventRate.
	EventBurst int

	// SendBuffer is the per-connection outgoing event buffer. When a
	// slow client falls behind, the oldest buffered event is dropped.
	// Default: 256.
	SendBuffer int

	// ShutdownTimeout bounds graceful shutdown. Default: 5s.
	ShutdownTimeout time.Duration
}

// Option configures the devtools server.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) { c.Logger = log }
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(c *Config) { c.CheckOrigin = fn }
}

// WithMetricsHandler sets the handler behind GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(c *Config) { c.MetricsHandler = h }
}

// WithEventRate sets the event fan-out rate limit and burst.
func WithEventRate(limit rate.Limit, burst int) Option {
	return func(c *Config) {
		c.EventRate = limit
		c.EventBurst = burst
	}
}

// WithSendBuffer sets the per-connection send buffer size.
func WithSendBuffer(n int) Option {
	return func(c *Config) { c.SendBuffer = n }
}

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) { c.ShutdownTimeout = d }
}

func defaultConfig() Config {
	return Config{
		Logger:          slog.Default(),
		MetricsHandler:  promhttp.Handler(),
		EventRate:       500,
		EventBurst:      1000,
		SendBuffer:      256,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server is the devtools HTTP/WebSocket server for one store.
type Server struct {
	store  *jotai.Store
	config Config
	log    *slog.Logger
	router chi.Router

	hub *hub

	// removeObs detaches the event observer from the store.
	removeObs func()

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a devtools server inspecting store. Store events start
// flowing to WebSocket clients immediately; call Shutdown to detach.
func New(store *jotai.Store, opts ...Option) *Server {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	log := config.Logger.With("component", "devtools")

	s := &Server{
		store:  store,
		config: config,
		log:    log,
		hub: newHub(hubConfig{
			log:         log,
			checkOrigin: config.CheckOrigin,
			limiter:     rate.NewLimiter(config.EventRate, config.EventBurst),
			sendBuffer:  config.SendBuffer,
		}),
	}
	s.removeObs = store.AddObserver(&eventObserver{hub: s.hub})
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.config.MetricsHandler)
	r.Route("/api", func(r chi.Router) {
		r.Get("/atoms", s.handleAtoms)
		r.Get("/atoms/{id}", s.handleAtom)
		r.Post("/atoms/{id}/invalidate", s.handleInvalidate)
		r.Get("/graph", s.handleGraph)
	})
	r.Get("/ws", s.hub.handleUpgrade)
	return r
}

// Handler returns the server's http.Handler for mounting in an
// existing mux.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves until Shutdown. It blocks.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.log.Info("devtools listening", "address", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown detaches from the store, closes WebSocket connections and
// gracefully stops the HTTP server if Start was used.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.removeObs()
	s.hub.close()

	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Error("devtools shutdown error", "error", err)
			return err
		}
	}
	s.log.Info("devtools shutdown complete")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// atomsResponse is the GET /api/atoms payload.
type atomsResponse struct {
	Stats jotai.Stats      `json:"stats"`
	Atoms []jotai.AtomInfo `json:"atoms"`
}

func (s *Server) handleAtoms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, atomsResponse{
		Stats: s.store.Stats(),
		Atoms: s.store.Snapshot(),
	})
}

func (s *Server) handleAtom(w http.ResponseWriter, r *http.Request) {
	id, ok := s.atomID(w, r)
	if !ok {
		return
	}
	for _, info := range s.store.Snapshot() {
		if info.ID == id {
			writeJSON(w, http.StatusOK, info)
			return
		}
	}
	http.Error(w, "atom not found", http.StatusNotFound)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.atomID(w, r)
	if !ok {
		return
	}
	atom, found := s.store.Find(id)
	if !found {
		http.Error(w, "atom not found", http.StatusNotFound)
		return
	}
	s.store.Invalidate(atom)
	s.log.Debug("atom invalidated via devtools", "atom", atom.Label())
	writeJSON(w, http.StatusOK, map[string]any{"invalidated": id})
}

// graphEdge is one dependency edge: From reads To.
type graphEdge struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// graphResponse is the GET /api/graph payload.
type graphResponse struct {
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
}

type graphNode struct {
	ID     uint64       `json:"id"`
	Label  string       `json:"label"`
	Status jotai.Status `json:"status"`
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.store.Snapshot()
	resp := graphResponse{
		Nodes: make([]graphNode, 0, len(snapshot)),
		Edges: []graphEdge{},
	}
	for _, info := range snapshot {
		resp.Nodes = append(resp.Nodes, graphNode{ID: info.ID, Label: info.Label, Status: info.Status})
		for _, dep := range info.Deps {
			resp.Edges = append(resp.Edges, graphEdge{From: info.ID, To: dep})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) atomID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid atom id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Debug("devtools response encode failed", "error", err)
	}
}
