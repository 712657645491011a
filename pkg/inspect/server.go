// Package inspect exposes a local debug surface over a running engine:
// health and metrics endpoints, JSON views of the live components and
// queries, and a websocket stream of transaction and render records.
package inspect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strandui/strand/pkg/engine"
)

// Server is the inspector HTTP server.
type Server struct {
	rt       *engine.Runtime
	hub      *Hub
	log      *slog.Logger
	gatherer prometheus.Gatherer
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server's logger.
func WithServerLogger(log *slog.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// WithGatherer overrides the metrics gatherer; tests pass the registry
// their engine metrics were registered with.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) { s.gatherer = g }
}

// NewServer creates an inspector over rt. Register the returned
// server's Hub on the runtime (engine.WithObserver) to feed the
// websocket stream.
func NewServer(rt *engine.Runtime, opts ...ServerOption) *Server {
	s := &Server{
		rt:       rt,
		log:      slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.log)
	return s
}

// Hub returns the server's websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler builds the inspector's route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/debug/components", s.handleComponents)
	r.Get("/debug/queries", s.handleQueries)
	r.Get("/ws", s.hub.ServeWS)

	return r
}

// ListenAndServe binds the inspector to addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("inspector listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type componentView struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	RenderCount int    `json:"renderCount"`
	RenderSkips int    `json:"renderSkips"`
	Suspended   bool   `json:"suspended"`
	Failed      bool   `json:"failed"`
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	comps := s.rt.Components()
	out := make([]componentView, 0, len(comps))
	for _, c := range comps {
		out = append(out, componentView{
			ID:          c.ID(),
			Name:        c.Name(),
			RenderCount: c.RenderCount(),
			RenderSkips: c.RenderSkips(),
			Suspended:   c.Suspended(),
			Failed:      c.Failed(),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	writeJSON(w, out)
}

type queryView struct {
	ID    uint64   `json:"id"`
	Ready bool     `json:"ready"`
	Keys  []string `json:"keys"`
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	nodes := s.rt.Queries()
	out := make([]queryView, 0, len(nodes))
	for _, n := range nodes {
		keys := make([]string, 0)
		for k := range n.Keys() {
			keys = append(keys, fmt.Sprint(k))
		}
		sort.Strings(keys)
		out = append(out, queryView{ID: n.ID(), Ready: n.Ready(), Keys: keys})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
