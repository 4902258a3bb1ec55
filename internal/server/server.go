// Package server serves the lookup HTTP contract (autocomplete and title)
// from a lookup service, so editors can point their URL templates at it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/internallink/internal/logger"
	"github.com/mesh-intelligence/internallink/internal/lookup"
	"github.com/mesh-intelligence/internallink/internal/metrics"
	"github.com/mesh-intelligence/internallink/pkg/types"
)

// Routes of the lookup server.
const (
	RouteAutocomplete = "/autocomplete"
	RouteTitle        = "/titles/{id}"
	RouteHealth       = "/health"
	RouteMetrics      = "/metrics"
)

// AutocompleteTemplate and TitleTemplate are the URL templates an editor
// configures to use a server at base.
func AutocompleteTemplate(base string) string {
	return base + RouteAutocomplete + "?q=" + types.PlaceholderSearchTerm
}

// TitleTemplate is the title URL template for a server at base.
func TitleTemplate(base string) string { return base + "/titles/" + types.PlaceholderLinkID }

// Lookup is what the server answers from.
type Lookup interface {
	FindCandidates(ctx context.Context, term string) []lookup.Candidate
	ResolveTitle(ctx context.Context, id string) string
}

// NewRouter builds the HTTP handler. gatherer backs /metrics and may be nil
// to leave the route out.
func NewRouter(svc Lookup, gatherer prometheus.Gatherer, m *metrics.Metrics, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log, m))
	r.Use(middleware.Recoverer)

	r.Get(RouteAutocomplete, func(w http.ResponseWriter, r *http.Request) {
		candidates := svc.FindCandidates(r.Context(), r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, candidates)
	})
	r.Get(RouteTitle, func(w http.ResponseWriter, r *http.Request) {
		title := svc.ResolveTitle(r.Context(), chi.URLParam(r, "id"))
		if title == "" {
			http.Error(w, "unknown link target", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, title)
	})
	r.Get(RouteHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "internallink"})
	})
	if gatherer != nil {
		r.Handle(RouteMetrics, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// requestLogger logs each request with its route pattern and counts it.
func requestLogger(log zerolog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.RecordHTTPRequest(route, strconv.Itoa(status))
			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Msg("request served")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Server runs the router until its context ends.
type Server struct {
	server *http.Server
	log    *logger.Logger
	dir    string
}

// New creates a server on addr. catalogDir is only reported in logs.
func New(addr string, handler http.Handler, log *logger.Logger, catalogDir string) *Server {
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
		dir: catalogDir,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.log.LogServerStart(s.server.Addr, s.dir)
	errc := make(chan error, 1)
	go func() {
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("lookup server: %w", err)
	case <-ctx.Done():
	}

	s.log.LogServerShutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
