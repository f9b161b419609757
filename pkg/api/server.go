// Package api exposes the instance registry over JSON-over-HTTP (spec
// §6): a Go 1.22+ enhanced http.ServeMux routes each of the fixed
// endpoints to the matching Registry call, with a thin middleware chain
// handling bearer-token extraction, request tracing, metrics, and
// structured logging.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/statekeep/pkg/engine"
	"github.com/cuemby/statekeep/pkg/instance"
	"github.com/cuemby/statekeep/pkg/log"
	"github.com/cuemby/statekeep/pkg/metrics"
)

// Server wires a *instance.Registry into the fixed endpoint table.
type Server struct {
	registry *instance.Registry
	mux      *http.ServeMux

	// shutdownEnabled gates POST /__shutdown (an E2E-only convenience).
	shutdownEnabled bool
	shutdownCh      chan struct{}
}

// NewServer builds the routed mux. shutdownEnabled controls whether
// POST /__shutdown is wired at all — it is a test/E2E convenience, not
// a production control surface.
func NewServer(registry *instance.Registry, shutdownEnabled bool) *Server {
	s := &Server{
		registry:        registry,
		mux:             http.NewServeMux(),
		shutdownEnabled: shutdownEnabled,
		shutdownCh:      make(chan struct{}),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{instanceId}/config", s.handleConfig)
	s.mux.HandleFunc("GET /{instanceId}/stateVersion", s.handleStateVersion)
	s.mux.HandleFunc("GET /{instanceId}/algorithms", s.handleAlgorithms)
	s.mux.HandleFunc("GET /{instanceId}/state/player/{playerId}", s.handlePlayerState)
	s.mux.HandleFunc("GET /{instanceId}/character/{characterId}/stats", s.handleCharacterStats)
	s.mux.HandleFunc("POST /{instanceId}/tx", s.handleTx)
	s.mux.Handle("/metrics", metrics.Handler())

	if shutdownEnabled {
		s.mux.HandleFunc("POST /__shutdown", s.handleShutdown)
	}

	return s
}

// Handler returns the fully wrapped root handler (routing + middleware).
func (s *Server) Handler() http.Handler {
	return withMiddleware(s.mux)
}

// Start runs the HTTP server at addr until the process is signaled to
// stop or the shutdown endpoint fires.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-s.shutdownCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// ShutdownCh exposes the channel an external signal handler can select
// on alongside the /__shutdown endpoint.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Config())
}

func (s *Server) handleStateVersion(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("instanceId")
	view, err := s.registry.StateVersion(instanceID)
	if err != nil {
		writeInstanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Algorithms())
}

func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("instanceId")
	playerID := r.PathValue("playerId")

	view, err := s.registry.PlayerState(instanceID, bearerToken(r), playerID)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCharacterStats(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("instanceId")
	characterID := r.PathValue("characterId")

	result, err := s.registry.CharacterStats(instanceID, bearerToken(r), characterID)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTx(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("instanceId")

	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, engine.TransportError{
			ErrorCode:    "MALFORMED_REQUEST",
			ErrorMessage: "request body is not valid JSON: " + err.Error(),
		})
		return
	}

	out := s.registry.Process(instanceID, bearerToken(r), req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(out.StatusCode)
	_, _ = w.Write(out.Body)
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	log.WithComponent("api").Warn().Msg("received administrative shutdown request")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shutting down"})
	close(s.shutdownCh)
}

// bearerToken extracts the opaque key from "Authorization: Bearer <token>",
// tolerating a bare token with no scheme for test convenience.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return rest
	}
	return header
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeInstanceError(w http.ResponseWriter, err error) {
	if _, ok := err.(*instance.ErrInstanceNotFound); ok {
		writeJSON(w, http.StatusNotFound, engine.TransportError{
			ErrorCode:    engine.ErrInstanceNotFound,
			ErrorMessage: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, engine.TransportError{
		ErrorCode:    engine.ErrConfigNotFound,
		ErrorMessage: err.Error(),
	})
}

// writeViewError maps the read-view error types from pkg/engine and
// pkg/instance onto the read-path status codes: instance
// resolution failures and unauthorized access are transport-shaped,
// missing-player and missing-character are domain-shaped 404s.
func writeViewError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *instance.ErrInstanceNotFound:
		writeJSON(w, http.StatusNotFound, engine.TransportError{
			ErrorCode:    engine.ErrInstanceNotFound,
			ErrorMessage: err.Error(),
		})
	case *engine.ErrUnauthorizedView:
		writeJSON(w, http.StatusUnauthorized, engine.TransportError{
			ErrorCode:    engine.ErrUnauthorized,
			ErrorMessage: "no actor resolves to the supplied bearer token, or the actor does not own this resource",
		})
	case *engine.ErrPlayerNotFoundView:
		writeJSON(w, http.StatusNotFound, engine.TransportError{
			ErrorCode:    engine.ErrPlayerNotFound,
			ErrorMessage: err.Error(),
		})
	case *engine.ErrCharacterNotFoundView:
		writeJSON(w, http.StatusNotFound, engine.TransportError{
			ErrorCode:    engine.ErrCharacterNotFound,
			ErrorMessage: err.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, engine.TransportError{
			ErrorCode:    engine.ErrConfigNotFound,
			ErrorMessage: err.Error(),
		})
	}
}

// HealthResponse is the liveness body for GET /health — a bare
// liveness document; no auth required.
type HealthResponse struct {
	Status string `json:"status"`
}

// withMiddleware wraps next with request tracing, structured logging,
// and Prometheus request metrics.
func withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Request-Id", requestID)

		timer := metrics.NewTimer()
		next.ServeHTTP(rec, r)

		elapsed := timer.Duration()
		status := statusClass(rec.status)
		metrics.APIRequestsTotal.WithLabelValues(r.Method, status).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())

		log.WithComponent("api").Info().
			Str("requestId", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("handled request")
	})
}

type requestIDKey struct{}

// RequestID returns the trace id withMiddleware attached to ctx, or ""
// if none was attached (requests made outside the HTTP server).
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
