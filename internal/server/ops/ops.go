// Package ops serves the liveness and readiness probes of the server.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/gorilla/mux"
)

// CheckTimeout bounds every readiness check.
const CheckTimeout = 2 * time.Second

// Check reports whether a dependency is usable.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type Server struct {
	address string
	checks  []Check
	logger  logging.Logger
}

func NewServer(address string, logger logging.Logger, checks ...Check) *Server {
	return &Server{
		address: address,
		checks:  checks,
		logger:  logger.With("module", "ops_server"),
	}
}

// Handler returns the router with /healthz and /readyz.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	return router
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, readiness{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := readiness{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	code := http.StatusOK

	for _, c := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, CheckTimeout)
		err := c.Run(cctx)
		cancel()

		if err != nil {
			s.logger.Warn(ctx, "Readiness check failed", "check", c.Name, "error", err)
			res.Checks[c.Name] = err.Error()
			res.Status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		res.Checks[c.Name] = "ok"
	}

	s.writeJSON(ctx, w, code, res)
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(ctx, "failed to write body to http response", "error", err)
	}
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping ops server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting ops server", "address", s.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
