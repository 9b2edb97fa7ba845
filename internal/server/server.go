// Package server implements the Inventa HTTP gateway.
//
// The gateway exposes a single conversational endpoint, POST /chat, that runs
// the user's query through the tool-calling chat loop against a per-request
// MCP tool session. Liveness, readiness, and Prometheus metrics endpoints are
// served alongside it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/inventa/internal/chat"
	"github.com/MrWong99/inventa/internal/config"
	"github.com/MrWong99/inventa/internal/health"
	"github.com/MrWong99/inventa/internal/mcp"
	"github.com/MrWong99/inventa/internal/observe"
	"github.com/MrWong99/inventa/pkg/provider/llm"
)

// shutdownTimeout bounds graceful drain of in-flight requests when Run's
// context is cancelled.
const shutdownTimeout = 10 * time.Second

// Server owns the HTTP listener and routes requests into the chat loop.
type Server struct {
	cfg     config.ServerConfig
	orch    *chat.Orchestrator
	dialer  mcp.Dialer
	metrics *observe.Metrics
	health  *health.Handler
}

// Option is a functional option for [New]. Use these to inject test doubles.
type Option func(*Server)

// WithMetrics overrides the instrument set used by the server and its
// middleware.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealthCheckers installs readiness checkers evaluated on /readyz.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(s *Server) { s.health = health.New(checkers...) }
}

// New creates a gateway [Server]. The orchestrator drives the chat loop and
// the dialer establishes a fresh MCP tool session for every /chat request.
func New(cfg config.ServerConfig, orch *chat.Orchestrator, dialer mcp.Dialer, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		orch:   orch,
		dialer: dialer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.health == nil {
		s.health = health.New()
	}
	return s
}

// Handler builds the full route table wrapped in the observability middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.Handle("GET /metrics", promhttp.Handler())
	s.health.Register(mux)

	return observe.Middleware(s.metrics)(mux)
}

// Run starts the HTTP listener and blocks until ctx is cancelled or the
// listener fails. In-flight requests are drained for up to shutdownTimeout
// after cancellation.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if s.cfg.TLS != nil {
			err = httpSrv.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen on %s: %w", s.cfg.ListenAddr, err)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ── /chat ────────────────────────────────────────────────────────────────────

// chatRequest is the POST /chat request body.
type chatRequest struct {
	Query string `json:"query"`
}

// chatResponse is the POST /chat success body.
type chatResponse struct {
	Response string `json:"response"`
}

// errorResponse is the body returned for all error statuses.
type errorResponse struct {
	Detail string `json:"detail"`
}

// handleChat runs one full chat loop for the request's query. A fresh tool
// session is dialed for every request and torn down when the request ends,
// whatever the outcome.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observe.Logger(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "query must not be empty"})
		return
	}

	log.Info("chat request received", "query", req.Query)

	sess, err := s.dialSession(ctx)
	if err != nil {
		log.Error("tool session dial failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Detail: "Error: Could not establish connection with backend agent.",
		})
		return
	}
	s.metrics.ActiveSessions.Add(ctx, 1)
	defer func() {
		s.metrics.ActiveSessions.Add(ctx, -1)
		if cerr := sess.Close(); cerr != nil {
			log.Warn("tool session close failed", "err", cerr)
		}
	}()

	outcome, err := s.orch.Run(ctx, req.Query, sess)
	if err != nil {
		var llmErr *llm.Error
		if errors.As(err, &llmErr) {
			log.Error("completion backend failed", "kind", llmErr.Kind.String(), "err", err)
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Detail: fmt.Sprintf("Error communicating with Language Model: %s", err),
			})
			return
		}
		log.Error("chat loop failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Detail: fmt.Sprintf("An unexpected server error occurred: %s", err),
		})
		return
	}

	log.Info("chat request completed",
		"iterations", outcome.Iterations,
		"exhausted", outcome.Exhausted,
	)
	writeJSON(w, http.StatusOK, chatResponse{Response: outcome.Response()})
}

// dialSession establishes the per-request MCP session and records the dial
// duration with an ok/error status attribute.
func (s *Server) dialSession(ctx context.Context) (mcp.Session, error) {
	start := time.Now()
	sess, err := s.dialer.Dial(ctx)

	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.SessionDialDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("status", status)))

	return sess, err
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"detail":"encoding error"}`, http.StatusInternalServerError)
	}
}
