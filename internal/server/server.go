// File: internal/server/server.go
// Description: HTTP+JSON front end over the triage core. Credentials can
// be supplied per request via headers; each request builds its own
// clients from an explicit config value. Process-wide state is never
// mutated to simulate per-request credentials - two requests with
// different tokens must not be able to race each other.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/agentapi"
	"github.com/xkilldash9x/triage-cli/internal/config"
	"github.com/xkilldash9x/triage-cli/internal/demo"
	"github.com/xkilldash9x/triage-cli/internal/orchestrator"
	"github.com/xkilldash9x/triage-cli/internal/tracker"
)

// Credential override headers. Values supplied here apply to the single
// request only.
const (
	headerGithubToken = "X-Github-Token"
	headerAgentAPIKey = "X-Agent-Api-Key"
	headerRepo        = "X-Repo"
)

// apiResponse is the uniform JSON envelope for every endpoint.
type apiResponse struct {
	Success  bool   `json:"success"`
	DemoMode bool   `json:"demo_mode"`
	Issues   any    `json:"issues,omitempty"`
	Result   any    `json:"result,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
	Error    string `json:"error,omitempty"`
}

// clientFactories builds the collaborators for one request. Swappable in
// tests so handlers can be exercised without real back ends.
type clientFactories struct {
	newTracker func(cfg config.TrackerConfig, logger *zap.Logger) (schemas.TrackerClient, error)
	newAgent   func(cfg config.AgentConfig, logger *zap.Logger) (schemas.AgentClient, error)
}

// Server serves the triage API.
type Server struct {
	cfg       *config.Config
	store     schemas.ResultStore
	logger    *zap.Logger
	factories clientFactories
	// flights collapses concurrent orchestrations of the same
	// (issue, kind) key into one upstream call. The core accepts
	// last-writer-wins on its cache; this is the caller-side
	// exactly-once layer.
	flights singleflight.Group
	mux     *http.ServeMux
}

// New creates a Server over the given store and base configuration.
func New(cfg *config.Config, store schemas.ResultStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger.Named("server"),
		factories: clientFactories{
			newTracker: func(tc config.TrackerConfig, l *zap.Logger) (schemas.TrackerClient, error) {
				return tracker.NewClient(tc, l)
			},
			newAgent: func(ac config.AgentConfig, l *zap.Logger) (schemas.AgentClient, error) {
				return agentapi.NewClient(ac, l)
			},
		},
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /api/issues", s.handleListIssues)
	s.mux.HandleFunc("GET /api/scope/{number}", s.handleScope)
	s.mux.HandleFunc("GET /api/complete/{number}", s.handleComplete)
}

// ServeHTTP dispatches to the router with a request-scoped logger.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.Server.Addr,
		Handler:     s,
		ReadTimeout: s.cfg.Server.ReadTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Server.Addr))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestConfig derives the effective configuration for one request by
// overlaying header-supplied credentials on the base config. The base
// config is copied, never modified.
func (s *Server) requestConfig(r *http.Request) config.Config {
	cfg := *s.cfg
	if tok := r.Header.Get(headerGithubToken); tok != "" {
		cfg.Tracker.Token = tok
	}
	if key := r.Header.Get(headerAgentAPIKey); key != "" {
		cfg.Agent.APIKey = key
	}
	if repo := r.Header.Get(headerRepo); repo != "" {
		cfg.Tracker.Repo = repo
	}
	return cfg
}

// requestLogger tags the base logger with a fresh request id.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return s.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("path", r.URL.Path))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)
	cfg := s.requestConfig(r)

	if !cfg.HasCredentials() || cfg.Tracker.Repo == "" {
		s.writeJSON(w, http.StatusOK, apiResponse{Success: true, DemoMode: true, Issues: demo.SampleIssues()})
		return
	}

	tc, err := s.factories.newTracker(cfg.Tracker, logger)
	if err != nil {
		s.writeError(w, logger, err)
		return
	}
	issues, err := tc.ListIssues(r.Context(), cfg.Tracker.Repo, "open", 20)
	if err != nil {
		s.writeError(w, logger, err)
		return
	}
	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, Issues: issues})
}

func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	s.handleOperation(w, r, schemas.KindScope)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.handleOperation(w, r, schemas.KindComplete)
}

// handleOperation runs one triage operation for the issue in the path.
func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request, kind schemas.OperationKind) {
	logger := s.requestLogger(r)
	cfg := s.requestConfig(r)

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number <= 0 {
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Error: "invalid issue number"})
		return
	}

	if !cfg.HasCredentials() || cfg.Tracker.Repo == "" {
		resp := apiResponse{Success: true, DemoMode: true}
		if kind == schemas.KindScope {
			resp.Result = demo.SampleScopeResult(number)
		} else {
			resp.Result = demo.SampleCompletionResult(number)
		}
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	flightKey := fmt.Sprintf("%d:%s", number, kind)
	result, err, shared := s.flights.Do(flightKey, func() (any, error) {
		return s.orchestrate(r.Context(), cfg, logger, number, kind)
	})
	if err != nil {
		s.writeError(w, logger, err)
		return
	}

	op := result.(operationOutcome)
	s.writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Result:  op.result,
		Cached:  op.cached || shared,
	})
}

// operationOutcome carries one orchestration's result plus its replay flag.
type operationOutcome struct {
	result any
	cached bool
}

// orchestrate builds per-request clients and runs the requested
// operation end to end.
func (s *Server) orchestrate(ctx context.Context, cfg config.Config, logger *zap.Logger, number int, kind schemas.OperationKind) (any, error) {
	tc, err := s.factories.newTracker(cfg.Tracker, logger)
	if err != nil {
		return nil, err
	}
	agent, err := s.factories.newAgent(cfg.Agent, logger)
	if err != nil {
		return nil, err
	}
	orch, err := orchestrator.New(agent, s.store, logger, cfg.Agent.MaxWait)
	if err != nil {
		return nil, err
	}

	issue, err := tc.GetIssue(ctx, cfg.Tracker.Repo, number)
	if err != nil {
		return nil, err
	}

	switch kind {
	case schemas.KindScope:
		result, cached, err := orch.ScopeIssue(ctx, issue)
		if err != nil {
			return nil, err
		}
		return operationOutcome{result: result, cached: cached}, nil
	default:
		// Reuse a prior scope result as stage-A guidance when one exists.
		var scope *schemas.ScopeResult
		if entry, ok, err := s.store.Get(ctx, number, schemas.KindScope); err == nil && ok && !entry.Placeholder {
			scope = entry.Scope
		}
		result, cached, err := orch.CompleteIssue(ctx, issue, scope)
		if err != nil {
			return nil, err
		}
		return operationOutcome{result: result, cached: cached}, nil
	}
}

// writeError maps core error types to the distinct user-visible failure
// classes: tracker unreachable, agent service rejected, and agent
// service timed out imply different remediation.
func (s *Server) writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		credErr    *config.CredentialError
		trackerErr *tracker.Error
		svcErr     *agentapi.ServiceError
		timeoutErr *agentapi.TimeoutError
	)

	status := http.StatusBadGateway
	msg := err.Error()
	switch {
	case errors.As(err, &credErr):
		status = http.StatusUnauthorized
		msg = "invalid credentials: " + credErr.Error()
	case errors.As(err, &trackerErr):
		msg = "issue tracker request failed: " + trackerErr.Error()
	case errors.As(err, &timeoutErr):
		status = http.StatusGatewayTimeout
		msg = "agent service timed out: " + timeoutErr.Error()
	case errors.As(err, &svcErr):
		msg = "agent service rejected the request: " + svcErr.Error()
	default:
		status = http.StatusInternalServerError
	}

	logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	s.writeJSON(w, status, apiResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}
