// File: internal/server/server_test.go
package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/agentapi"
	"github.com/xkilldash9x/triage-cli/internal/config"
	"github.com/xkilldash9x/triage-cli/internal/resultcache"
	"github.com/xkilldash9x/triage-cli/internal/tracker"
)

// -- Fakes --

type fakeTracker struct {
	issues map[int]schemas.Issue
	err    error
	token  string
}

func (f *fakeTracker) ListIssues(ctx context.Context, repo, state string, limit int) ([]schemas.Issue, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]schemas.Issue, 0, len(f.issues))
	for _, is := range f.issues {
		out = append(out, is)
	}
	return out, nil
}

func (f *fakeTracker) GetIssue(ctx context.Context, repo string, number int) (schemas.Issue, error) {
	if f.err != nil {
		return schemas.Issue{}, f.err
	}
	is, ok := f.issues[number]
	if !ok {
		return schemas.Issue{}, &tracker.Error{Repo: repo, Number: number, Op: "get_issue", Err: context.Canceled}
	}
	return is, nil
}

func (f *fakeTracker) AddComment(ctx context.Context, repo string, number int, body string) (schemas.CommentReceipt, error) {
	return schemas.CommentReceipt{}, nil
}

func (f *fakeTracker) DeleteComment(ctx context.Context, repo string, commentID int64) error {
	return nil
}

func (f *fakeTracker) ListComments(ctx context.Context, repo string, number int) ([]schemas.Comment, error) {
	return nil, nil
}

type fakeAgent struct {
	mu       sync.Mutex
	creates  atomic.Int32
	output   any
	err      error
	blockFor time.Duration
}

func (f *fakeAgent) CreateSession(ctx context.Context, prompt, prefill string) (schemas.Session, error) {
	f.creates.Add(1)
	if f.err != nil {
		return schemas.Session{}, f.err
	}
	return schemas.Session{ID: "sess-1", Status: schemas.StatusRunning}, nil
}

func (f *fakeAgent) GetSession(ctx context.Context, sessionID string) (schemas.Session, error) {
	return schemas.Session{ID: sessionID, Status: schemas.StatusCompleted, StructuredOutput: f.output}, nil
}

func (f *fakeAgent) AwaitCompletion(ctx context.Context, sessionID string, maxWait time.Duration) (schemas.Session, error) {
	if f.blockFor > 0 {
		time.Sleep(f.blockFor)
	}
	if f.err != nil {
		return schemas.Session{}, f.err
	}
	return f.GetSession(ctx, sessionID)
}

// -- Harness --

func testConfig() *config.Config {
	return &config.Config{
		Agent: config.AgentConfig{
			BaseURL:        "https://agent.example",
			RequestTimeout: time.Second,
			MaxWait:        time.Minute,
			PollRate:       100,
		},
		Cache:  config.CacheConfig{Backend: "memory"},
		Server: config.ServerConfig{Addr: "127.0.0.1:0", ReadTimeout: time.Second, ShutdownTimeout: time.Second},
	}
}

// newTestServer wires a Server to fakes. Handed-out factories capture the
// credentials they were called with so header overrides are observable.
func newTestServer(t *testing.T, cfg *config.Config, agent *fakeAgent, issues map[int]schemas.Issue) (*Server, *[]string) {
	t.Helper()
	store := resultcache.NewMemoryStore(zap.NewNop())
	srv := New(cfg, store, zap.NewNop())

	var seenTokens []string
	srv.factories.newTracker = func(tc config.TrackerConfig, l *zap.Logger) (schemas.TrackerClient, error) {
		seenTokens = append(seenTokens, tc.Token)
		return &fakeTracker{issues: issues, token: tc.Token}, nil
	}
	srv.factories.newAgent = func(ac config.AgentConfig, l *zap.Logger) (schemas.AgentClient, error) {
		return agent, nil
	}
	return srv, &seenTokens
}

func doJSON(t *testing.T, srv *Server, path string, headers map[string]string) (int, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

var liveHeaders = map[string]string{
	"X-Github-Token":  "ghp_live",
	"X-Agent-Api-Key": "agent_live",
	"X-Repo":          "acme/pipeline",
}

// -- Tests --

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &fakeAgent{}, nil)
	code, resp := doJSON(t, srv, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestDemoModeWithoutCredentials(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &fakeAgent{}, nil)

	for _, path := range []string{"/api/issues", "/api/scope/123", "/api/complete/123"} {
		t.Run(path, func(t *testing.T) {
			code, resp := doJSON(t, srv, path, nil)
			assert.Equal(t, http.StatusOK, code)
			assert.True(t, resp.Success)
			assert.True(t, resp.DemoMode, "without credentials every endpoint serves fixtures")
		})
	}
}

func TestHeaderCredentialsSelectLiveMode(t *testing.T) {
	agent := &fakeAgent{output: map[string]any{"confidence_score": 0.9}}
	issues := map[int]schemas.Issue{42: {Number: 42, Title: "Fix it", Repository: "acme/pipeline"}}
	srv, seenTokens := newTestServer(t, testConfig(), agent, issues)

	code, resp := doJSON(t, srv, "/api/scope/42", liveHeaders)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.False(t, resp.DemoMode)

	// The per-request token reached the factory; the base config stays
	// untouched for the next request.
	require.NotEmpty(t, *seenTokens)
	assert.Equal(t, "ghp_live", (*seenTokens)[0])
	assert.Empty(t, srv.cfg.Tracker.Token)

	// A follow-up request without headers drops back to demo mode.
	_, resp = doJSON(t, srv, "/api/scope/42", nil)
	assert.True(t, resp.DemoMode)
}

func TestInvalidIssueNumber(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &fakeAgent{}, nil)

	for _, path := range []string{"/api/scope/abc", "/api/scope/0", "/api/scope/-3"} {
		code, resp := doJSON(t, srv, path, liveHeaders)
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.Contains(t, resp.Error, "invalid issue number")
	}
}

func TestErrorMapping(t *testing.T) {
	t.Run("Agent Timeout Is 504", func(t *testing.T) {
		agent := &fakeAgent{err: &agentapi.TimeoutError{SessionID: "sess-1", MaxWait: time.Minute}}
		issues := map[int]schemas.Issue{42: {Number: 42}}
		srv, _ := newTestServer(t, testConfig(), agent, issues)

		code, resp := doJSON(t, srv, "/api/scope/42", liveHeaders)
		assert.Equal(t, http.StatusGatewayTimeout, code)
		assert.Contains(t, resp.Error, "agent service timed out")
	})

	t.Run("Agent Rejection Is 502", func(t *testing.T) {
		agent := &fakeAgent{err: &agentapi.ServiceError{Op: "create_session", StatusCode: 503, Body: "overloaded"}}
		issues := map[int]schemas.Issue{42: {Number: 42}}
		srv, _ := newTestServer(t, testConfig(), agent, issues)

		code, resp := doJSON(t, srv, "/api/scope/42", liveHeaders)
		assert.Equal(t, http.StatusBadGateway, code)
		assert.Contains(t, resp.Error, "agent service rejected")
	})

	t.Run("Tracker Failure Is 502", func(t *testing.T) {
		srv, _ := newTestServer(t, testConfig(), &fakeAgent{}, nil)

		code, resp := doJSON(t, srv, "/api/scope/42", liveHeaders)
		assert.Equal(t, http.StatusBadGateway, code)
		assert.Contains(t, resp.Error, "issue tracker request failed")
	})
}

func TestConcurrentScopesShareOneSession(t *testing.T) {
	agent := &fakeAgent{
		output:   map[string]any{"confidence_score": 0.9},
		blockFor: 50 * time.Millisecond,
	}
	issues := map[int]schemas.Issue{42: {Number: 42, Repository: "acme/pipeline"}}
	srv, _ := newTestServer(t, testConfig(), agent, issues)

	const n = 8
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], _ = doJSON(t, srv, "/api/scope/42", liveHeaders)
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	// All eight requests collapsed into one agent session.
	assert.Equal(t, int32(1), agent.creates.Load())
}

func TestScopeResultIsCachedAcrossRequests(t *testing.T) {
	agent := &fakeAgent{output: map[string]any{"confidence_score": 0.9}}
	issues := map[int]schemas.Issue{42: {Number: 42, Repository: "acme/pipeline"}}
	srv, _ := newTestServer(t, testConfig(), agent, issues)

	_, first := doJSON(t, srv, "/api/scope/42", liveHeaders)
	require.True(t, first.Success)

	_, second := doJSON(t, srv, "/api/scope/42", liveHeaders)
	assert.True(t, second.Success)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), agent.creates.Load(), "the second request must replay the cache")
}
