// File: internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/resultcache"
)

// fakeAgent scripts the agent service: each CreateSession consumes the
// next scripted session, and AwaitCompletion returns it as terminal.
type fakeAgent struct {
	sessions  []schemas.Session
	createErr error
	awaitErr  error
	prompts   []string
	prefills  []string
	calls     int
}

func (f *fakeAgent) CreateSession(ctx context.Context, prompt, prefill string) (schemas.Session, error) {
	f.prompts = append(f.prompts, prompt)
	f.prefills = append(f.prefills, prefill)
	if f.createErr != nil {
		return schemas.Session{}, f.createErr
	}
	sess := f.sessions[f.calls]
	f.calls++
	return schemas.Session{ID: sess.ID, Status: schemas.StatusRunning}, nil
}

func (f *fakeAgent) GetSession(ctx context.Context, sessionID string) (schemas.Session, error) {
	for _, s := range f.sessions {
		if s.ID == sessionID {
			return s, nil
		}
	}
	return schemas.Session{}, fmt.Errorf("unknown session %s", sessionID)
}

func (f *fakeAgent) AwaitCompletion(ctx context.Context, sessionID string, maxWait time.Duration) (schemas.Session, error) {
	if f.awaitErr != nil {
		return schemas.Session{}, f.awaitErr
	}
	return f.GetSession(ctx, sessionID)
}

var _ schemas.AgentClient = (*fakeAgent)(nil)

func testIssue() schemas.Issue {
	return schemas.Issue{
		Number:     123,
		Title:      "Fix memory leak in data processing module",
		Body:       "The pipeline leaks memory when processing large batches.",
		State:      schemas.IssueOpen,
		Repository: "acme/pipeline",
		Labels:     []string{"bug", "high-priority"},
	}
}

func newTestOrchestrator(t *testing.T, agent schemas.AgentClient) (*Orchestrator, schemas.ResultStore) {
	t.Helper()
	store := resultcache.NewMemoryStore(zap.NewNop())
	orch, err := New(agent, store, zap.NewNop(), time.Minute)
	require.NoError(t, err)
	return orch, store
}

func TestNewRejectsNilDependencies(t *testing.T) {
	_, err := New(nil, resultcache.NewMemoryStore(nil), zap.NewNop(), 0)
	assert.Error(t, err)
	_, err = New(&fakeAgent{}, nil, zap.NewNop(), 0)
	assert.Error(t, err)
}

// -- Scoping Tests --

func TestScopeIssue(t *testing.T) {
	t.Run("Fresh Analysis Is Normalized And Cached", func(t *testing.T) {
		agent := &fakeAgent{sessions: []schemas.Session{{
			ID:     "sess-scope",
			Status: schemas.StatusCompleted,
			StructuredOutput: map[string]any{
				"confidence_score":      0.92,
				"complexity_assessment": "Medium complexity",
				"estimated_effort":      "3-5 days",
				"action_plan":           []any{"profile the pipeline", "fix the leak"},
			},
		}}}
		orch, store := newTestOrchestrator(t, agent)

		result, cached, err := orch.ScopeIssue(context.Background(), testIssue())
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, 0.92, result.ConfidenceScore)
		assert.Equal(t, schemas.ConfidenceHigh, result.ConfidenceLevel)
		assert.Equal(t, "3-5 days", result.EstimatedEffort)

		// The prompt carries the issue and the JSON prefill hint.
		require.Len(t, agent.prompts, 1)
		assert.Contains(t, agent.prompts[0], "Fix memory leak in data processing module")
		assert.Contains(t, agent.prompts[0], "Do NOT begin implementing")
		assert.Equal(t, "{", agent.prefills[0])

		// The result landed in the cache.
		entry, ok, err := store.Get(context.Background(), 123, schemas.KindScope)
		require.NoError(t, err)
		require.True(t, ok)
		assert.False(t, entry.Placeholder)
		assert.Equal(t, 0.92, entry.Scope.ConfidenceScore)
	})

	t.Run("Cached Result Is Replayed Without A Session", func(t *testing.T) {
		agent := &fakeAgent{}
		orch, store := newTestOrchestrator(t, agent)

		prior := schemas.ScopeResult{IssueNumber: 123, ConfidenceScore: 0.6, ConfidenceLevel: schemas.ConfidenceMedium}
		require.NoError(t, store.Put(context.Background(), schemas.CacheEntry{
			IssueNumber: 123,
			Kind:        schemas.KindScope,
			Scope:       &prior,
			CachedAt:    time.Now(),
		}))

		result, cached, err := orch.ScopeIssue(context.Background(), testIssue())
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, 0.6, result.ConfidenceScore)
		assert.Empty(t, agent.prompts, "a cache hit must not start a session")
	})

	t.Run("Placeholder Entries Are Skipped", func(t *testing.T) {
		agent := &fakeAgent{sessions: []schemas.Session{{
			ID:               "sess-scope",
			Status:           schemas.StatusCompleted,
			StructuredOutput: map[string]any{"confidence_score": 0.9},
		}}}
		orch, store := newTestOrchestrator(t, agent)

		require.NoError(t, store.Put(context.Background(), schemas.CacheEntry{
			IssueNumber: 123,
			Kind:        schemas.KindScope,
			Scope:       &schemas.ScopeResult{IssueNumber: 123, ConfidenceScore: 0.99},
			Placeholder: true,
			CachedAt:    time.Now(),
		}))

		result, cached, err := orch.ScopeIssue(context.Background(), testIssue())
		require.NoError(t, err)
		assert.False(t, cached, "placeholder entries must not satisfy reads")
		assert.Equal(t, 0.9, result.ConfidenceScore)
		require.Len(t, agent.prompts, 1)
	})

	t.Run("Session Failure Propagates", func(t *testing.T) {
		agent := &fakeAgent{createErr: errors.New("service unavailable")}
		orch, _ := newTestOrchestrator(t, agent)

		_, _, err := orch.ScopeIssue(context.Background(), testIssue())
		assert.ErrorContains(t, err, "service unavailable")
	})
}

// -- Completion Tests --

func TestCompleteIssue(t *testing.T) {
	implementSession := schemas.Session{
		ID:               "sess-implement",
		Status:           schemas.StatusCompleted,
		StructuredOutput: map[string]any{"pull_request_url": "https://github.com/acme/pipeline/pull/77"},
	}
	summarySession := schemas.Session{
		ID:     "sess-summary",
		Status: schemas.StatusCompleted,
		StructuredOutput: map[string]any{
			"status":             "completed",
			"completion_summary": "Plugged the leak and added a regression test.",
			"files_modified":     []any{"internal/batch.go"},
			"success":            true,
			"confidence_score":   0.85,
		},
	}

	t.Run("Two Stage Flow", func(t *testing.T) {
		agent := &fakeAgent{sessions: []schemas.Session{implementSession, summarySession}}
		orch, store := newTestOrchestrator(t, agent)

		scope := &schemas.ScopeResult{IssueNumber: 123, ActionPlan: []string{"profile", "fix"}}
		result, cached, err := orch.CompleteIssue(context.Background(), testIssue(), scope)
		require.NoError(t, err)
		assert.False(t, cached)
		assert.True(t, result.Success)
		assert.Equal(t, "https://github.com/acme/pipeline/pull/77", result.PullRequestURL)
		assert.Equal(t, schemas.ConfidenceHigh, result.ConfidenceLevel)

		// Stage A gets the scope guidance, stage B gets the PR URL.
		require.Len(t, agent.prompts, 2)
		assert.Contains(t, agent.prompts[0], "profile")
		assert.Contains(t, agent.prompts[1], "pull/77")

		entry, ok, err := store.Get(context.Background(), 123, schemas.KindComplete)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, entry.Completion.Success)
	})

	t.Run("Without Prior Scope", func(t *testing.T) {
		agent := &fakeAgent{sessions: []schemas.Session{implementSession, summarySession}}
		orch, _ := newTestOrchestrator(t, agent)

		result, _, err := orch.CompleteIssue(context.Background(), testIssue(), nil)
		require.NoError(t, err)
		assert.True(t, result.Success)
	})

	t.Run("Summary Backfills Pull Request URL From Stage A", func(t *testing.T) {
		bareSummary := summarySession
		bareSummary.StructuredOutput = map[string]any{
			"status":             "completed",
			"completion_summary": "Done.",
			"success":            true,
		}
		agent := &fakeAgent{sessions: []schemas.Session{implementSession, bareSummary}}
		orch, _ := newTestOrchestrator(t, agent)

		result, _, err := orch.CompleteIssue(context.Background(), testIssue(), nil)
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/acme/pipeline/pull/77", result.PullRequestURL)
	})

	t.Run("Summary Failure Names The Durable Change Request", func(t *testing.T) {
		// Stage A succeeds, then every later await fails.
		agent := &fakeAgent{sessions: []schemas.Session{implementSession, {ID: "sess-summary"}}}
		failAfterFirst := &stageBFailer{inner: agent}
		orchB, err := New(failAfterFirst, resultcache.NewMemoryStore(nil), zap.NewNop(), time.Minute)
		require.NoError(t, err)

		_, _, err = orchB.CompleteIssue(context.Background(), testIssue(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
		assert.Contains(t, err.Error(), "pull/77")
	})

	t.Run("Cached Completion Is Replayed", func(t *testing.T) {
		agent := &fakeAgent{}
		orch, store := newTestOrchestrator(t, agent)

		prior := schemas.CompletionResult{IssueNumber: 123, Success: true, CompletionSummary: "done earlier"}
		require.NoError(t, store.Put(context.Background(), schemas.CacheEntry{
			IssueNumber: 123,
			Kind:        schemas.KindComplete,
			Completion:  &prior,
			CachedAt:    time.Now(),
		}))

		result, cached, err := orch.CompleteIssue(context.Background(), testIssue(), nil)
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, "done earlier", result.CompletionSummary)
		assert.Empty(t, agent.prompts)
	})
}

// stageBFailer passes stage A through and fails every later await.
type stageBFailer struct {
	inner  *fakeAgent
	awaits int
}

func (s *stageBFailer) CreateSession(ctx context.Context, prompt, prefill string) (schemas.Session, error) {
	return s.inner.CreateSession(ctx, prompt, prefill)
}

func (s *stageBFailer) GetSession(ctx context.Context, sessionID string) (schemas.Session, error) {
	return s.inner.GetSession(ctx, sessionID)
}

func (s *stageBFailer) AwaitCompletion(ctx context.Context, sessionID string, maxWait time.Duration) (schemas.Session, error) {
	s.awaits++
	if s.awaits > 1 {
		return schemas.Session{}, errors.New("summary session lost")
	}
	return s.inner.AwaitCompletion(ctx, sessionID, maxWait)
}

// -- Prompt Construction Tests --

func TestPrompts(t *testing.T) {
	issue := testIssue()

	t.Run("Scope Prompt Names The Expected Fields", func(t *testing.T) {
		prompt := buildScopePrompt(issue)
		for _, field := range []string{"confidence_score", "complexity_assessment", "estimated_effort", "required_skills", "action_plan", "risks"} {
			assert.Contains(t, prompt, field)
		}
		assert.Contains(t, prompt, "acme/pipeline")
		assert.Contains(t, prompt, "#123")
	})

	t.Run("Implement Prompt Handles Nil Scope", func(t *testing.T) {
		prompt := buildImplementPrompt(issue, nil)
		assert.Contains(t, prompt, "pull_request_url")
		assert.NotContains(t, strings.ToLower(prompt), "%!")
	})

	t.Run("Summary Prompt Names The Change Request", func(t *testing.T) {
		prompt := buildSummaryPrompt(issue, "https://github.com/acme/pipeline/pull/77")
		assert.Contains(t, prompt, "pull/77")
		assert.Contains(t, prompt, "completion_summary")
	})
}
