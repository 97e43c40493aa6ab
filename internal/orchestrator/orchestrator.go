// File: internal/orchestrator/orchestrator.go
// Description: Composes the session gateway, normalizer and result cache
// into the two triage operations: scoping (feasibility analysis) and
// completion (implement-and-summarize). Dependencies arrive as
// interfaces, keeping the orchestrator decoupled and testable.

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/agentapi"
	"github.com/xkilldash9x/triage-cli/internal/normalize"
)

// scopePrefill biases the agent toward emitting a raw JSON object
// immediately instead of prose around a code fence.
const scopePrefill = "{"

// Orchestrator drives triage operations against the agent service and
// caches their canonical results. It holds no per-call state; a single
// instance serves concurrent orchestrations. Concurrent calls for the
// same (issue, kind) key race benignly on the cache with last writer
// wins; callers wanting exactly-once per key serialize above this layer.
type Orchestrator struct {
	agent   schemas.AgentClient
	store   schemas.ResultStore
	logger  *zap.Logger
	maxWait time.Duration
	now     func() time.Time
}

// New creates an Orchestrator. maxWait bounds each session wait; zero
// selects the gateway default.
func New(agent schemas.AgentClient, store schemas.ResultStore, logger *zap.Logger, maxWait time.Duration) (*Orchestrator, error) {
	if agent == nil || store == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxWait <= 0 {
		maxWait = agentapi.DefaultMaxWait
	}
	return &Orchestrator{
		agent:   agent,
		store:   store,
		logger:  logger.Named("orchestrator"),
		maxWait: maxWait,
		now:     time.Now,
	}, nil
}

// ScopeIssue produces the feasibility assessment for an issue. The
// returned bool reports whether the result was replayed from cache
// rather than freshly computed.
func (o *Orchestrator) ScopeIssue(ctx context.Context, issue schemas.Issue) (schemas.ScopeResult, bool, error) {
	if entry, ok, err := o.store.Get(ctx, issue.Number, schemas.KindScope); err != nil {
		return schemas.ScopeResult{}, false, fmt.Errorf("cache read failed: %w", err)
	} else if ok && !entry.Placeholder && entry.Scope != nil {
		o.logger.Info("Returning cached scope result", zap.Int("issue", issue.Number))
		return *entry.Scope, true, nil
	}

	o.logger.Info("Scoping issue",
		zap.String("repo", issue.Repository),
		zap.Int("issue", issue.Number),
		zap.String("title", issue.Title))

	sess, err := o.runSession(ctx, buildScopePrompt(issue), scopePrefill)
	if err != nil {
		return schemas.ScopeResult{}, false, err
	}

	result := normalize.ScopeFromSession(sess, issue.Number)
	entry := schemas.CacheEntry{
		IssueNumber: issue.Number,
		Kind:        schemas.KindScope,
		Scope:       &result,
		CachedAt:    o.now(),
	}
	if err := o.store.Put(ctx, entry); err != nil {
		// The result itself is sound; a cache write failure only costs a
		// recomputation on the next call.
		o.logger.Warn("Failed to cache scope result", zap.Int("issue", issue.Number), zap.Error(err))
	}

	o.logger.Info("Issue scoped",
		zap.Int("issue", issue.Number),
		zap.Float64("confidence_score", result.ConfidenceScore),
		zap.String("confidence_level", string(result.ConfidenceLevel)))
	return result, false, nil
}

// CompleteIssue implements an issue and reports the outcome. Completion
// is a two-stage protocol: stage A implements the fix and opens a change
// request, stage B runs a second session to self-report in the fixed
// summary schema. The agent cannot reliably do both in one turn.
//
// scope is optional prior guidance; nil produces an empty guidance
// section in the stage-A prompt.
func (o *Orchestrator) CompleteIssue(ctx context.Context, issue schemas.Issue, scope *schemas.ScopeResult) (schemas.CompletionResult, bool, error) {
	if entry, ok, err := o.store.Get(ctx, issue.Number, schemas.KindComplete); err != nil {
		return schemas.CompletionResult{}, false, fmt.Errorf("cache read failed: %w", err)
	} else if ok && !entry.Placeholder && entry.Completion != nil {
		o.logger.Info("Returning cached completion result", zap.Int("issue", issue.Number))
		return *entry.Completion, true, nil
	}

	_, prURL, err := o.CreateChangeRequest(ctx, issue, scope)
	if err != nil {
		return schemas.CompletionResult{}, false, err
	}

	result, err := o.GenerateSummary(ctx, issue, prURL)
	if err != nil {
		// Stage A's change request is durable at this point;
		// GenerateSummary can be re-run against prURL without
		// re-implementing anything.
		return schemas.CompletionResult{}, false, fmt.Errorf("summary stage failed (change request %q already exists): %w", prURL, err)
	}

	entry := schemas.CacheEntry{
		IssueNumber: issue.Number,
		Kind:        schemas.KindComplete,
		Completion:  &result,
		CachedAt:    o.now(),
	}
	if err := o.store.Put(ctx, entry); err != nil {
		o.logger.Warn("Failed to cache completion result", zap.Int("issue", issue.Number), zap.Error(err))
	}
	return result, false, nil
}

// CreateChangeRequest runs completion stage A on its own: implement the
// fix, open a change request, and extract its URL from the minimal
// response. Callers that poll stage completion themselves use this
// directly.
func (o *Orchestrator) CreateChangeRequest(ctx context.Context, issue schemas.Issue, scope *schemas.ScopeResult) (schemas.Session, string, error) {
	o.logger.Info("Starting implementation session",
		zap.String("repo", issue.Repository),
		zap.Int("issue", issue.Number),
		zap.Bool("with_scope_guidance", scope != nil))

	sess, err := o.runSession(ctx, buildImplementPrompt(issue, scope), "")
	if err != nil {
		return schemas.Session{}, "", err
	}

	prURL := normalize.PullRequestURLFromSession(sess)
	if prURL == "" {
		o.logger.Warn("Implementation session finished without a change request URL",
			zap.Int("issue", issue.Number),
			zap.String("session_id", sess.ID),
			zap.String("status", string(sess.Status)))
	}
	return sess, prURL, nil
}

// GenerateSummary runs completion stage B: a retrospective summary
// session, normalized into the canonical completion record. It is
// idempotently re-runnable against a known change-request URL, so a
// failed stage B never forces a repeat of stage A.
func (o *Orchestrator) GenerateSummary(ctx context.Context, issue schemas.Issue, prURL string) (schemas.CompletionResult, error) {
	sess, err := o.runSession(ctx, buildSummaryPrompt(issue, prURL), scopePrefill)
	if err != nil {
		return schemas.CompletionResult{}, err
	}

	result := normalize.CompletionFromSession(sess, issue.Number)
	if result.PullRequestURL == "" {
		// The stage-A URL is authoritative; the summary session only
		// echoes it back.
		result.PullRequestURL = prURL
	}
	return result, nil
}

// runSession is one full gateway round trip: create, then block until a
// terminal status.
func (o *Orchestrator) runSession(ctx context.Context, prompt, prefill string) (schemas.Session, error) {
	sess, err := o.agent.CreateSession(ctx, prompt, prefill)
	if err != nil {
		return schemas.Session{}, err
	}
	return o.agent.AwaitCompletion(ctx, sess.ID, o.maxWait)
}
