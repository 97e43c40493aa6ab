package schemas

import (
	"context"
	"time"
)

// -- Agent Service Interface --

// AgentClient owns the transport contract with the asynchronous coding
// agent service. Sessions can take minutes to finish, so retrieval is
// split into a cheap single-request status check and a blocking
// poll-with-backoff wait.
type AgentClient interface {
	// CreateSession sends a prompt (and, optionally, a short prefill hint
	// nudging the agent's response format) to the service and returns the
	// new session in its initial, non-terminal status.
	CreateSession(ctx context.Context, prompt, prefill string) (Session, error)
	// GetSession fetches the current status and output for a session. It
	// never blocks beyond a single request's network timeout.
	GetSession(ctx context.Context, sessionID string) (Session, error)
	// AwaitCompletion polls GetSession with exponential backoff until the
	// session reaches a terminal status or maxWait elapses.
	AwaitCompletion(ctx context.Context, sessionID string, maxWait time.Duration) (Session, error)
}

// -- Issue Tracker Interface --

// TrackerClient is the thin read/write wrapper over the issue tracker.
// Any failure is fatal to the calling orchestration step; the core never
// retries tracker calls.
type TrackerClient interface {
	ListIssues(ctx context.Context, repo, state string, limit int) ([]Issue, error)
	GetIssue(ctx context.Context, repo string, number int) (Issue, error)
	AddComment(ctx context.Context, repo string, number int, body string) (CommentReceipt, error)
	DeleteComment(ctx context.Context, repo string, commentID int64) error
	ListComments(ctx context.Context, repo string, number int) ([]Comment, error)
}

// -- Result Cache Interface --

// ResultStore persists one canonical result per (issue number, operation
// kind) key. Backing storage is an implementation choice; last writer
// wins on concurrent puts for the same key.
type ResultStore interface {
	// Get returns the entry for the key, or ok=false when absent.
	Get(ctx context.Context, issueNumber int, kind OperationKind) (CacheEntry, bool, error)
	// Put stores the entry, replacing any prior entry for the same key.
	Put(ctx context.Context, entry CacheEntry) error
	// Delete removes the entry for the key, if present.
	Delete(ctx context.Context, issueNumber int, kind OperationKind) error
	// Clear removes every entry.
	Clear(ctx context.Context) error
}
