package schemas

import (
	"time"
)

// -- Triage Result Schemas --

// ConfidenceLevel is the bucketed form of a confidence score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// OperationKind identifies which triage operation produced a result.
type OperationKind string

const (
	KindScope    OperationKind = "scope"
	KindComplete OperationKind = "complete"
)

// ScopeResult is the canonical feasibility assessment for one issue.
// Immutable once constructed. ConfidenceLevel is always derived from
// ConfidenceScore, never set independently.
type ScopeResult struct {
	IssueNumber          int             `json:"issue_number"`
	ConfidenceScore      float64         `json:"confidence_score"`
	ConfidenceLevel      ConfidenceLevel `json:"confidence_level"`
	ComplexityAssessment string          `json:"complexity_assessment"`
	EstimatedEffort      string          `json:"estimated_effort"`
	RequiredSkills       []string        `json:"required_skills"`
	ActionPlan           []string        `json:"action_plan"`
	Risks                []string        `json:"risks"`
	SessionID            string          `json:"session_id"`
	SessionURL           string          `json:"session_url"`
}

// CompletionResult is the canonical implementation outcome for one issue.
// Completion analysis reuses the scoping vocabulary, so the confidence,
// complexity, skills, plan and risk fields mirror ScopeResult.
type CompletionResult struct {
	IssueNumber           int             `json:"issue_number"`
	Status                string          `json:"status"`
	CompletionSummary     string          `json:"completion_summary"`
	FilesModified         []string        `json:"files_modified"`
	PullRequestURL        string          `json:"pull_request_url,omitempty"`
	Success               bool            `json:"success"`
	SessionID             string          `json:"session_id"`
	SessionURL            string          `json:"session_url"`
	ConfidenceScore       float64         `json:"confidence_score"`
	ConfidenceLevel       ConfidenceLevel `json:"confidence_level"`
	ComplexityAssessment  string          `json:"complexity_assessment"`
	ImplementationQuality string          `json:"implementation_quality"`
	RequiredSkills        []string        `json:"required_skills"`
	ActionPlan            []string        `json:"action_plan"`
	Risks                 []string        `json:"risks"`
	TestCoverage          string          `json:"test_coverage"`
}

// CacheEntry is a persisted canonical result addressed by (issue number,
// operation kind). At most one entry exists per key; a later write
// replaces the earlier one. Placeholder marks fixture data explicitly so
// live orchestrations never have to infer it from content.
type CacheEntry struct {
	IssueNumber int               `json:"issue_number"`
	Kind        OperationKind     `json:"kind"`
	Scope       *ScopeResult      `json:"scope,omitempty"`
	Completion  *CompletionResult `json:"completion,omitempty"`
	Placeholder bool              `json:"placeholder"`
	CachedAt    time.Time         `json:"cached_at"`
}
