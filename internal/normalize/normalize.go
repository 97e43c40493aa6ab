// File: internal/normalize/normalize.go
// Description: Turns heterogeneous agent session payloads into canonical
// result records. Pure functions, no I/O. Field extraction uses ordered
// alias fallback because the agent service's response schema has drifted
// across versions and prompt revisions.

package normalize

import (
	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// Defaults substituted when the agent omits a field. These are recorded
// decisions, not errors: a degraded payload still normalizes to a
// complete record.
const (
	defaultConfidence = 0.5
	defaultComplexity = "Unknown complexity"
	defaultEffort     = "Unknown effort"
	defaultSummary    = "No summary available"
	defaultQuality    = "Not assessed"
	defaultCoverage   = "Not assessed"
	defaultStatus     = "unknown"

	// fallbackConfidence applies when a session completes without any
	// payload at all: the agent finished its work but skipped the JSON
	// envelope, which in practice correlates with success more often
	// than a flat 0.5 would suggest.
	fallbackConfidence = 0.7
	fallbackSummary    = "Agent completed the session without emitting a structured summary."
)

// ScopeFromSession normalizes a terminal session's payload into the
// canonical feasibility assessment for an issue.
func ScopeFromSession(sess schemas.Session, issueNumber int) schemas.ScopeResult {
	p := ResolvePayload(sess.StructuredOutput)
	obj := p.Object
	if obj == nil {
		obj = map[string]any{}
	}

	score := floatField(obj, defaultConfidence, "confidence_score", "confidence")
	return schemas.ScopeResult{
		IssueNumber:          issueNumber,
		ConfidenceScore:      score,
		ConfidenceLevel:      Classify(score),
		ComplexityAssessment: stringField(obj, defaultComplexity, "complexity_assessment", "complexity"),
		EstimatedEffort:      stringField(obj, defaultEffort, "estimated_effort", "effort"),
		RequiredSkills:       stringList(obj, "required_skills", "skills"),
		ActionPlan:           stringList(obj, "action_plan", "plan"),
		Risks:                stringList(obj, "risks"),
		SessionID:            sess.ID,
		SessionURL:           sess.URL,
	}
}

// CompletionFromSession normalizes a terminal session's payload into the
// canonical implementation outcome for an issue.
//
// An empty payload on a successfully completed session synthesizes a
// conservative fallback record instead of failing: the agent sometimes
// does the work but never emits the requested JSON envelope.
func CompletionFromSession(sess schemas.Session, issueNumber int) schemas.CompletionResult {
	p := ResolvePayload(sess.StructuredOutput)

	if p.Kind == PayloadEmpty && sess.Status == schemas.StatusCompleted {
		return schemas.CompletionResult{
			IssueNumber:           issueNumber,
			Status:                string(schemas.StatusCompleted),
			CompletionSummary:     fallbackSummary,
			FilesModified:         []string{},
			Success:               true,
			SessionID:             sess.ID,
			SessionURL:            sess.URL,
			ConfidenceScore:       fallbackConfidence,
			ConfidenceLevel:       Classify(fallbackConfidence),
			ComplexityAssessment:  defaultComplexity,
			ImplementationQuality: defaultQuality,
			RequiredSkills:        []string{},
			ActionPlan:            []string{},
			Risks:                 []string{},
			TestCoverage:          defaultCoverage,
		}
	}

	obj := p.Object
	if obj == nil {
		obj = map[string]any{}
	}

	score := floatField(obj, defaultConfidence, "confidence_score", "confidence")
	return schemas.CompletionResult{
		IssueNumber: issueNumber,
		Status:      stringField(obj, defaultStatus, "status"),
		// "text" is the wrapped form of a prose-only response; the
		// original words of the agent beat a canned default.
		CompletionSummary:     stringField(obj, defaultSummary, "completion_summary", "summary", "text"),
		FilesModified:         stringList(obj, "files_modified", "files"),
		PullRequestURL:        stringField(obj, "", "pull_request_url", "pr_url"),
		Success:               boolField(obj, false, "success"),
		SessionID:             sess.ID,
		SessionURL:            sess.URL,
		ConfidenceScore:       score,
		ConfidenceLevel:       Classify(score),
		ComplexityAssessment:  stringField(obj, defaultComplexity, "complexity_assessment", "complexity"),
		ImplementationQuality: stringField(obj, defaultQuality, "implementation_quality", "quality"),
		RequiredSkills:        stringList(obj, "required_skills", "skills"),
		ActionPlan:            stringList(obj, "action_plan", "plan"),
		Risks:                 stringList(obj, "risks"),
		TestCoverage:          stringField(obj, defaultCoverage, "test_coverage"),
	}
}

// PullRequestURLFromSession extracts just the change-request URL from a
// stage-A session, which is instructed to answer with a minimal JSON
// object. Returns "" when the agent gave nothing recognizable.
func PullRequestURLFromSession(sess schemas.Session) string {
	p := ResolvePayload(sess.StructuredOutput)
	if p.Object == nil {
		return ""
	}
	return stringField(p.Object, "", "pull_request_url", "pr_url", "url")
}
