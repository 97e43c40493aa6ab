// File: internal/orchestrator/prompts.go
package orchestrator

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// scopePromptTemplate asks for a structured feasibility assessment. The
// exact field names matter: the normalizer's primary aliases are the ones
// requested here, and the closing instruction keeps the agent from
// starting implementation work during scoping.
const scopePromptTemplate = `Please analyze this issue and provide a structured assessment:

Repository: %s
Issue #%d: %s

Description:
%s

Labels: %s
State: %s
URL: %s

Please provide a structured analysis with:
1. confidence_score (0.0 to 1.0) - how confident you are this can be completed successfully
2. complexity_assessment - brief description of complexity
3. estimated_effort - time estimate (e.g., "2-4 hours", "1-2 days")
4. required_skills - list of technical skills needed
5. action_plan - step-by-step plan to complete the issue
6. risks - potential risks or blockers

Format your response as a single JSON object with these exact field names.
Do NOT begin implementing the issue; this is an analysis-only request.`

// implementPromptTemplate drives stage A of completion: do the work, open
// a change request, and answer with nothing but the request URL. Asking
// for the full summary in the same turn produces unreliable output, so
// that is deferred to a second session.
const implementPromptTemplate = `Please complete this issue by implementing the necessary changes:

Repository: %s
Issue #%d: %s

Description:
%s

Labels: %s
URL: %s
%s
Please:
1. Clone the repository if needed
2. Analyze the codebase to understand the issue
3. Implement the necessary changes
4. Create tests if appropriate
5. Create a pull request with your changes

When you are done, respond with ONLY a minimal JSON object:
{"pull_request_url": "<URL of the pull request you created>"}`

// summaryPromptTemplate drives stage B: a retrospective self-report in
// the fixed completion schema.
const summaryPromptTemplate = `You previously implemented a fix for this issue:

Repository: %s
Issue #%d: %s
%s
Please summarize retrospectively what was done. Provide a structured response with:
- status: "completed" or "failed"
- completion_summary: brief summary of what was done
- files_modified: list of files that were changed
- pull_request_url: URL of the created pull request (if any)
- success: boolean indicating if the task was completed successfully
- confidence_score (0.0 to 1.0)
- complexity_assessment: brief description of complexity
- implementation_quality: brief quality self-assessment
- required_skills: list of technical skills that were needed
- action_plan: the steps that were actually taken
- risks: remaining risks or follow-ups
- test_coverage: brief description of test coverage

Format your response as a single JSON object with these exact field names.`

// buildScopePrompt renders the analysis prompt for one issue.
func buildScopePrompt(issue schemas.Issue) string {
	return fmt.Sprintf(scopePromptTemplate,
		issue.Repository, issue.Number, issue.Title,
		issue.Body,
		strings.Join(issue.Labels, ", "), issue.State, issue.URL)
}

// buildImplementPrompt renders the stage-A prompt, embedding the prior
// scope assessment as guidance when one exists. A nil scope simply yields
// an empty guidance section.
func buildImplementPrompt(issue schemas.Issue, scope *schemas.ScopeResult) string {
	var guidance string
	if scope != nil {
		guidance = fmt.Sprintf(`
Previous Analysis:
- Confidence Score: %.2f
- Estimated Effort: %s
- Action Plan: %s
`, scope.ConfidenceScore, scope.EstimatedEffort, strings.Join(scope.ActionPlan, ", "))
	}
	return fmt.Sprintf(implementPromptTemplate,
		issue.Repository, issue.Number, issue.Title,
		issue.Body,
		strings.Join(issue.Labels, ", "), issue.URL,
		guidance)
}

// buildSummaryPrompt renders the stage-B prompt. The change-request URL
// is referenced when known so the summary session can anchor on it.
func buildSummaryPrompt(issue schemas.Issue, prURL string) string {
	var prRef string
	if prURL != "" {
		prRef = fmt.Sprintf("\nPull request: %s\n", prURL)
	}
	return fmt.Sprintf(summaryPromptTemplate,
		issue.Repository, issue.Number, issue.Title, prRef)
}
