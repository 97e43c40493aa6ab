// File: internal/render/render.go
// Description: Terminal rendering for triage results: an issue table and
// bordered result panels. Formatting only; all data arrives canonical.

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	boldStyle   = lipgloss.NewStyle().Bold(true)

	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	panelGreen = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("2")).
			Padding(0, 2)
	panelYellow = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 2)
	panelRed = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 2)
)

// confidenceStyle picks the text style matching a confidence level.
func confidenceStyle(level schemas.ConfidenceLevel) lipgloss.Style {
	switch level {
	case schemas.ConfidenceHigh:
		return greenStyle
	case schemas.ConfidenceMedium:
		return yellowStyle
	default:
		return redStyle
	}
}

// confidencePanel picks the panel border matching a confidence level.
func confidencePanel(level schemas.ConfidenceLevel) lipgloss.Style {
	switch level {
	case schemas.ConfidenceHigh:
		return panelGreen
	case schemas.ConfidenceMedium:
		return panelYellow
	default:
		return panelRed
	}
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// joinLimited joins up to n items, appending "..." when more exist.
func joinLimited(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:n], ", ") + "..."
}

// IssueTable renders a fixed-width table of issues.
func IssueTable(issues []schemas.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(fmt.Sprintf("%-8s %-52s %-8s %-28s %s", "Number", "Title", "State", "Labels", "Assignees")))
	for _, issue := range issues {
		fmt.Fprintf(&b, "%-8d %-52s %-8s %-28s %s\n",
			issue.Number,
			truncate(issue.Title, 50),
			issue.State,
			truncate(joinLimited(issue.Labels, 3), 26),
			joinLimited(issue.Assignees, 2))
	}
	return b.String()
}

// bulletList renders one bullet per line, or a dim "none" marker.
func bulletList(items []string) string {
	if len(items) == 0 {
		return dimStyle.Render("  (none)")
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "  • %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}

// numberedList renders ordered plan steps.
func numberedList(items []string) string {
	if len(items) == 0 {
		return dimStyle.Render("  (none)")
	}
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, item)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ScopePanel renders a feasibility assessment as a bordered panel whose
// border color follows the confidence level.
func ScopePanel(result schemas.ScopeResult) string {
	style := confidenceStyle(result.ConfidenceLevel)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", boldStyle.Render(fmt.Sprintf("Issue #%d Scope Analysis", result.IssueNumber)))
	fmt.Fprintf(&b, "%s %s\n", boldStyle.Render("Confidence Score:"),
		style.Render(fmt.Sprintf("%.2f (%s)", result.ConfidenceScore, result.ConfidenceLevel)))
	fmt.Fprintf(&b, "%s %s\n", boldStyle.Render("Complexity:"), result.ComplexityAssessment)
	fmt.Fprintf(&b, "%s %s\n\n", boldStyle.Render("Estimated Effort:"), result.EstimatedEffort)
	fmt.Fprintf(&b, "%s\n%s\n\n", boldStyle.Render("Required Skills:"), bulletList(result.RequiredSkills))
	fmt.Fprintf(&b, "%s\n%s\n\n", boldStyle.Render("Action Plan:"), numberedList(result.ActionPlan))
	fmt.Fprintf(&b, "%s\n%s\n\n", boldStyle.Render("Risks:"), bulletList(result.Risks))
	fmt.Fprintf(&b, "%s %s", boldStyle.Render("Agent Session:"), result.SessionURL)

	return confidencePanel(result.ConfidenceLevel).Render(b.String())
}

// CompletionPanel renders an implementation outcome; the border follows
// the success flag.
func CompletionPanel(result schemas.CompletionResult) string {
	style := greenStyle
	panel := panelGreen
	if !result.Success {
		style = redStyle
		panel = panelRed
	}

	prURL := result.PullRequestURL
	if prURL == "" {
		prURL = dimStyle.Render("None created")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", boldStyle.Render(fmt.Sprintf("Issue #%d Completion Result", result.IssueNumber)))
	fmt.Fprintf(&b, "%s %s\n", boldStyle.Render("Status:"), style.Render(result.Status))
	fmt.Fprintf(&b, "%s %s\n\n", boldStyle.Render("Success:"), style.Render(fmt.Sprintf("%t", result.Success)))
	fmt.Fprintf(&b, "%s\n  %s\n\n", boldStyle.Render("Summary:"), result.CompletionSummary)
	fmt.Fprintf(&b, "%s\n%s\n\n", boldStyle.Render("Files Modified:"), bulletList(result.FilesModified))
	fmt.Fprintf(&b, "%s %s\n", boldStyle.Render("Pull Request:"), prURL)
	fmt.Fprintf(&b, "%s %s", boldStyle.Render("Agent Session:"), result.SessionURL)

	return panel.Render(b.String())
}
