// File: internal/demo/fixtures_test.go
package demo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

func TestSampleIssues(t *testing.T) {
	issues := SampleIssues()
	require.NotEmpty(t, issues)

	seen := map[int]bool{}
	for _, is := range issues {
		assert.False(t, seen[is.Number], "issue numbers must be unique")
		seen[is.Number] = true
		assert.NotEmpty(t, is.Title)
		assert.Equal(t, schemas.IssueOpen, is.State)
	}
	assert.True(t, seen[123], "the canonical demo issue must be present")
}

func TestSampleScopeResult(t *testing.T) {
	t.Run("Known Issue", func(t *testing.T) {
		result := SampleScopeResult(123)
		assert.Equal(t, 123, result.IssueNumber)
		assert.NotEmpty(t, result.ActionPlan)
		// The fixture's level must agree with its score.
		assert.Equal(t, schemas.ConfidenceHigh, result.ConfidenceLevel)
	})

	t.Run("Unknown Issue Falls Back To The First Fixture", func(t *testing.T) {
		known := SampleScopeResult(123)
		unknown := SampleScopeResult(9999)

		// Identical content apart from the identity fields.
		diff := cmp.Diff(known, unknown,
			cmpopts.IgnoreFields(schemas.ScopeResult{}, "IssueNumber", "SessionID", "SessionURL"))
		assert.Empty(t, diff)
		assert.Equal(t, 9999, unknown.IssueNumber)
	})
}

func TestSampleCompletionResult(t *testing.T) {
	result := SampleCompletionResult(124)
	assert.Equal(t, 124, result.IssueNumber)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.PullRequestURL)
	assert.NotEmpty(t, result.FilesModified)
	assert.Equal(t, schemas.ConfidenceHigh, result.ConfidenceLevel)
}

func TestPlaceholderEntries(t *testing.T) {
	scope := ScopeEntry(123)
	assert.True(t, scope.Placeholder, "fixture entries must be tagged, never sniffed")
	assert.Equal(t, schemas.KindScope, scope.Kind)
	require.NotNil(t, scope.Scope)

	completion := CompletionEntry(123)
	assert.True(t, completion.Placeholder)
	assert.Equal(t, schemas.KindComplete, completion.Kind)
	require.NotNil(t, completion.Completion)
}
