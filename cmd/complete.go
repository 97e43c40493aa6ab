// File: cmd/complete.go
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/demo"
	"github.com/xkilldash9x/triage-cli/internal/observability"
	"github.com/xkilldash9x/triage-cli/internal/render"
)

// newCompleteCmd creates and configures the `complete` command.
func newCompleteCmd() *cobra.Command {
	completeCmd := &cobra.Command{
		Use:   "complete <issue-number>",
		Short: "Delegate implementation of an issue to the agent service",
		Long: `Runs the two-stage completion flow: a first session implements the
change and opens a pull request, a second session writes the structured
summary. A cached scoping analysis, when present, is passed to the
implementation session as guidance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appConfig

			number, err := strconv.Atoi(args[0])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid issue number %q", args[0])
			}
			scopeFirst, _ := cmd.Flags().GetBool("scope-first")

			if !cfg.HasCredentials() || cfg.Tracker.Repo == "" {
				logger.Info("No credentials configured, showing sample completion", zap.Int("issue", number))
				fmt.Println(render.CompletionPanel(demo.SampleCompletionResult(number)))
				return nil
			}

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			issue, err := components.Tracker.GetIssue(ctx, cfg.Tracker.Repo, number)
			if err != nil {
				return err
			}

			var scope *schemas.ScopeResult
			if scopeFirst {
				result, cached, err := components.Orchestrator.ScopeIssue(ctx, issue)
				if err != nil {
					logger.Error("Pre-completion scoping failed", zap.Int("issue", number), zap.Error(err))
					return err
				}
				logger.Info("Scoping finished",
					zap.Int("issue", number),
					zap.Bool("cached", cached),
					zap.Float64("confidence", result.ConfidenceScore))
				scope = &result
			} else if entry, ok, err := components.Store.Get(ctx, number, schemas.KindScope); err == nil && ok && !entry.Placeholder {
				// Reuse a prior analysis as guidance when one exists.
				scope = entry.Scope
			}

			logger.Info("Starting completion",
				zap.Int("issue", number),
				zap.String("repo", cfg.Tracker.Repo),
				zap.Bool("with_scope_guidance", scope != nil))

			result, cached, err := components.Orchestrator.CompleteIssue(ctx, issue, scope)
			if err != nil {
				logger.Error("Completion failed", zap.Int("issue", number), zap.Error(err))
				return err
			}
			if cached {
				fmt.Println("Replaying cached completion. Run 'triage-cli cache delete' to discard it.")
			}

			fmt.Println(render.CompletionPanel(result))
			if result.PullRequestURL != "" {
				fmt.Printf("Pull request: %s\n", result.PullRequestURL)
			}
			return nil
		},
	}

	completeCmd.Flags().Bool("scope-first", false, "Run a scoping analysis before implementing")

	return completeCmd
}
