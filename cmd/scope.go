// File: cmd/scope.go
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/internal/demo"
	"github.com/xkilldash9x/triage-cli/internal/observability"
	"github.com/xkilldash9x/triage-cli/internal/render"
)

// newScopeCmd creates and configures the `scope` command.
func newScopeCmd() *cobra.Command {
	scopeCmd := &cobra.Command{
		Use:   "scope <issue-number>",
		Short: "Run a scoping analysis for an issue",
		Long: `Delegates analysis of the issue to the coding-agent service and waits
for the session to finish. The result - a confidence score, complexity
assessment, action plan, and risks - is cached, so repeating the command
replays the stored analysis instead of starting a new session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appConfig

			number, err := strconv.Atoi(args[0])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid issue number %q", args[0])
			}

			if !cfg.HasCredentials() || cfg.Tracker.Repo == "" {
				logger.Info("No credentials configured, showing sample analysis", zap.Int("issue", number))
				fmt.Println(render.ScopePanel(demo.SampleScopeResult(number)))
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

			logger.Info("Scoping issue",
				zap.Int("issue", number),
				zap.String("repo", cfg.Tracker.Repo),
				zap.String("title", issue.Title))

			result, cached, err := components.Orchestrator.ScopeIssue(ctx, issue)
			if err != nil {
				logger.Error("Scoping failed", zap.Int("issue", number), zap.Error(err))
				return err
			}
			if cached {
				fmt.Println("Replaying cached analysis. Run 'triage-cli cache delete' to discard it.")
			}

			fmt.Println(render.ScopePanel(result))
			return nil
		},
	}

	return scopeCmd
}
