// File: cmd/issues.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/internal/demo"
	"github.com/xkilldash9x/triage-cli/internal/observability"
	"github.com/xkilldash9x/triage-cli/internal/render"
	"github.com/xkilldash9x/triage-cli/internal/tracker"
)

// newIssuesCmd creates and configures the `issues` command.
func newIssuesCmd() *cobra.Command {
	issuesCmd := &cobra.Command{
		Use:   "issues",
		Short: "List open issues from the configured repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appConfig

			limit, _ := cmd.Flags().GetInt("limit")
			state, _ := cmd.Flags().GetString("state")

			// Without credentials, show the fixture issues so the
			// command stays explorable.
			if !cfg.HasCredentials() || cfg.Tracker.Repo == "" {
				logger.Info("No credentials configured, showing sample issues")
				fmt.Println(render.IssueTable(demo.SampleIssues()))
				return nil
			}

			trackerClient, err := tracker.NewClient(cfg.Tracker, logger)
			if err != nil {
				return err
			}

			issues, err := trackerClient.ListIssues(ctx, cfg.Tracker.Repo, state, limit)
			if err != nil {
				logger.Error("Failed to list issues", zap.String("repo", cfg.Tracker.Repo), zap.Error(err))
				return err
			}

			if len(issues) == 0 {
				fmt.Printf("No %s issues found in %s\n", state, cfg.Tracker.Repo)
				return nil
			}
			fmt.Println(render.IssueTable(issues))
			return nil
		},
	}

	issuesCmd.Flags().IntP("limit", "n", 20, "Maximum number of issues to list")
	issuesCmd.Flags().String("state", "open", "Issue state filter ('open', 'closed', 'all')")

	return issuesCmd
}
