// File: cmd/cache.go
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/observability"
	"github.com/xkilldash9x/triage-cli/internal/resultcache"
)

// newCacheCmd creates the `cache` command group.
func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached triage results",
	}

	cacheCmd.AddCommand(newCacheClearCmd())
	cacheCmd.AddCommand(newCacheDeleteCmd())

	return cacheCmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			store, closeStore, err := resultcache.FromConfig(ctx, appConfig.Cache, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Clear(ctx); err != nil {
				logger.Error("Failed to clear result cache", zap.Error(err))
				return err
			}
			fmt.Println("Result cache cleared.")
			return nil
		},
	}
}

func newCacheDeleteCmd() *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete <issue-number>",
		Short: "Remove the cached results for one issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			number, err := strconv.Atoi(args[0])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid issue number %q", args[0])
			}

			store, closeStore, err := resultcache.FromConfig(ctx, appConfig.Cache, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			kindFlag, _ := cmd.Flags().GetString("kind")
			var kinds []schemas.OperationKind
			switch kindFlag {
			case "scope":
				kinds = []schemas.OperationKind{schemas.KindScope}
			case "complete":
				kinds = []schemas.OperationKind{schemas.KindComplete}
			case "all":
				kinds = []schemas.OperationKind{schemas.KindScope, schemas.KindComplete}
			default:
				return fmt.Errorf("invalid --kind %q: must be 'scope', 'complete' or 'all'", kindFlag)
			}

			for _, kind := range kinds {
				if err := store.Delete(ctx, number, kind); err != nil {
					logger.Error("Failed to delete cached result",
						zap.Int("issue", number),
						zap.String("kind", string(kind)),
						zap.Error(err))
					return err
				}
			}
			fmt.Printf("Cached results for issue #%d removed.\n", number)
			return nil
		},
	}

	deleteCmd.Flags().String("kind", "all", "Which result kind to delete ('scope', 'complete', 'all')")

	return deleteCmd
}
