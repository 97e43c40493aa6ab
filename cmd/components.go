// File: cmd/components.go
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/agentapi"
	"github.com/xkilldash9x/triage-cli/internal/config"
	"github.com/xkilldash9x/triage-cli/internal/orchestrator"
	"github.com/xkilldash9x/triage-cli/internal/resultcache"
	"github.com/xkilldash9x/triage-cli/internal/tracker"
)

// triageComponents holds the initialized services for one live command.
type triageComponents struct {
	Tracker      schemas.TrackerClient
	Agent        schemas.AgentClient
	Store        schemas.ResultStore
	Orchestrator *orchestrator.Orchestrator
	closeStore   func()
}

// Shutdown releases backend resources held by the components.
func (tc *triageComponents) Shutdown() {
	if tc.closeStore != nil {
		tc.closeStore()
	}
}

// initializeComponents handles dependency injection for the live
// commands. Credentials are validated up front so a bad token fails here
// rather than minutes into a session.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*triageComponents, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	if cfg.Tracker.Repo == "" {
		return nil, fmt.Errorf("no repository configured: pass --repo or set tracker.repo")
	}

	trackerClient, err := tracker.NewClient(cfg.Tracker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracker client: %w", err)
	}

	agentClient, err := agentapi.NewClient(cfg.Agent, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize agent client: %w", err)
	}

	store, closeStore, err := resultcache.FromConfig(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize result cache: %w", err)
	}

	orch, err := orchestrator.New(agentClient, store, logger, cfg.Agent.MaxWait)
	if err != nil {
		closeStore()
		return nil, err
	}

	return &triageComponents{
		Tracker:      trackerClient,
		Agent:        agentClient,
		Store:        store,
		Orchestrator: orch,
		closeStore:   closeStore,
	}, nil
}
