// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cycleforge/agentcore/pkg/config"
	"github.com/cycleforge/agentcore/pkg/prompts"
	"github.com/cycleforge/agentcore/pkg/rag"
	"github.com/cycleforge/agentcore/pkg/storage"
	"github.com/cycleforge/agentcore/pkg/types"
)

// Cycle is what Driver runs once per loop iteration: either a *Trading
// or a *Marketing, or a test double.
type Cycle interface {
	RunCycle(ctx context.Context, prior *types.StrategyData, notificationStr string) (types.StrategyData, error)
}

// TradingNotificationLimit and MarketingNotificationLimit bound how many
// notifications per source a
// driver requests: trading agents get a wider window than marketing
// agents, per spec.md §4.9 step 4b.
const (
	TradingNotificationLimit   = 5
	MarketingNotificationLimit = 2
)

// NotificationFetcher is the subset of pkg/notifications.Client the
// driver depends on.
type NotificationFetcher interface {
	Fetch(ctx context.Context, sources []string, limit int) ([]types.NotificationRecord, error)
}

// DriverConfig wires a Driver to its collaborators. Store is mandatory;
// Index and Notifications are optional (a nil Index disables semantic
// lookups and backfill, a nil Notifications makes every cycle run
// against an empty notification string).
type DriverConfig struct {
	AgentKind            types.AgentKind
	SessionID            string
	AgentID              string
	NotificationSources []string
	PacingInterval      time.Duration

	Cycle         Cycle
	Store         storage.OutcomeStore
	Index         rag.SemanticIndex
	Notifications NotificationFetcher
	Logger        *zap.Logger
}

// Driver runs the outer loop of spec.md §4.9: session bookkeeping,
// fetch-latest/index-backfill, notification retrieval, cycle
// invocation, cycle-count bookkeeping, and pacing.
type Driver struct {
	cfg DriverConfig
}

// NewDriver builds a Driver from cfg, applying the default pacing
// interval when unset.
func NewDriver(cfg DriverConfig) *Driver {
	if cfg.PacingInterval <= 0 {
		cfg.PacingInterval = config.DefaultPacingInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Driver{cfg: cfg}
}

// notificationLimit returns the per-source fetch limit for this
// driver's agent kind.
func (d *Driver) notificationLimit() int {
	if d.cfg.AgentKind == types.AgentKindTrading {
		return TradingNotificationLimit
	}
	return MarketingNotificationLimit
}

// BackfillIndex populates the semantic index with every prior strategy
// recorded for the agent. Spec.md §4.9 step 3 requires this once, before
// the first cycle, for trading agents only; marketing agents bootstrap
// lazily from whatever Run's first RAG query finds (or the "Fresh"
// placeholder, if nothing has been indexed yet).
func (d *Driver) BackfillIndex(ctx context.Context) error {
	if d.cfg.Index == nil {
		return nil
	}
	strategies, err := d.cfg.Store.FetchAllStrategies(ctx, d.cfg.AgentID)
	if err != nil {
		return err
	}
	for _, s := range strategies {
		if err := upsertStrategyVector(ctx, d.cfg.Index, s, d.cfg.SessionID); err != nil {
			d.cfg.Logger.Warn("failed to backfill strategy into index", zap.Int64("strategy_id", s.StrategyID), zap.Error(err))
		}
	}
	return nil
}

// Run executes the driver loop until ctx is cancelled. It never returns
// an error for a single cycle's failure (those are logged and the loop
// continues after pacing); it returns only if ctx is done or a
// construction-time dependency (the store) is permanently broken.
func (d *Driver) Run(ctx context.Context) error {
	cfg := d.cfg
	logger := cfg.Logger

	if _, err := cfg.Store.EnsureSession(ctx, cfg.SessionID, cfg.AgentID); err != nil {
		return err
	}

	if cfg.AgentKind == types.AgentKindTrading {
		if err := d.BackfillIndex(ctx); err != nil {
			logger.Warn("index backfill failed, continuing without it", zap.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = cfg.Store.MarkSessionStopped(context.Background(), cfg.SessionID, time.Now().UTC())
			return ctx.Err()
		default:
		}

		d.runOneCycle(ctx)

		if _, err := cfg.Store.IncrementCycleCount(ctx, cfg.SessionID); err != nil {
			logger.Warn("failed to increment cycle count", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			_ = cfg.Store.MarkSessionStopped(context.Background(), cfg.SessionID, time.Now().UTC())
			return ctx.Err()
		case <-time.After(cfg.PacingInterval):
		}
	}
}

// runOneCycle implements loop step 4a-4c: fetch-latest/index-upsert,
// notification retrieval, cycle invocation. Failures at any point are
// logged; a cycle that cannot even be attempted (store read failure) is
// treated as a skipped, not fatal, iteration.
func (d *Driver) runOneCycle(ctx context.Context) {
	cfg := d.cfg
	cycleID := uuid.New().String()
	logger := cfg.Logger.With(zap.String("cycle_id", cycleID))

	var prior *types.StrategyData
	latest, ok, err := cfg.Store.FetchLatestStrategy(ctx, cfg.AgentID)
	if err != nil {
		logger.Warn("failed to fetch latest strategy, proceeding as first cycle", zap.Error(err))
	} else if ok {
		prior = &latest
		if cfg.Index != nil {
			if err := upsertStrategyVector(ctx, cfg.Index, latest, cfg.SessionID); err != nil {
				logger.Warn("failed to upsert latest strategy into index", zap.Error(err))
			}
		}
	}

	notificationStr := ""
	if cfg.Notifications != nil {
		records, err := cfg.Notifications.Fetch(ctx, cfg.NotificationSources, d.notificationLimit())
		if err != nil {
			logger.Warn("failed to fetch notifications, proceeding with empty notification string", zap.Error(err))
		} else {
			notificationStr = joinNotificationDescs(records)
		}
	}

	if _, err := cfg.Cycle.RunCycle(ctx, prior, notificationStr); err != nil {
		logger.Warn("cycle failed", zap.String("agent_id", cfg.AgentID), zap.Error(err))
	}
}

func joinNotificationDescs(records []types.NotificationRecord) string {
	out := ""
	for i, r := range records {
		if i > 0 {
			out += "\n"
		}
		out += r.LongDesc
	}
	return out
}

// NewPromptGenerator builds a prompts.Generator for kind, applying any
// template overrides from a session configuration payload on top of the
// built-in defaults.
func NewPromptGenerator(kind types.AgentKind, payload config.SessionPayload) (*prompts.Generator, error) {
	return prompts.NewGenerator(kind, payload.Templates)
}
