// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/config"
	"github.com/cycleforge/agentcore/pkg/docker"
	"github.com/cycleforge/agentcore/pkg/llm"
	"github.com/cycleforge/agentcore/pkg/llm/anthropic"
	"github.com/cycleforge/agentcore/pkg/llm/mock"
	"github.com/cycleforge/agentcore/pkg/llm/openai"
	"github.com/cycleforge/agentcore/pkg/notifications"
	"github.com/cycleforge/agentcore/pkg/orchestrator"
	"github.com/cycleforge/agentcore/pkg/prompts"
	"github.com/cycleforge/agentcore/pkg/rag"
	"github.com/cycleforge/agentcore/pkg/rag/embedder"
	"github.com/cycleforge/agentcore/pkg/rag/httpindex"
	"github.com/cycleforge/agentcore/pkg/rag/shard"
	"github.com/cycleforge/agentcore/pkg/sensors"
	marketingsensor "github.com/cycleforge/agentcore/pkg/sensors/marketing"
	tradingsensor "github.com/cycleforge/agentcore/pkg/sensors/trading"
	"github.com/cycleforge/agentcore/pkg/storage"
	"github.com/cycleforge/agentcore/pkg/storage/httpstore"
	"github.com/cycleforge/agentcore/pkg/storage/memstore"
	"github.com/cycleforge/agentcore/pkg/storage/pgstore"
	"github.com/cycleforge/agentcore/pkg/types"
)

// defaultTradingAPIBlurbs and defaultMarketingAPIBlurbs describe the
// external services each agent kind's generated code is told it may
// call, rendered into every system/code prompt's {apis_str}.
var defaultTradingAPIBlurbs = []prompts.APIBlurb{
	{Name: "signer", Description: "swap/quote/addresses endpoints for executing trades and reading wallet state"},
	{Name: "rpc", Description: "Ethereum JSON-RPC endpoint for on-chain reads"},
	{Name: "etherscan", Description: "token transfer history and contract metadata"},
	{Name: "coingecko", Description: "USD spot prices"},
}

var defaultMarketingAPIBlurbs = []prompts.APIBlurb{
	{Name: "social", Description: "follower/engagement metrics for the managed account"},
	{Name: "notifications", Description: "recent notification events relevant to the account"},
}

var defaultTradingInstruments = []prompts.Instrument{
	prompts.InstrumentSpot,
	prompts.InstrumentFutures,
	prompts.InstrumentOptions,
	prompts.InstrumentDefi,
}

// buildDriver assembles an orchestrator.Driver for one (agent_kind,
// session_id, agent_id) triple from environment configuration, per
// spec.md §4.9 step 3. The returned close function releases any
// long-lived resources (docker client, postgres pool) the driver holds;
// callers must invoke it before exiting regardless of Run's outcome.
func buildDriver(ctx context.Context, agentKind types.AgentKind, sessionID, agentID string, logger *zap.Logger) (*orchestrator.Driver, func(), error) {
	envCfg := config.FromEnv(agentKind, sessionID, agentID)

	payload, err := config.IngestSessionConfig(ctx, envCfg.SessionConfigURL, 0, logger)
	if err != nil {
		logger.Warn("session configuration ingress failed, proceeding with defaults", zap.Error(err))
	}
	if len(payload.NotificationSources) > 0 {
		envCfg.NotificationSources = payload.NotificationSources
	}
	if payload.PacingSeconds > 0 {
		envCfg.PacingInterval = time.Duration(payload.PacingSeconds) * time.Second
	}

	promptGen, err := orchestrator.NewPromptGenerator(agentKind, payload)
	if err != nil {
		return nil, func() {}, agenterr.New(agenterr.KindConfig, "buildDriver", err)
	}

	adapter, err := buildAdapter(envCfg)
	if err != nil {
		return nil, func() {}, err
	}

	sandboxExecutor, err := docker.NewSandboxExecutor(ctx, docker.Config{
		ContainerName: envCfg.ContainerName,
		DockerHost:    envCfg.DockerHost,
		BaseImage:     envCfg.SandboxImage,
		Logger:        logger,
	})
	if err != nil {
		return nil, func() {}, err
	}

	store, pgPool, err := buildStore(ctx, envCfg)
	if err != nil {
		sandboxExecutor.Close() //nolint:errcheck
		return nil, func() {}, err
	}

	index := buildIndex(envCfg, logger)

	notifFetcher := buildNotifications(envCfg)

	summarizer := orchestrator.NewSummarizer(adapter)

	var cycle orchestrator.Cycle
	switch agentKind {
	case types.AgentKindTrading:
		cycle = orchestrator.NewTrading(orchestrator.TradingConfig{
			AgentID:     agentID,
			SessionID:   sessionID,
			SignerURL:   envCfg.SignerURL,
			Assisted:    true,
			APIBlurbs:   defaultTradingAPIBlurbs,
			Instruments: defaultTradingInstruments,
			Prompts:     promptGen,
			Adapter:     adapter,
			Sandbox:     sandboxExecutor,
			Store:       store,
			Index:       index,
			Sensor:      buildTradingSensor(envCfg, agentID, logger),
			Summarizer:  summarizer,
			Logger:      logger,
		})
	case types.AgentKindMarketing:
		cycle = orchestrator.NewMarketing(orchestrator.MarketingConfig{
			AgentID:    agentID,
			SessionID:  sessionID,
			APIBlurbs:  defaultMarketingAPIBlurbs,
			Prompts:    promptGen,
			Adapter:    adapter,
			Sandbox:    sandboxExecutor,
			Store:      store,
			Index:      index,
			Sensor:     buildMarketingSensor(envCfg, logger),
			Summarizer: summarizer,
			Logger:     logger,
		})
	}

	driver := orchestrator.NewDriver(orchestrator.DriverConfig{
		AgentKind:           agentKind,
		SessionID:           sessionID,
		AgentID:             agentID,
		NotificationSources: envCfg.NotificationSources,
		PacingInterval:      envCfg.PacingInterval,
		Cycle:               cycle,
		Store:               store,
		Index:               index,
		Notifications:       notifFetcher,
		Logger:              logger,
	})

	refresher := config.NewRefresher(envCfg.SessionConfigURL, "", 0, logger, func(payload config.SessionPayload) {
		logger.Info("picked up refreshed session configuration", zap.Int("template_overrides", len(payload.Templates)))
	})
	if err := refresher.Start(ctx); err != nil {
		logger.Warn("failed to start session configuration refresher", zap.Error(err))
	}

	closeFn := func() {
		refresher.Stop()
		sandboxExecutor.Close() //nolint:errcheck
		if pgPool != nil {
			pgPool.Close()
		}
	}

	return driver, closeFn, nil
}

func buildAdapter(cfg config.Config) (llm.GeneratorAdapter, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
		}), nil
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
		}), nil
	case "mock":
		return mock.New("mock", "mock"), nil
	default:
		return nil, agenterr.New(agenterr.KindConfig, "buildAdapter", fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider))
	}
}

func buildStore(ctx context.Context, cfg config.Config) (storage.OutcomeStore, *pgxpool.Pool, error) {
	switch cfg.StoreBackend {
	case "", "mem":
		return memstore.New(), nil, nil
	case "http":
		return httpstore.New(httpstore.Config{BaseURL: cfg.StoreBaseURL, APIKey: cfg.StoreAPIKey}), nil, nil
	case "pg":
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, agenterr.New(agenterr.KindStore, "buildStore", fmt.Errorf("connect to postgres: %w", err))
		}
		return pgstore.New(pool), pool, nil
	default:
		return nil, nil, agenterr.New(agenterr.KindConfig, "buildStore", fmt.Errorf("unknown store backend %q", cfg.StoreBackend))
	}
}

func buildIndex(cfg config.Config, logger *zap.Logger) rag.SemanticIndex {
	switch cfg.RAGBackend {
	case "http":
		return httpindex.New(httpindex.Config{BaseURL: cfg.RAGBaseURL, APIKey: cfg.RAGAPIKey})
	default:
		var emb rag.Embedder
		if cfg.EmbedderEndpoint != "" {
			emb = embedder.New(embedder.Config{
				Endpoint: cfg.EmbedderEndpoint,
				APIKey:   cfg.EmbedderAPIKey,
				Model:    cfg.EmbedderModel,
				Logger:   logger,
			})
		}
		return shard.New(cfg.RAGShardDir, emb)
	}
}

func buildNotifications(cfg config.Config) orchestrator.NotificationFetcher {
	if cfg.NotificationsBaseURL == "" {
		return nil
	}
	return notifications.New(notifications.Config{
		BaseURL:        cfg.NotificationsBaseURL,
		APIKey:         cfg.NotificationsAPIKey,
		AllowedSources: cfg.AllowedNotificationSources,
	})
}

func buildTradingSensor(cfg config.Config, agentID string, logger *zap.Logger) sensors.TradingSensor {
	return tradingsensor.New(tradingsensor.Config{
		AgentID:      agentID,
		SignerURL:    cfg.SignerURL,
		RPCURL:       cfg.RPCURL,
		EtherscanURL: cfg.EtherscanURL,
		EtherscanKey: cfg.EtherscanKey,
		CoinGeckoURL: cfg.CoinGeckoURL,
		Logger:       logger,
	})
}

func buildMarketingSensor(cfg config.Config, logger *zap.Logger) sensors.MarketingSensor {
	return marketingsensor.New(marketingsensor.Config{
		BaseURL:     cfg.SocialBaseURL,
		BearerToken: cfg.SocialBearerToken,
		Logger:      logger,
	})
}
