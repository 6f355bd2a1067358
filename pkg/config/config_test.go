// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cycleforge/agentcore/pkg/types"
)

func TestFromEnvAppliesDefaultsWhenUnset(t *testing.T) {
	cfg := FromEnv(types.AgentKindTrading, "sess-1", "agent-1")

	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "mem", cfg.StoreBackend)
	assert.Equal(t, "shard", cfg.RAGBackend)
	assert.Equal(t, "./rag-shards", cfg.RAGShardDir)
	assert.Equal(t, []string{"default"}, cfg.NotificationSources)
	assert.Equal(t, []string{"twitter", "news", "onchain", "default"}, cfg.AllowedNotificationSources)
	assert.Equal(t, DefaultPacingInterval, cfg.PacingInterval)
	assert.Equal(t, "agentcore-agent-1", cfg.ContainerName)
}

func TestFromEnvHonorsOverrides(t *testing.T) {
	t.Setenv("AGENTCORE_LLM_PROVIDER", "mock")
	t.Setenv("AGENTCORE_STORE_BACKEND", "http")
	t.Setenv("AGENTCORE_PACING_SECONDS", "30")
	t.Setenv("AGENTCORE_NOTIFICATION_SOURCES", "twitter, discord ,telegram")
	t.Setenv("AGENTCORE_ALLOWED_NOTIFICATION_SOURCES", "twitter,news")

	cfg := FromEnv(types.AgentKindMarketing, "sess-2", "agent-2")

	assert.Equal(t, "mock", cfg.LLMProvider)
	assert.Equal(t, "http", cfg.StoreBackend)
	assert.Equal(t, 30*time.Second, cfg.PacingInterval)
	assert.Equal(t, []string{"twitter", "discord", "telegram"}, cfg.NotificationSources)
	assert.Equal(t, []string{"twitter", "news"}, cfg.AllowedNotificationSources)
}

func TestEnvDurationSecondsFallsBackOnInvalidOrNonPositive(t *testing.T) {
	t.Setenv("AGENTCORE_PACING_SECONDS", "not-a-number")
	assert.Equal(t, DefaultPacingInterval, envDurationSeconds("AGENTCORE_PACING_SECONDS", DefaultPacingInterval))

	t.Setenv("AGENTCORE_PACING_SECONDS", "0")
	assert.Equal(t, DefaultPacingInterval, envDurationSeconds("AGENTCORE_PACING_SECONDS", DefaultPacingInterval))
}

func TestEnvListFallsBackOnEmptyAfterTrimming(t *testing.T) {
	t.Setenv("AGENTCORE_NOTIFICATION_SOURCES", "  ,  ,")
	assert.Equal(t, []string{"default"}, envList("AGENTCORE_NOTIFICATION_SOURCES", []string{"default"}))
}
