// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/types"
)

func TestInsertStrategyAssignsMonotonicIDsPerAgent(t *testing.T) {
	s := New()
	ctx := context.Background()

	a1, err := s.InsertStrategy(ctx, types.StrategyInsertData{AgentID: "agent-1", SummarizedDesc: "s1"})
	require.NoError(t, err)
	a2, err := s.InsertStrategy(ctx, types.StrategyInsertData{AgentID: "agent-1", SummarizedDesc: "s2"})
	require.NoError(t, err)
	b1, err := s.InsertStrategy(ctx, types.StrategyInsertData{AgentID: "agent-2", SummarizedDesc: "b1"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a1.StrategyID)
	assert.Equal(t, int64(2), a2.StrategyID)
	assert.Equal(t, int64(1), b1.StrategyID)
}

func TestFetchLatestStrategyTieBreaksOnLargestID(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.InsertStrategy(ctx, types.StrategyInsertData{AgentID: "a", SummarizedDesc: "first"})
	require.NoError(t, err)
	_, err = s.InsertStrategy(ctx, types.StrategyInsertData{AgentID: "a", SummarizedDesc: "second"})
	require.NoError(t, err)

	latest, ok, err := s.FetchLatestStrategy(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", latest.SummarizedDesc)
}

func TestFetchLatestStrategyUnknownAgent(t *testing.T) {
	s := New()
	_, ok, err := s.FetchLatestStrategy(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchLatestNotificationStrFallsBackToAllowedSources(t *testing.T) {
	s := New()
	s.SeedNotification("twitter", types.NotificationRecord{
		Source:           "twitter",
		LongDesc:         "tweet about launch",
		NotificationDate: time.Now(),
	})
	s.SeedNotification("news", types.NotificationRecord{
		Source:           "news",
		LongDesc:         "press coverage",
		NotificationDate: time.Now(),
	})

	// allowedSources has exactly two entries, so the unknown-source request
	// deterministically redirects to both rather than a random pick.
	text, err := s.FetchLatestNotificationStr(context.Background(), []string{"unknown-source"}, 1, []string{"twitter", "news"})
	require.NoError(t, err)
	assert.Equal(t, "tweet about launch\npress coverage", text)
}

func TestFetchLatestNotificationStrPassesThroughWithNoAllowedSources(t *testing.T) {
	s := New()
	s.SeedNotification("unknown", types.NotificationRecord{
		Source:           "unknown",
		LongDesc:         "untracked source event",
		NotificationDate: time.Now(),
	})

	text, err := s.FetchLatestNotificationStr(context.Background(), []string{"unknown"}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "untracked source event", text)
}

func TestSessionLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	state, err := s.EnsureSession(ctx, "sess-1", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, types.SessionStatusRunning, state.Status)
	assert.Equal(t, int64(0), state.CycleCount)

	count, err := s.IncrementCycleCount(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.MarkSessionStopped(ctx, "sess-1", time.Now()))
}

func TestInsertChatHistoryDerivesTimestampsPerMessage(t *testing.T) {
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []types.Message{
		{Role: types.RoleUser, Content: "hi"},
		{Role: types.RoleAssistant, Content: "hello"},
	}
	require.NoError(t, s.InsertChatHistory(context.Background(), "sess", "agent", msgs, base))
	require.Len(t, s.chatHistory, 2)
	assert.Equal(t, "2026-01-01 00:00:00", s.chatHistory[0].Timestamp)
	assert.Equal(t, "2026-01-01 00:00:01", s.chatHistory[1].Timestamp)
}
