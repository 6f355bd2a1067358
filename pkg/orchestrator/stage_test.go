// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/chatctx"
	"github.com/cycleforge/agentcore/pkg/types"
)

func assistantDelta(text string) chatctx.ChatHistory {
	return chatctx.New(types.Message{Role: types.RoleAssistant, Content: text})
}

func TestRunStageSucceedsOnFirstAttemptWithoutExecute(t *testing.T) {
	calls := 0
	attempt := func(ctx context.Context, i int, prevArtifact, accErr string) (chatctx.ChatHistory, string, error) {
		calls++
		return assistantDelta("strategy text"), "strategy text", nil
	}

	out := RunStage(context.Background(), BudgetStrategy, attempt, nil, nil)

	assert.True(t, out.Success)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, "strategy text", out.Artifact)
	assert.Equal(t, 1, calls)
}

func TestRunStageRetriesGenerationFailureThenSucceeds(t *testing.T) {
	attempts := 0
	attempt := func(ctx context.Context, i int, prevArtifact, accErr string) (chatctx.ChatHistory, string, error) {
		attempts++
		if i == 0 {
			return chatctx.ChatHistory{}, "", errors.New("model returned malformed output")
		}
		return assistantDelta("code v2"), "code v2", nil
	}

	out := RunStage(context.Background(), BudgetCode, attempt, nil, nil)

	require.True(t, out.Success)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, "code v2", out.Artifact)
	assert.Contains(t, out.AccumulatedErr, "malformed output")
}

func TestRunStageRetriesExecutionFailureThenSucceeds(t *testing.T) {
	attemptCount := 0
	attempt := func(ctx context.Context, i int, prevArtifact, accErr string) (chatctx.ChatHistory, string, error) {
		attemptCount++
		return assistantDelta("code"), "code", nil
	}
	execCalls := 0
	execute := func(ctx context.Context, artifact string) (string, error) {
		execCalls++
		if execCalls == 1 {
			return "", errors.New("traceback: divide by zero")
		}
		return "42", nil
	}

	out := RunStage(context.Background(), BudgetCode, attempt, execute, nil)

	require.True(t, out.Success)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, "42", out.Output)
	assert.Contains(t, out.AccumulatedErr, "divide by zero")
}

func TestRunStageExhaustsBudgetWhenExecutionAlwaysFails(t *testing.T) {
	attempt := func(ctx context.Context, i int, prevArtifact, accErr string) (chatctx.ChatHistory, string, error) {
		return assistantDelta("broken code"), "broken code", nil
	}
	execute := func(ctx context.Context, artifact string) (string, error) {
		return "", errors.New("still broken")
	}

	out := RunStage(context.Background(), BudgetCode, attempt, execute, nil)

	assert.False(t, out.Success)
	assert.Equal(t, BudgetCode, out.Attempts)
	assert.Equal(t, "broken code", out.Artifact)
	assert.Empty(t, out.Output)
}

func TestRunStagePersistsEveryGenerationDelta(t *testing.T) {
	var persisted []chatctx.ChatHistory
	attemptIdx := 0
	attempt := func(ctx context.Context, i int, prevArtifact, accErr string) (chatctx.ChatHistory, string, error) {
		attemptIdx++
		return assistantDelta("attempt"), "attempt", nil
	}
	execute := func(ctx context.Context, artifact string) (string, error) {
		if attemptIdx < 2 {
			return "", errors.New("fails once")
		}
		return "ok", nil
	}
	persist := func(ctx context.Context, delta chatctx.ChatHistory) error {
		persisted = append(persisted, delta)
		return nil
	}

	out := RunStage(context.Background(), BudgetCode, attempt, execute, persist)

	require.True(t, out.Success)
	assert.Len(t, persisted, 2)
}

func TestRunStageHistoryIncludesFailedExecutionAttempts(t *testing.T) {
	i := 0
	attempt := func(ctx context.Context, idx int, prevArtifact, accErr string) (chatctx.ChatHistory, string, error) {
		i++
		return assistantDelta("gen"), "gen", nil
	}
	execute := func(ctx context.Context, artifact string) (string, error) {
		if i < BudgetCode {
			return "", errors.New("bad")
		}
		return "good", nil
	}

	out := RunStage(context.Background(), BudgetCode, attempt, execute, nil)

	assert.True(t, out.Success)
	assert.Equal(t, BudgetCode, out.History.Len())
}
