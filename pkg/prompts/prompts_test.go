// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/types"
)

func TestNewGeneratorAcceptsDefaults(t *testing.T) {
	g, err := NewGenerator(types.AgentKindTrading, nil)
	require.NoError(t, err)
	require.NotNil(t, g)

	g2, err := NewGenerator(types.AgentKindMarketing, nil)
	require.NoError(t, err)
	require.NotNil(t, g2)
}

func TestNewGeneratorRejectsAddedPlaceholder(t *testing.T) {
	custom := map[string]string{
		"system_prompt": "You are trading. State: {metric_state} APIs: {apis_str} extra: {unexpected}",
	}
	_, err := NewGenerator(types.AgentKindTrading, custom)
	require.Error(t, err)
	kind, ok := agenterr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, agenterr.KindConfig, kind)
}

func TestNewGeneratorRejectsRemovedPlaceholder(t *testing.T) {
	custom := map[string]string{
		"system_prompt": "You are trading. State: {metric_state}",
	}
	_, err := NewGenerator(types.AgentKindTrading, custom)
	require.Error(t, err)
}

func TestRenderSubstitutesVars(t *testing.T) {
	g, err := NewGenerator(types.AgentKindTrading, nil)
	require.NoError(t, err)

	out, err := g.Render("strategy_prompt_first", map[string]string{"cur_environment": "calm markets"})
	require.NoError(t, err)
	assert.Contains(t, out, "calm markets")
}

func TestInstrumentCallStubs(t *testing.T) {
	stubs := InstrumentCallStubs([]Instrument{InstrumentSpot, InstrumentDefi}, "agent-1", "http://signer")
	assert.Contains(t, stubs, "agent-1")
	assert.Contains(t, stubs, "http://signer")
	assert.Contains(t, stubs, "/api/v1/swap")
	assert.Contains(t, stubs, "/api/v1/defi/deposit")
}
