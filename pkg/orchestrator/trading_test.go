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

	"github.com/cycleforge/agentcore/pkg/llm/mock"
	"github.com/cycleforge/agentcore/pkg/prompts"
	"github.com/cycleforge/agentcore/pkg/sensors"
	"github.com/cycleforge/agentcore/pkg/storage/memstore"
	"github.com/cycleforge/agentcore/pkg/types"
)

type fakeSandbox struct {
	outputs []string
	errs    []error
	calls   int
}

func (f *fakeSandbox) Execute(ctx context.Context, code, postfix string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.outputs) {
		return f.outputs[i], nil
	}
	return "ok", nil
}

type fakeTradingSensor struct {
	snap sensors.WalletSnapshot
	err  error
}

func (f *fakeTradingSensor) Snapshot(ctx context.Context) (sensors.WalletSnapshot, error) {
	return f.snap, f.err
}

func newTradingConfig(t *testing.T, adapter *mock.Generator, sandbox Sandbox) TradingConfig {
	gen, err := prompts.NewGenerator(types.AgentKindTrading, nil)
	require.NoError(t, err)
	return TradingConfig{
		AgentID:     "agent-1",
		SessionID:   "sess-1",
		SignerURL:   "http://signer.local",
		Assisted:    true,
		APIBlurbs:   []prompts.APIBlurb{{Name: "signer", Description: "trade execution"}},
		Instruments: []prompts.Instrument{prompts.InstrumentSpot},
		Prompts:     gen,
		Adapter:     adapter,
		Sandbox:     sandbox,
		Store:       memstore.New(),
		Sensor:      &fakeTradingSensor{},
		Summarizer:  NewSummarizer(adapter),
	}
}

func TestTradingRunCycleFirstCycleSucceeds(t *testing.T) {
	adapter := mock.New("", "")
	sandbox := &fakeSandbox{outputs: []string{"addr-json-ok", "trade-executed"}}
	cfg := newTradingConfig(t, adapter, sandbox)
	tr := NewTrading(cfg)

	result, err := tr.RunCycle(context.Background(), nil, "market update")

	require.NoError(t, err)
	assert.Equal(t, types.StrategyResultSuccess, result.StrategyResult)
	assert.Equal(t, int64(1), result.StrategyID)
}

func TestTradingRunCycleUsesPriorStrategyOnLaterCycles(t *testing.T) {
	adapter := mock.New("", "")
	sandbox := &fakeSandbox{outputs: []string{"addr-json-ok", "trade-executed"}}
	cfg := newTradingConfig(t, adapter, sandbox)
	tr := NewTrading(cfg)

	prior := &types.StrategyData{StrategyID: 5, SummarizedDesc: "hold ETH", StrategyResult: types.StrategyResultSuccess}
	result, err := tr.RunCycle(context.Background(), prior, "")

	require.NoError(t, err)
	assert.Equal(t, types.StrategyResultSuccess, result.StrategyResult)
}

func TestTradingRunCycleRegeneratesCodeAfterSandboxFailure(t *testing.T) {
	adapter := mock.New("", "")
	sandbox := &fakeSandbox{
		outputs: []string{"addr-json-ok", "", "trade-executed"},
		errs:    []error{nil, errors.New("traceback: NameError"), nil},
	}
	cfg := newTradingConfig(t, adapter, sandbox)
	tr := NewTrading(cfg)

	result, err := tr.RunCycle(context.Background(), nil, "")

	require.NoError(t, err)
	assert.Equal(t, types.StrategyResultSuccess, result.StrategyResult)
	assert.Equal(t, 3, sandbox.calls)
}

func TestTradingRunCycleFailsWhenCodeBudgetExhausted(t *testing.T) {
	adapter := mock.New("", "")
	sandbox := &fakeSandbox{
		outputs: []string{"addr-json-ok"},
		errs:    []error{nil, errors.New("1"), errors.New("2"), errors.New("3"), errors.New("4"), errors.New("5")},
	}
	cfg := newTradingConfig(t, adapter, sandbox)
	tr := NewTrading(cfg)

	result, err := tr.RunCycle(context.Background(), nil, "")

	require.NoError(t, err)
	assert.Equal(t, types.StrategyResultFailed, result.StrategyResult)
}

func TestTradingRunCycleUnassistedSkipsAddressResearch(t *testing.T) {
	adapter := mock.New("", "")
	sandbox := &fakeSandbox{outputs: []string{"trade-executed"}}
	cfg := newTradingConfig(t, adapter, sandbox)
	cfg.Assisted = false
	tr := NewTrading(cfg)

	result, err := tr.RunCycle(context.Background(), nil, "")

	require.NoError(t, err)
	assert.Equal(t, types.StrategyResultSuccess, result.StrategyResult)
	assert.Equal(t, 1, sandbox.calls)
}

func TestTradingRunCycleSurvivesSensorFailure(t *testing.T) {
	adapter := mock.New("", "")
	sandbox := &fakeSandbox{outputs: []string{"addr-json-ok", "trade-executed"}}
	cfg := newTradingConfig(t, adapter, sandbox)
	cfg.Sensor = &fakeTradingSensor{err: errors.New("wallet RPC unreachable")}
	tr := NewTrading(cfg)

	result, err := tr.RunCycle(context.Background(), nil, "")

	require.NoError(t, err)
	assert.Equal(t, types.StrategyResultSuccess, result.StrategyResult)
}
