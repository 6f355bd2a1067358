// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/chatctx"
	"github.com/cycleforge/agentcore/pkg/llm"
	"github.com/cycleforge/agentcore/pkg/prompts"
	"github.com/cycleforge/agentcore/pkg/rag"
	"github.com/cycleforge/agentcore/pkg/sensors"
	"github.com/cycleforge/agentcore/pkg/storage"
	"github.com/cycleforge/agentcore/pkg/types"
)

// TradingConfig wires a Trading cycle to its collaborators.
type TradingConfig struct {
	AgentID     string
	SessionID   string
	SignerURL   string
	Assisted    bool // false runs the unassisted flow (no address-research stage)
	APIBlurbs   []prompts.APIBlurb
	Instruments []prompts.Instrument

	Prompts    *prompts.Generator
	Adapter    llm.GeneratorAdapter
	Sandbox    Sandbox
	Store      storage.OutcomeStore
	Index      rag.SemanticIndex
	Sensor     sensors.TradingSensor
	Summarizer *Summarizer
	Logger     *zap.Logger
}

// Trading runs the assisted/unassisted trading cycle of spec.md §4.8.
type Trading struct {
	cfg TradingConfig
}

// NewTrading builds a Trading cycle runner from cfg.
func NewTrading(cfg TradingConfig) *Trading {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Trading{cfg: cfg}
}

// RunCycle executes one full trading cycle and returns the StrategyData
// it persisted, reflecting overall success or failure across every
// stage.
func (t *Trading) RunCycle(ctx context.Context, prior *types.StrategyData, notificationStr string) (types.StrategyData, error) {
	cfg := t.cfg
	history := chatctx.New()

	snapshot, err := cfg.Sensor.Snapshot(ctx)
	if err != nil {
		cfg.Logger.Warn("wallet sensor failed, proceeding with empty snapshot", zap.Error(err))
	}
	metricState := formatWalletState(snapshot)
	apisStr := prompts.JoinAPIBlurbs(cfg.APIBlurbs)
	instrumentStubs := prompts.InstrumentCallStubs(cfg.Instruments, cfg.AgentID, cfg.SignerURL)

	systemText, err := cfg.Prompts.Render("system_prompt", map[string]string{
		"metric_state": metricState,
		"apis_str":     apisStr,
	})
	if err != nil {
		return types.StrategyData{}, agenterr.New(agenterr.KindConfig, "RunCycle", err)
	}
	history = history.Append(types.Message{Role: types.RoleSystem, Content: systemText})

	baseTS := time.Now().UTC()
	persist := func(ctx context.Context, delta chatctx.ChatHistory) error {
		if cfg.Store == nil {
			return nil
		}
		if err := cfg.Store.InsertChatHistory(ctx, cfg.SessionID, cfg.AgentID, delta.Messages(), baseTS); err != nil {
			cfg.Logger.Warn("failed to persist chat history delta", zap.Error(err))
		}
		return nil
	}

	// Strategy stage.
	strategyAttempt := func(ctx context.Context, attemptIndex int, prevArtifact, accumulatedErr string) (chatctx.ChatHistory, string, error) {
		var rendered string
		var renderErr error
		if prior == nil {
			rendered, renderErr = cfg.Prompts.Render("strategy_prompt_first", map[string]string{
				"cur_environment": notificationStr,
			})
		} else {
			rendered, renderErr = cfg.Prompts.Render("strategy_prompt", map[string]string{
				"cur_environment":      notificationStr,
				"prev_strategy":        prior.SummarizedDesc,
				"prev_strategy_result": string(prior.StrategyResult),
			})
		}
		if renderErr != nil {
			return chatctx.ChatHistory{}, "", renderErr
		}

		delta := chatctx.New(types.Message{Role: types.RoleUser, Content: rendered})
		respText, genErr := cfg.Adapter.ChatCompletion(ctx, history.Concat(delta))
		if genErr != nil {
			return chatctx.ChatHistory{}, "", agenterr.New(agenterr.KindGen, "strategy", genErr)
		}
		if strings.TrimSpace(respText) == "" {
			return chatctx.ChatHistory{}, "", agenterr.New(agenterr.KindGen, "strategy", fmt.Errorf("empty strategy response"))
		}
		delta = delta.Append(types.Message{Role: types.RoleAssistant, Content: respText})
		return delta, respText, nil
	}
	strategyOutcome := RunStage(ctx, BudgetStrategy, strategyAttempt, nil, persist)
	history = history.Concat(strategyOutcome.History)
	strategyOutput := strategyOutcome.Artifact
	overallSuccess := strategyOutcome.Success

	var addressResearch string
	if overallSuccess && cfg.Assisted {
		addrAttempt := t.codeAttempt(&history, "address_research_code_prompt", map[string]string{"strategy_output": strategyOutput})
		addrExecute := func(ctx context.Context, code string) (string, error) {
			return cfg.Sandbox.Execute(ctx, code, "address_research")
		}
		addrOutcome := RunStage(ctx, BudgetResearch, addrAttempt, addrExecute, persist)
		history = history.Concat(addrOutcome.History)
		addressResearch = addrOutcome.Output
		if !addrOutcome.Success {
			overallSuccess = false
		}
	}

	var codeOutput string
	if overallSuccess {
		var tradeVars map[string]string
		var tradeTemplate string
		if cfg.Assisted {
			tradeTemplate = "trading_code_prompt"
			tradeVars = map[string]string{
				"strategy_output":  strategyOutput,
				"address_research": addressResearch,
				"apis_str":         apisStr,
				"instrument_stubs": instrumentStubs,
				"agent_id":         cfg.AgentID,
				"signer_url":       cfg.SignerURL,
			}
		} else {
			tradeTemplate = "trading_code_non_address_prompt"
			tradeVars = map[string]string{
				"strategy_output":  strategyOutput,
				"apis_str":         apisStr,
				"instrument_stubs": instrumentStubs,
				"agent_id":         cfg.AgentID,
				"signer_url":       cfg.SignerURL,
			}
		}

		codeAttempt := t.codeAttempt(&history, tradeTemplate, tradeVars)
		codeExecute := func(ctx context.Context, code string) (string, error) {
			return cfg.Sandbox.Execute(ctx, code, "trading_code")
		}
		codeOutcome := RunStage(ctx, BudgetCode, codeAttempt, codeExecute, persist)
		history = history.Concat(codeOutcome.History)
		codeOutput = codeOutcome.Output
		if !codeOutcome.Success {
			overallSuccess = false
		}
	}

	result := types.StrategyResultFailed
	if overallSuccess {
		result = types.StrategyResultSuccess
	}

	summarized := strategyOutput
	if cfg.Summarizer != nil && strategyOutput != "" {
		if s, sumErr := cfg.Summarizer.Summarize(ctx, strategyOutput); sumErr == nil {
			summarized = s
		} else {
			cfg.Logger.Warn("strategy summarization failed, using full strategy text", zap.Error(sumErr))
		}
	}

	params := map[string]any{
		"metric_state":     metricState,
		"address_research": addressResearch,
		"code_output":      codeOutput,
	}

	inserted, err := cfg.Store.InsertStrategy(ctx, types.StrategyInsertData{
		AgentID:        cfg.AgentID,
		SummarizedDesc: summarized,
		FullDesc:       strategyOutput,
		Parameters:     params,
		StrategyResult: result,
	})
	if err != nil {
		return types.StrategyData{}, agenterr.New(agenterr.KindStore, "InsertStrategy", err)
	}

	if cfg.Index != nil {
		if err := upsertStrategyVector(ctx, cfg.Index, inserted, cfg.SessionID); err != nil {
			cfg.Logger.Warn("failed to index strategy", zap.Error(err))
		}
	}

	return inserted, nil
}

// codeAttempt builds an AttemptFunc for a code-generation stage: attempt
// 0 renders firstTemplate with firstVars; every later attempt renders
// regen_code_prompt with the previous broken code and accumulated error
// text, per spec.md §4.8's retry envelope.
func (t *Trading) codeAttempt(history *chatctx.ChatHistory, firstTemplate string, firstVars map[string]string) AttemptFunc {
	cfg := t.cfg
	return func(ctx context.Context, attemptIndex int, prevArtifact, accumulatedErr string) (chatctx.ChatHistory, string, error) {
		var rendered string
		var renderErr error
		if attemptIndex == 0 {
			rendered, renderErr = cfg.Prompts.Render(firstTemplate, firstVars)
		} else {
			rendered, renderErr = cfg.Prompts.Render("regen_code_prompt", map[string]string{
				"prev_code":          prevArtifact,
				"accumulated_errors": accumulatedErr,
			})
		}
		if renderErr != nil {
			return chatctx.ChatHistory{}, "", renderErr
		}

		delta := chatctx.New(types.Message{Role: types.RoleUser, Content: rendered})
		snippets, raw, genErr := cfg.Adapter.GenerateCode(ctx, history.Concat(delta), nil)
		if genErr != nil {
			return chatctx.ChatHistory{}, "", genErr
		}
		if len(snippets) == 0 {
			return chatctx.ChatHistory{}, "", agenterr.New(agenterr.KindGen, "codeAttempt", fmt.Errorf("no code snippet extracted"))
		}
		delta = delta.Append(types.Message{Role: types.RoleAssistant, Content: raw})
		return delta, snippets[0], nil
	}
}

// upsertStrategyVector indexes a persisted strategy under its assigned
// id, using its summarized description as both the text key and the
// embedding input.
func upsertStrategyVector(ctx context.Context, index rag.SemanticIndex, strategy types.StrategyData, sessionID string) error {
	payload, err := json.Marshal(strategy)
	if err != nil {
		return fmt.Errorf("marshal strategy payload: %w", err)
	}
	return index.Upsert(ctx, types.VectorRecord{
		ReferenceID: strconv.FormatInt(strategy.StrategyID, 10),
		AgentID:     strategy.AgentID,
		SessionID:   sessionID,
		TextKey:     strategy.SummarizedDesc,
		Payload:     string(payload),
		CreatedAt:   strategy.CreatedAt,
	})
}
