// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
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

// freshNotification is the literal the driver/orchestrator substitutes
// when a cycle has no notification string to work from (spec.md §9 open
// question: "the source indicates a marketing cycle may operate without
// a notification string; when absent, the orchestrator substitutes the
// literal Fresh").
const freshNotification = "Fresh"

// MarketingMetricName names the scalar metric marketing cycles track.
// Only "followers" is wired; "likes" is read by the sensor but not used
// as the headline metric a cycle optimizes for.
const MarketingMetricName = "followers"

// MarketingConfig wires a Marketing cycle to its collaborators.
type MarketingConfig struct {
	AgentID   string
	SessionID string
	APIBlurbs []prompts.APIBlurb

	Prompts    *prompts.Generator
	Adapter    llm.GeneratorAdapter
	Sandbox    Sandbox
	Store      storage.OutcomeStore
	Index      rag.SemanticIndex
	Sensor     sensors.MarketingSensor
	Summarizer *Summarizer
	Logger     *zap.Logger
}

// Marketing runs the marketing cycle of spec.md §4.8.
type Marketing struct {
	cfg MarketingConfig
}

// NewMarketing builds a Marketing cycle runner from cfg.
func NewMarketing(cfg MarketingConfig) *Marketing {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Marketing{cfg: cfg}
}

// RunCycle executes one full marketing cycle and returns the persisted
// StrategyData.
func (m *Marketing) RunCycle(ctx context.Context, prior *types.StrategyData, notificationStr string) (types.StrategyData, error) {
	cfg := m.cfg
	if notificationStr == "" {
		notificationStr = freshNotification
	}

	history := chatctx.New()

	startSnapshot, err := cfg.Sensor.Snapshot(ctx)
	if err != nil {
		cfg.Logger.Warn("social sensor failed, proceeding with empty snapshot", zap.Error(err))
	}
	startMetricState := formatFollowerCount(startSnapshot)
	apisStr := prompts.JoinAPIBlurbs(cfg.APIBlurbs)

	ragSummary, beforeMetricState, afterMetricState := placeholderRAGContext()
	if cfg.Index != nil {
		hits, queryErr := cfg.Index.Query(ctx, cfg.AgentID, notificationStr, 1)
		if queryErr != nil {
			cfg.Logger.Warn("rag lookup failed, using placeholder context", zap.Error(queryErr))
		} else if len(hits) > 0 {
			var payload types.StrategyData
			if err := json.Unmarshal([]byte(hits[0].Record.Payload), &payload); err == nil {
				ragSummary = payload.SummarizedDesc
				if v, ok := payload.Parameters["start_metric_state"].(string); ok {
					beforeMetricState = v
				}
				if v, ok := payload.Parameters["end_metric_state"].(string); ok {
					afterMetricState = v
				}
			}
		}
	}

	systemText, err := cfg.Prompts.Render("system_prompt", map[string]string{
		"metric_state": startMetricState,
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

	// Research stage.
	prevStrategyText := ""
	if prior != nil {
		prevStrategyText = prior.SummarizedDesc
	}
	researchAttempt := func(ctx context.Context, attemptIndex int, prevArtifact, accumulatedErr string) (chatctx.ChatHistory, string, error) {
		var rendered string
		var renderErr error
		if attemptIndex == 0 {
			if prior == nil {
				rendered, renderErr = cfg.Prompts.Render("research_code_prompt_first", map[string]string{"apis_str": apisStr})
			} else {
				rendered, renderErr = cfg.Prompts.Render("research_code_prompt", map[string]string{
					"notifications_str":   notificationStr,
					"prev_strategy":       prevStrategyText,
					"rag_summary":         ragSummary,
					"before_metric_state": beforeMetricState,
					"after_metric_state":  afterMetricState,
				})
			}
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
			return chatctx.ChatHistory{}, "", agenterr.New(agenterr.KindGen, "research", fmt.Errorf("no code snippet extracted"))
		}
		delta = delta.Append(types.Message{Role: types.RoleAssistant, Content: raw})
		return delta, snippets[0], nil
	}
	researchExecute := func(ctx context.Context, code string) (string, error) {
		return cfg.Sandbox.Execute(ctx, code, "research")
	}
	researchOutcome := RunStage(ctx, BudgetResearch, researchAttempt, researchExecute, persist)
	history = history.Concat(researchOutcome.History)
	researchOutput := researchOutcome.Output
	overallSuccess := researchOutcome.Success

	var strategyOutput string
	if overallSuccess {
		now := time.Now().UTC().Format(storage.TimestampFormat)
		strategyAttempt := func(ctx context.Context, attemptIndex int, prevArtifact, accumulatedErr string) (chatctx.ChatHistory, string, error) {
			rendered, renderErr := cfg.Prompts.Render("strategy_prompt", map[string]string{
				"notifications_str": notificationStr,
				"research_output":   researchOutput,
				"metric_name":       MarketingMetricName,
				"time":              now,
			})
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
		strategyOutput = strategyOutcome.Artifact
		overallSuccess = strategyOutcome.Success
	}

	var codeOutput string
	if overallSuccess {
		codeAttempt := func(ctx context.Context, attemptIndex int, prevArtifact, accumulatedErr string) (chatctx.ChatHistory, string, error) {
			var rendered string
			var renderErr error
			if attemptIndex == 0 {
				rendered, renderErr = cfg.Prompts.Render("marketing_code_prompt", map[string]string{
					"strategy_output": strategyOutput,
					"apis_str":        apisStr,
				})
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
				return chatctx.ChatHistory{}, "", agenterr.New(agenterr.KindGen, "marketing_code", fmt.Errorf("no code snippet extracted"))
			}
			delta = delta.Append(types.Message{Role: types.RoleAssistant, Content: raw})
			return delta, snippets[0], nil
		}
		codeExecute := func(ctx context.Context, code string) (string, error) {
			return cfg.Sandbox.Execute(ctx, code, "marketing_code")
		}
		codeOutcome := RunStage(ctx, BudgetCode, codeAttempt, codeExecute, persist)
		history = history.Concat(codeOutcome.History)
		codeOutput = codeOutcome.Output
		if !codeOutcome.Success {
			overallSuccess = false
		}
	}

	endSnapshot, err := cfg.Sensor.Snapshot(ctx)
	if err != nil {
		cfg.Logger.Warn("social sensor failed reading end state, reusing start state", zap.Error(err))
		endSnapshot = startSnapshot
	}
	endMetricState := formatFollowerCount(endSnapshot)

	result := types.StrategyResultFailed
	if overallSuccess {
		result = types.StrategyResultSuccess
	}

	summarizedStateChange := fmt.Sprintf("metric went from %s to %s", startMetricState, endMetricState)
	summarizedCode := codeOutput
	if cfg.Summarizer != nil {
		if s, sumErr := cfg.Summarizer.Summarize(ctx, fmt.Sprintf("start metric: %s", startMetricState), fmt.Sprintf("end metric: %s", endMetricState)); sumErr == nil {
			summarizedStateChange = s
		}
		if codeOutput != "" {
			if s, sumErr := cfg.Summarizer.Summarize(ctx, codeOutput); sumErr == nil {
				summarizedCode = s
			}
		}
	}

	summarizedDesc := strategyOutput
	if cfg.Summarizer != nil && strategyOutput != "" {
		if s, sumErr := cfg.Summarizer.Summarize(ctx, strategyOutput); sumErr == nil {
			summarizedDesc = s
		}
	}

	params := map[string]any{
		"apis":                   apisStr,
		"start_metric_state":     startMetricState,
		"end_metric_state":       endMetricState,
		"summarized_state_change": summarizedStateChange,
		"summarized_code":        summarizedCode,
		"code_output":            codeOutput,
		"prev_strat":             prevStrategyText,
	}

	inserted, err := cfg.Store.InsertStrategy(ctx, types.StrategyInsertData{
		AgentID:        cfg.AgentID,
		SummarizedDesc: summarizedDesc,
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

func placeholderRAGContext() (ragSummary, before, after string) {
	return "no similar past strategy found", "unknown", "unknown"
}
