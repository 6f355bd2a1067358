// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/chatctx"
	"github.com/cycleforge/agentcore/pkg/llm"
	"github.com/cycleforge/agentcore/pkg/types"
)

// BudgetSummarize bounds how many times the summarizer retries an empty
// or erroring completion before giving up.
const BudgetSummarize = 3

const summarizerSystemPrompt = "You condense the following bullet points into a single short paragraph suitable as a strategy summary or index key. Respond with the paragraph only, no preamble."

// Summarizer issues one non-streaming completion per call, bulleting its
// input lines into a fixed system-prompt template and returning the
// trimmed response text. It is a thin consumer of llm.GeneratorAdapter,
// reused by both the trading and marketing flows to compress a full
// strategy or a metric-state change into the short text the semantic
// index keys on.
type Summarizer struct {
	adapter llm.GeneratorAdapter
}

// NewSummarizer builds a Summarizer over adapter.
func NewSummarizer(adapter llm.GeneratorAdapter) *Summarizer {
	return &Summarizer{adapter: adapter}
}

// Summarize bullet-joins lines into one user message, appended after the
// fixed system prompt, and returns the trimmed completion text. It
// retries up to BudgetSummarize times on error or an empty response.
func (s *Summarizer) Summarize(ctx context.Context, lines ...string) (string, error) {
	bullets := make([]string, len(lines))
	for i, l := range lines {
		bullets[i] = "- " + l
	}
	userContent := strings.Join(bullets, "\n")

	history := chatctx.New(
		types.Message{Role: types.RoleSystem, Content: summarizerSystemPrompt},
		types.Message{Role: types.RoleUser, Content: userContent},
	)

	var lastErr error
	for attempt := 0; attempt < BudgetSummarize; attempt++ {
		text, err := s.adapter.ChatCompletion(ctx, history)
		if err != nil {
			lastErr = err
			continue
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			lastErr = fmt.Errorf("summarizer returned empty response")
			continue
		}
		return trimmed, nil
	}
	return "", agenterr.New(agenterr.KindGen, "Summarize", lastErr)
}
