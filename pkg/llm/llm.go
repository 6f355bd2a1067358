// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package llm defines the uniform GeneratorAdapter interface every
// language-model back-end implements, plus the shared extraction logic
// used to pull code and YAML lists out of raw completions.
package llm

import (
	"context"

	"github.com/cycleforge/agentcore/pkg/chatctx"
)

// TokenKind partitions a streamed token as reasoning ("thinking") or
// answer ("main") content.
type TokenKind string

const (
	KindThinking TokenKind = "thinking"
	KindMain     TokenKind = "main"
)

// TokenSink receives streamed tokens in order as a completion is
// generated.
type TokenSink func(token string, kind TokenKind)

// GeneratorAdapter is the uniform interface every LLM back-end
// implements: a single completion, code extraction, and list extraction,
// each operating over a ChatHistory.
type GeneratorAdapter interface {
	// Name identifies the back-end (e.g. "anthropic", "openai", "mock").
	Name() string

	// Model returns the configured model identifier.
	Model() string

	// ChatCompletion returns the full non-reasoning text of a single
	// completion over history.
	ChatCompletion(ctx context.Context, history chatctx.ChatHistory) (string, error)

	// ChatCompletionStream behaves like ChatCompletion but additionally
	// streams tokens to sink as they arrive. sink may be nil, in which
	// case this is equivalent to ChatCompletion.
	ChatCompletionStream(ctx context.Context, history chatctx.ChatHistory, sink TokenSink) (string, error)

	// GenerateCode completes over history, then extracts python code
	// blocks per ExtractCode's policy. It returns the extracted snippets
	// (one per blockTag, or one overall if blockTags is empty) and the
	// raw completion text.
	GenerateCode(ctx context.Context, history chatctx.ChatHistory, blockTags []string) ([]string, string, error)

	// GenerateList completes over history, then extracts YAML list
	// blocks per ExtractList's policy. It returns one string slice per
	// blockTag (or one overall if blockTags is empty) and the raw
	// completion text.
	GenerateList(ctx context.Context, history chatctx.ChatHistory, blockTags []string) ([][]string, string, error)
}
