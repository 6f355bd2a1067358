// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package mock implements a deterministic, scriptable GeneratorAdapter
// for tests, grounded on the reference implementation's MockGenner: a
// fixed default reply when nothing has been scripted, and an in-order
// queue of scripted replies otherwise.
package mock

import (
	"context"
	"strings"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/chatctx"
	"github.com/cycleforge/agentcore/pkg/llm"
)

const defaultChatResponse = "This is a mocked completion response."

// CodeReply scripts one GenerateCode call's outcome.
type CodeReply struct {
	Snippets []string
	Raw      string
	Err      error
}

// ListReply scripts one GenerateList call's outcome.
type ListReply struct {
	Lists [][]string
	Raw   string
	Err   error
}

// Generator is a scriptable GeneratorAdapter: each call pops the next
// queued reply, falling back to a fixed default once the queue is
// empty.
type Generator struct {
	identifier string
	model      string

	chatQueue []string
	chatErrs  []error
	codeQueue []CodeReply
	listQueue []ListReply
}

// New builds a mock Generator. identifier/model default to "mock" if
// empty.
func New(identifier, model string) *Generator {
	if identifier == "" {
		identifier = "mock"
	}
	if model == "" {
		model = "mock"
	}
	return &Generator{identifier: identifier, model: model}
}

func (g *Generator) Name() string  { return g.identifier }
func (g *Generator) Model() string { return g.model }

// ScriptChatCompletion appends a scripted ChatCompletion reply.
func (g *Generator) ScriptChatCompletion(text string, err error) {
	g.chatQueue = append(g.chatQueue, text)
	g.chatErrs = append(g.chatErrs, err)
}

// ScriptCode appends a scripted GenerateCode reply.
func (g *Generator) ScriptCode(reply CodeReply) {
	g.codeQueue = append(g.codeQueue, reply)
}

// ScriptList appends a scripted GenerateList reply.
func (g *Generator) ScriptList(reply ListReply) {
	g.listQueue = append(g.listQueue, reply)
}

func (g *Generator) ChatCompletion(ctx context.Context, history chatctx.ChatHistory) (string, error) {
	if len(g.chatQueue) > 0 {
		text, err := g.chatQueue[0], g.chatErrs[0]
		g.chatQueue = g.chatQueue[1:]
		g.chatErrs = g.chatErrs[1:]
		return text, err
	}
	return defaultChatResponse, nil
}

func (g *Generator) ChatCompletionStream(ctx context.Context, history chatctx.ChatHistory, sink llm.TokenSink) (string, error) {
	text, err := g.ChatCompletion(ctx, history)
	if sink != nil && text != "" {
		sink(text, llm.KindMain)
	}
	return text, err
}

func (g *Generator) GenerateCode(ctx context.Context, history chatctx.ChatHistory, blockTags []string) ([]string, string, error) {
	if len(g.codeQueue) > 0 {
		reply := g.codeQueue[0]
		g.codeQueue = g.codeQueue[1:]
		if reply.Err != nil {
			return nil, reply.Raw, agenterr.New(agenterr.KindGen, "GenerateCode", reply.Err)
		}
		return reply.Snippets, reply.Raw, nil
	}

	mockCode := []string{"print('Hello, world!')", "def add(a, b): return a + b"}
	n := len(blockTags)
	if n == 0 {
		n = 1
	}
	snippets := make([]string, n)
	for i := range snippets {
		snippets[i] = mockCode[i%len(mockCode)]
	}
	return snippets, strings.Join(mockCode, "\n"), nil
}

func (g *Generator) GenerateList(ctx context.Context, history chatctx.ChatHistory, blockTags []string) ([][]string, string, error) {
	if len(g.listQueue) > 0 {
		reply := g.listQueue[0]
		g.listQueue = g.listQueue[1:]
		if reply.Err != nil {
			return nil, reply.Raw, agenterr.New(agenterr.KindGen, "GenerateList", reply.Err)
		}
		return reply.Lists, reply.Raw, nil
	}

	mockLists := [][]string{{"item1", "item2"}, {"item3", "item4"}}
	n := len(blockTags)
	if n == 0 {
		n = 1
	}
	lists := make([][]string, n)
	for i := range lists {
		lists[i] = mockLists[i%len(mockLists)]
	}
	return lists, "- item1\n- item2\n\n- item3\n- item4", nil
}

var _ llm.GeneratorAdapter = (*Generator)(nil)
