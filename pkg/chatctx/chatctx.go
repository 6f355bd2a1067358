// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package chatctx implements the append-only chat history every
// generation stage reads from and extends.
package chatctx

import "github.com/cycleforge/agentcore/pkg/types"

// NativeMessage is the metadata-stripped view AsNative returns.
type NativeMessage struct {
	Role    types.Role
	Content string
}

// ChatHistory is an ordered, immutable sequence of messages. Every
// mutator returns a new ChatHistory; the receiver's backing slice is
// never written to.
type ChatHistory struct {
	messages []types.Message
}

// New builds a ChatHistory from zero or more initial messages.
func New(initial ...types.Message) ChatHistory {
	if len(initial) == 0 {
		return ChatHistory{}
	}
	messages := make([]types.Message, len(initial))
	copy(messages, initial)
	return ChatHistory{messages: messages}
}

// Len returns the number of messages.
func (h ChatHistory) Len() int {
	return len(h.messages)
}

// Append returns a new ChatHistory with msg appended; h is unchanged.
func (h ChatHistory) Append(msg types.Message) ChatHistory {
	messages := make([]types.Message, len(h.messages), len(h.messages)+1)
	copy(messages, h.messages)
	messages = append(messages, msg)
	return ChatHistory{messages: messages}
}

// Concat returns a new ChatHistory with other's messages appended after
// h's. Either side may contain its own system message; callers are
// responsible for system-message uniqueness when rendering.
func (h ChatHistory) Concat(other ChatHistory) ChatHistory {
	messages := make([]types.Message, len(h.messages)+len(other.messages))
	copy(messages, h.messages)
	copy(messages[len(h.messages):], other.messages)
	return ChatHistory{messages: messages}
}

// AsNative returns the role/content pairs in insertion order with
// metadata stripped.
func (h ChatHistory) AsNative() []NativeMessage {
	native := make([]NativeMessage, len(h.messages))
	for i, m := range h.messages {
		native[i] = NativeMessage{Role: m.Role, Content: m.Content}
	}
	return native
}

// LatestResponse returns the content of the last assistant message, or
// "" if there is none.
func (h ChatHistory) LatestResponse() string {
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == types.RoleAssistant {
			return h.messages[i].Content
		}
	}
	return ""
}

// LatestInstruction returns the content of the last user message, or ""
// if there is none.
func (h ChatHistory) LatestInstruction() string {
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == types.RoleUser {
			return h.messages[i].Content
		}
	}
	return ""
}

// Messages returns the underlying messages. The caller must not mutate
// the returned slice's elements' Metadata maps in place if it intends to
// preserve append-only semantics for downstream readers.
func (h ChatHistory) Messages() []types.Message {
	out := make([]types.Message, len(h.messages))
	copy(out, h.messages)
	return out
}
