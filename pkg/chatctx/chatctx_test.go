// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package chatctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/types"
)

func TestAppendIsNonMutating(t *testing.T) {
	base := New(types.Message{Role: types.RoleSystem, Content: "sys"})
	withUser := base.Append(types.Message{Role: types.RoleUser, Content: "hi"})

	require.Equal(t, 1, base.Len())
	require.Equal(t, 2, withUser.Len())
}

func TestAsNativePreservesOrderAndStripsMetadata(t *testing.T) {
	h := New().
		Append(types.Message{Role: types.RoleSystem, Content: "sys", Metadata: map[string]any{"k": "v"}}).
		Append(types.Message{Role: types.RoleUser, Content: "q"}).
		Append(types.Message{Role: types.RoleAssistant, Content: "a"})

	native := h.AsNative()
	require.Len(t, native, 3)
	assert.Equal(t, []NativeMessage{
		{Role: types.RoleSystem, Content: "sys"},
		{Role: types.RoleUser, Content: "q"},
		{Role: types.RoleAssistant, Content: "a"},
	}, native)
}

func TestLatestAccessorsOnEmptyHistory(t *testing.T) {
	h := New()
	assert.Equal(t, "", h.LatestResponse())
	assert.Equal(t, "", h.LatestInstruction())
}

func TestLatestAccessors(t *testing.T) {
	h := New().
		Append(types.Message{Role: types.RoleUser, Content: "q1"}).
		Append(types.Message{Role: types.RoleAssistant, Content: "a1"}).
		Append(types.Message{Role: types.RoleUser, Content: "q2"})

	assert.Equal(t, "a1", h.LatestResponse())
	assert.Equal(t, "q2", h.LatestInstruction())
}

func TestConcatKeepsBothSystemMessages(t *testing.T) {
	a := New(types.Message{Role: types.RoleSystem, Content: "sys-a"})
	b := New(types.Message{Role: types.RoleSystem, Content: "sys-b"})

	combined := a.Concat(b)
	require.Equal(t, 2, combined.Len())
	native := combined.AsNative()
	assert.Equal(t, "sys-a", native[0].Content)
	assert.Equal(t, "sys-b", native[1].Content)
}
