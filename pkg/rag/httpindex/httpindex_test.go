// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package httpindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/types"
)

func TestUpsertWritesBothV1AndV4(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "k"})
	err := client.Upsert(context.Background(), types.VectorRecord{ReferenceID: "r1", AgentID: "a"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/save_result_v4", "/save_result"}, paths)
}

func TestQueryPrefersV4AndFallsBackWhenEmpty(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/relevant_strategy_raw_v4" {
			w.Write([]byte(`{"results": []}`))
			return
		}
		w.Write([]byte(`{"results": [{"record": {"reference_id": "r1", "agent_id": "a"}, "distance": 0.1}]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "k"})
	hits, err := client.Query(context.Background(), "a", "query", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "r1", hits[0].Record.ReferenceID)
	assert.Equal(t, 2, calls)
}

func TestQueryUsesV4WhenPopulated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/relevant_strategy_raw_v4", r.URL.Path)
		w.Write([]byte(`{"results": [{"record": {"reference_id": "r2", "agent_id": "a"}, "distance": 0.05}]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "k"})
	hits, err := client.Query(context.Background(), "a", "query", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "r2", hits[0].Record.ReferenceID)
}
