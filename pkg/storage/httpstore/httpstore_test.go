// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package httpstore

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

func TestInsertStrategyPostsToCreateEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api_v1/strategy/create", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "agent-1", body["agent_id"])

		json.NewEncoder(w).Encode(strategyWire{
			StrategyID:     1,
			AgentID:        "agent-1",
			SummarizedDesc: "desc",
			StrategyResult: "success",
		})
	}))
	defer server.Close()

	store := New(Config{BaseURL: server.URL, APIKey: "test-key"})
	rec, err := store.InsertStrategy(context.Background(), types.StrategyInsertData{
		AgentID:        "agent-1",
		SummarizedDesc: "desc",
		StrategyResult: types.StrategyResultSuccess,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.StrategyID)
}

func TestFetchLatestNotificationStrFallsBackWhenSourceUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body["source"] {
		case "twitter":
			w.Write([]byte(`{"notifications": [{"long_desc": "twitter text", "notification_date": "2026-01-01T00:00:00Z"}]}`))
		case "news":
			w.Write([]byte(`{"notifications": [{"long_desc": "news text", "notification_date": "2026-01-01T00:00:00Z"}]}`))
		default:
			w.Write([]byte(`{"notifications": []}`))
		}
	}))
	defer server.Close()

	store := New(Config{BaseURL: server.URL, APIKey: "k"})
	// allowedSources has exactly two entries, so the unknown-source fallback
	// deterministically redirects to both rather than a random pick.
	text, err := store.FetchLatestNotificationStr(context.Background(), []string{"moon_phase"}, 1, []string{"twitter", "news"})
	require.NoError(t, err)
	assert.Equal(t, "twitter text\nnews text", text)
}
