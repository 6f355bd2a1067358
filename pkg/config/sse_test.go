// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSSEEvent(w http.ResponseWriter, data string) {
	w.Write([]byte("event: message\n"))
	w.Write([]byte("data: " + data + "\n\n"))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func TestIngestSessionConfigReturnsDefaultsForEmptyURL(t *testing.T) {
	payload, err := IngestSessionConfig(context.Background(), "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionPayload(), payload)
}

func TestIngestSessionConfigDecodesFirstEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEEvent(w, `{"templates": {"system_prompt": "custom"}, "notification_sources": ["twitter"], "pacing_seconds": 30}`)
	}))
	defer server.Close()

	payload, err := IngestSessionConfig(context.Background(), server.URL, 2*time.Second, nil)

	require.NoError(t, err)
	assert.Equal(t, "custom", payload.Templates["system_prompt"])
	assert.Equal(t, []string{"twitter"}, payload.NotificationSources)
	assert.Equal(t, 30, payload.PacingSeconds)
}

func TestIngestSessionConfigFallsBackOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		<-r.Context().Done()
	}))
	defer server.Close()

	payload, err := IngestSessionConfig(context.Background(), server.URL, 50*time.Millisecond, nil)

	require.Error(t, err)
	assert.Equal(t, DefaultSessionPayload(), payload)
}

func TestIngestSessionConfigFallsBackOnMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEEvent(w, `not-json`)
	}))
	defer server.Close()

	payload, err := IngestSessionConfig(context.Background(), server.URL, 2*time.Second, nil)

	require.Error(t, err)
	assert.Equal(t, DefaultSessionPayload(), payload)
}
