// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresherNoopWithoutURL(t *testing.T) {
	r := NewRefresher("", "", 0, nil, nil)
	require.NoError(t, r.Start(context.Background()))
	r.Stop()
}

func TestRefresherInvokesCallbackOnEachTick(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSEEvent(w, `{"pacing_seconds": 42}`)
	}))
	defer server.Close()

	var mu sync.Mutex
	var received []SessionPayload
	r := NewRefresher(server.URL, "@every 20ms", time.Second, nil, func(p SessionPayload) {
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
	})

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 42, received[0].PacingSeconds)
}
