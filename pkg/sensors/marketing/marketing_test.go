// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package marketing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/sensors"
)

func TestSnapshotReadsFollowersAndLikes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/users/me", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"followers": 142, "likes": 530}`))
	}))
	defer server.Close()

	f := New(Config{BaseURL: server.URL, BearerToken: "tok"})
	snap, err := f.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 142, snap.Followers)
	assert.Equal(t, 530, snap.Likes)
}

func TestSnapshotFallsBackToDefaultsOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := New(Config{BaseURL: server.URL})
	snap, err := f.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sensors.DefaultFollowers, snap.Followers)
	assert.Equal(t, sensors.DefaultLikes, snap.Likes)
}

func TestSnapshotOmitsAuthHeaderWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"followers": 1, "likes": 2}`))
	}))
	defer server.Close()

	f := New(Config{BaseURL: server.URL})
	_, err := f.Snapshot(context.Background())
	require.NoError(t, err)
}
