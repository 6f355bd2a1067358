// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package signer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/signer"
)

func TestClientSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/swap", r.URL.Path)
		require.Equal(t, "agent-1", r.Header.Get("x-superior-agent-id"))

		var body signer.SwapRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "WETH", body.TokenIn)

		_ = json.NewEncoder(w).Encode(signer.SwapResult{TransactionHash: "0xdead", Status: "confirmed"})
	}))
	defer srv.Close()

	client := signer.New(signer.Config{BaseURL: srv.URL})
	result, err := client.Swap(context.Background(), "agent-1", signer.SwapRequest{
		TokenIn: "WETH", TokenOut: "USDC", AmountIn: 1, Slippage: 0.01,
	})
	require.NoError(t, err)
	require.Equal(t, "0xdead", result.TransactionHash)
}

func TestClientAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(signer.AddressResult{EVM: "0xC02a...6Cc2"})
	}))
	defer srv.Close()

	client := signer.New(signer.Config{BaseURL: srv.URL})
	result, err := client.Addresses(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Equal(t, "0xC02a...6Cc2", result.EVM)
}

func TestClientQuoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	}))
	defer srv.Close()

	client := signer.New(signer.Config{BaseURL: srv.URL})
	_, err := client.Quote(context.Background(), "agent-1", signer.QuoteRequest{})
	require.Error(t, err)
}
