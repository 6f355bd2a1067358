// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package signer is a typed client over the external signer service: the
// custodial wallet backend that resolves an agent's managed address and
// performs quotes/swaps on its behalf. The core never signs anything
// itself; this package only shapes the three requests spec.md §6 names.
package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cycleforge/agentcore/pkg/agenterr"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client calls the signer service's swap/quote/address endpoints on
// behalf of a trading agent.
type Client struct {
	baseURL string
	client  *http.Client
}

// New builds a signer Client from cfg.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: cfg.BaseURL, client: client}
}

// SwapRequest is the body of POST /api/v1/swap.
type SwapRequest struct {
	TokenIn  string  `json:"token_in"`
	TokenOut string  `json:"token_out"`
	AmountIn float64 `json:"amount_in"`
	Slippage float64 `json:"slippage"`
}

// SwapResult is the response of a successful swap.
type SwapResult struct {
	TransactionHash string `json:"transaction_hash"`
	Status          string `json:"status"`
}

// QuoteRequest is the body of POST /api/v1/quote.
type QuoteRequest struct {
	TokenIn  string  `json:"token_in"`
	TokenOut string  `json:"token_out"`
	AmountIn float64 `json:"amount_in"`
}

// QuoteResult is the response of a quote request.
type QuoteResult struct {
	AmountOut float64 `json:"amount_out"`
}

// AddressResult is the response of GET /api/v1/addresses.
type AddressResult struct {
	EVM string `json:"evm"`
}

func (c *Client) do(ctx context.Context, method, path, agentID string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if agentID != "" {
		req.Header.Set("x-superior-agent-id", agentID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(respBody))
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// Swap executes req on behalf of agentID.
func (c *Client) Swap(ctx context.Context, agentID string, req SwapRequest) (SwapResult, error) {
	var out SwapResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/swap", agentID, req, &out); err != nil {
		return SwapResult{}, agenterr.New(agenterr.KindSensor, "Swap", err)
	}
	return out, nil
}

// Quote prices req without executing it.
func (c *Client) Quote(ctx context.Context, agentID string, req QuoteRequest) (QuoteResult, error) {
	var out QuoteResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/quote", agentID, req, &out); err != nil {
		return QuoteResult{}, agenterr.New(agenterr.KindSensor, "Quote", err)
	}
	return out, nil
}

// Addresses resolves agentID's managed on-chain addresses.
func (c *Client) Addresses(ctx context.Context, agentID string) (AddressResult, error) {
	var out AddressResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/addresses", agentID, nil, &out); err != nil {
		return AddressResult{}, agenterr.New(agenterr.KindSensor, "Addresses", err)
	}
	return out, nil
}
