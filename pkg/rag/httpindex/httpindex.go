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

// Package httpindex implements rag.SemanticIndex against the semantic
// index REST service. It writes every record through both the v1 and v4
// save endpoints, and queries v4 preferentially, falling back to v1 and
// merging the results when v4 returns nothing.
package httpindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/rag"
	"github.com/cycleforge/agentcore/pkg/types"
)

// Config configures the HTTP-backed semantic index client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client implements rag.SemanticIndex over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, client: httpClient}
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(respBody))
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

type recordWire struct {
	ReferenceID string    `json:"reference_id"`
	AgentID     string    `json:"agent_id"`
	SessionID   string    `json:"session_id"`
	TextKey     string    `json:"text_key"`
	Payload     string    `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
}

func toWire(rec types.VectorRecord) recordWire {
	return recordWire{
		ReferenceID: rec.ReferenceID,
		AgentID:     rec.AgentID,
		SessionID:   rec.SessionID,
		TextKey:     rec.TextKey,
		Payload:     rec.Payload,
		CreatedAt:   rec.CreatedAt,
	}
}

func (w recordWire) toRecord() types.VectorRecord {
	return types.VectorRecord{
		ReferenceID: w.ReferenceID,
		AgentID:     w.AgentID,
		SessionID:   w.SessionID,
		TextKey:     w.TextKey,
		Payload:     w.Payload,
		CreatedAt:   w.CreatedAt,
	}
}

// Upsert saves rec via /save_result_v4 (the current per-agent partition)
// and /save_result (the legacy per-session partition), so readers on
// either version see it.
func (c *Client) Upsert(ctx context.Context, rec types.VectorRecord) error {
	wire := toWire(rec)

	if err := c.post(ctx, "/save_result_v4", wire, nil); err != nil {
		return agenterr.New(agenterr.KindStore, "Upsert", fmt.Errorf("save_result_v4: %w", err))
	}
	if err := c.post(ctx, "/save_result", wire, nil); err != nil {
		return agenterr.New(agenterr.KindStore, "Upsert", fmt.Errorf("save_result: %w", err))
	}
	return nil
}

type relevantWire struct {
	Record   recordWire `json:"record"`
	Distance float64    `json:"distance"`
}

// Query prefers /relevant_strategy_raw_v4. If it returns no hits, falls
// back to /relevant_strategy_raw (the legacy per-session endpoint, which
// the service is expected to union across a caller's session
// partitions server-side).
func (c *Client) Query(ctx context.Context, agentID, queryText string, topK int) ([]rag.Hit, error) {
	reqBody := map[string]any{
		"agent_id": agentID,
		"query":    queryText,
		"top_k":    topK,
	}

	var resp struct {
		Results []relevantWire `json:"results"`
	}
	if err := c.post(ctx, "/relevant_strategy_raw_v4", reqBody, &resp); err != nil {
		return nil, agenterr.New(agenterr.KindStore, "Query", fmt.Errorf("relevant_strategy_raw_v4: %w", err))
	}

	if len(resp.Results) == 0 {
		if err := c.post(ctx, "/relevant_strategy_raw", reqBody, &resp); err != nil {
			return nil, agenterr.New(agenterr.KindStore, "Query", fmt.Errorf("relevant_strategy_raw: %w", err))
		}
	}

	hits := make([]rag.Hit, len(resp.Results))
	for i, r := range resp.Results {
		hits[i] = rag.Hit{Record: r.Record.toRecord(), Distance: r.Distance}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

var _ rag.SemanticIndex = (*Client)(nil)
