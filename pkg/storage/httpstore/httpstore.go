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

// Package httpstore implements storage.OutcomeStore against the outcome
// store's REST API: POST /api_v1/<entity>/create|update|get, authenticated
// via the x-api-key header, plus notification/get_v3 for notification reads.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/notifications"
	"github.com/cycleforge/agentcore/pkg/storage"
	"github.com/cycleforge/agentcore/pkg/types"
)

// Config configures the HTTP-backed outcome store client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Store implements storage.OutcomeStore over HTTP.
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds an HTTP-backed outcome store client.
func New(cfg Config) *Store {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Store{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, client: client}
}

func (s *Store) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.client.Do(req)
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

type strategyWire struct {
	StrategyID     int64          `json:"strategy_id"`
	AgentID        string         `json:"agent_id"`
	SummarizedDesc string         `json:"summarized_desc"`
	FullDesc       string         `json:"full_desc"`
	Parameters     map[string]any `json:"parameters"`
	StrategyResult string         `json:"strategy_result"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (w strategyWire) toStrategyData() types.StrategyData {
	return types.StrategyData{
		StrategyID:     w.StrategyID,
		AgentID:        w.AgentID,
		SummarizedDesc: w.SummarizedDesc,
		FullDesc:       w.FullDesc,
		Parameters:     w.Parameters,
		StrategyResult: types.StrategyResult(w.StrategyResult),
		CreatedAt:      w.CreatedAt,
	}
}

func (s *Store) InsertStrategy(ctx context.Context, data types.StrategyInsertData) (types.StrategyData, error) {
	var resp strategyWire
	err := s.post(ctx, "/api_v1/strategy/create", map[string]any{
		"agent_id":        data.AgentID,
		"summarized_desc": data.SummarizedDesc,
		"full_desc":       data.FullDesc,
		"parameters":      data.Parameters,
		"strategy_result": string(data.StrategyResult),
	}, &resp)
	if err != nil {
		return types.StrategyData{}, agenterr.New(agenterr.KindStore, "InsertStrategy", err)
	}
	return resp.toStrategyData(), nil
}

func (s *Store) FetchLatestStrategy(ctx context.Context, agentID string) (types.StrategyData, bool, error) {
	var resp struct {
		Found    bool         `json:"found"`
		Strategy strategyWire `json:"strategy"`
	}
	err := s.post(ctx, "/api_v1/strategy/get", map[string]any{
		"agent_id": agentID,
		"mode":     "latest",
	}, &resp)
	if err != nil {
		return types.StrategyData{}, false, agenterr.New(agenterr.KindStore, "FetchLatestStrategy", err)
	}
	if !resp.Found {
		return types.StrategyData{}, false, nil
	}
	return resp.Strategy.toStrategyData(), true, nil
}

func (s *Store) FetchAllStrategies(ctx context.Context, agentID string) ([]types.StrategyData, error) {
	var resp struct {
		Strategies []strategyWire `json:"strategies"`
	}
	err := s.post(ctx, "/api_v1/strategy/get", map[string]any{
		"agent_id": agentID,
		"mode":     "all",
	}, &resp)
	if err != nil {
		return nil, agenterr.New(agenterr.KindStore, "FetchAllStrategies", err)
	}
	out := make([]types.StrategyData, len(resp.Strategies))
	for i, w := range resp.Strategies {
		out[i] = w.toStrategyData()
	}
	return out, nil
}

type chatMessageWire struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (s *Store) InsertChatHistory(ctx context.Context, sessionID, agentID string, messages []types.Message, baseTimestamp time.Time) error {
	wireMessages := make([]chatMessageWire, len(messages))
	for i, m := range messages {
		wireMessages[i] = chatMessageWire{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: storage.DeriveTimestamp(baseTimestamp, i).Format(storage.TimestampFormat),
		}
	}

	err := s.post(ctx, "/api_v1/chat_history/create", map[string]any{
		"session_id": sessionID,
		"agent_id":   agentID,
		"messages":   wireMessages,
	}, nil)
	if err != nil {
		return agenterr.New(agenterr.KindStore, "InsertChatHistory", err)
	}
	return nil
}

// FetchLatestNotificationStr fetches up to limit most-recent notifications
// per source, deduplicates across the whole result, and newline-joins the
// LongDesc fields, per spec.md §4.5. If sources names anything outside
// allowedSources, the whole request is redirected to two of allowedSources
// chosen at random (S5).
func (s *Store) FetchLatestNotificationStr(ctx context.Context, sources []string, limit int, allowedSources []string) (string, error) {
	resolved := notifications.ResolveSources(sources, allowedSources)

	var all []types.NotificationRecord
	for _, source := range resolved {
		var resp struct {
			Notifications []struct {
				LongDesc            string    `json:"long_desc"`
				RelativeToScraperID string    `json:"relative_to_scraper_id"`
				NotificationDate    time.Time `json:"notification_date"`
			} `json:"notifications"`
		}
		if err := s.post(ctx, "/api_v1/notification/get_v3", map[string]any{"source": source, "limit": limit}, &resp); err != nil {
			return "", agenterr.New(agenterr.KindStore, "FetchLatestNotificationStr", err)
		}
		for _, n := range resp.Notifications {
			all = append(all, types.NotificationRecord{
				Source:              source,
				LongDesc:            n.LongDesc,
				RelativeToScraperID: n.RelativeToScraperID,
				NotificationDate:    n.NotificationDate,
			})
		}
	}

	grouped := notifications.GroupAndLimit(all, resolved, limit)
	return notifications.JoinLongDesc(notifications.Dedupe(grouped)), nil
}

func (s *Store) EnsureSession(ctx context.Context, sessionID, agentID string) (types.SessionState, error) {
	var resp struct {
		Session struct {
			SessionID  string    `json:"session_id"`
			AgentID    string    `json:"agent_id"`
			StartedAt  time.Time `json:"started_at"`
			Status     string    `json:"status"`
			CycleCount int64     `json:"cycle_count"`
		} `json:"session"`
	}
	err := s.post(ctx, "/api_v1/session/create", map[string]any{
		"session_id": sessionID,
		"agent_id":   agentID,
		"status":     string(types.SessionStatusRunning),
	}, &resp)
	if err != nil {
		return types.SessionState{}, agenterr.New(agenterr.KindStore, "EnsureSession", err)
	}
	return types.SessionState{
		SessionID:  resp.Session.SessionID,
		AgentID:    resp.Session.AgentID,
		StartedAt:  resp.Session.StartedAt,
		Status:     types.SessionStatus(resp.Session.Status),
		CycleCount: resp.Session.CycleCount,
	}, nil
}

func (s *Store) MarkSessionStopped(ctx context.Context, sessionID string, endedAt time.Time) error {
	err := s.post(ctx, "/api_v1/session/update", map[string]any{
		"session_id": sessionID,
		"status":     string(types.SessionStatusStopped),
		"ended_at":   endedAt,
	}, nil)
	if err != nil {
		return agenterr.New(agenterr.KindStore, "MarkSessionStopped", err)
	}
	return nil
}

func (s *Store) IncrementCycleCount(ctx context.Context, sessionID string) (int64, error) {
	var resp struct {
		CycleCount int64 `json:"cycle_count"`
	}
	err := s.post(ctx, "/api_v1/session/update", map[string]any{
		"session_id":          sessionID,
		"increment_cycles_by": 1,
	}, &resp)
	if err != nil {
		return 0, agenterr.New(agenterr.KindStore, "IncrementCycleCount", err)
	}
	return resp.CycleCount, nil
}

var _ storage.OutcomeStore = (*Store)(nil)
