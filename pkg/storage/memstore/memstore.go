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

// Package memstore implements an in-process storage.OutcomeStore, used
// by tests and by single-process smoke runs that don't need durability
// across restarts.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/notifications"
	"github.com/cycleforge/agentcore/pkg/storage"
	"github.com/cycleforge/agentcore/pkg/types"
)

type chatRecord struct {
	AgentID   string
	Message   types.Message
	Timestamp string
}

// Store is a mutex-guarded, in-memory OutcomeStore.
type Store struct {
	mu sync.Mutex

	strategies  map[string][]types.StrategyData
	nextID      map[string]int64
	chatHistory []chatRecord
	notifs      map[string][]types.NotificationRecord
	sessions    map[string]types.SessionState
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		strategies: make(map[string][]types.StrategyData),
		nextID:     make(map[string]int64),
		notifs:     make(map[string][]types.NotificationRecord),
		sessions:   make(map[string]types.SessionState),
	}
}

// SeedNotification lets tests and backfill code inject a notification
// for source without a network round trip.
func (s *Store) SeedNotification(source string, rec types.NotificationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifs[source] = append(s.notifs[source], rec)
}

func (s *Store) InsertStrategy(ctx context.Context, data types.StrategyInsertData) (types.StrategyData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID[data.AgentID]++
	id := s.nextID[data.AgentID]

	rec := types.StrategyData{
		StrategyID:     id,
		AgentID:        data.AgentID,
		SummarizedDesc: data.SummarizedDesc,
		FullDesc:       data.FullDesc,
		Parameters:     data.Parameters,
		StrategyResult: data.StrategyResult,
		CreatedAt:      time.Now().UTC(),
	}
	s.strategies[data.AgentID] = append(s.strategies[data.AgentID], rec)
	return rec, nil
}

func (s *Store) FetchLatestStrategy(ctx context.Context, agentID string) (types.StrategyData, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	strategies := s.strategies[agentID]
	if len(strategies) == 0 {
		return types.StrategyData{}, false, nil
	}
	latest := strategies[0]
	for _, st := range strategies[1:] {
		if st.StrategyID > latest.StrategyID {
			latest = st
		}
	}
	return latest, true, nil
}

func (s *Store) FetchAllStrategies(ctx context.Context, agentID string) ([]types.StrategyData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.StrategyData, len(s.strategies[agentID]))
	copy(out, s.strategies[agentID])
	sort.Slice(out, func(i, j int) bool { return out[i].StrategyID < out[j].StrategyID })
	return out, nil
}

func (s *Store) InsertChatHistory(ctx context.Context, sessionID, agentID string, messages []types.Message, baseTimestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range messages {
		ts := storage.DeriveTimestamp(baseTimestamp, i).Format(storage.TimestampFormat)
		s.chatHistory = append(s.chatHistory, chatRecord{AgentID: agentID, Message: m, Timestamp: ts})
	}
	return nil
}

// FetchLatestNotificationStr groups the stored notifications by source,
// keeps up to limit most-recent per source, deduplicates across the
// result, and newline-joins the LongDesc fields, per spec.md §4.5. If
// sources names anything outside allowedSources, the whole request is
// redirected to two of allowedSources chosen at random (S5).
func (s *Store) FetchLatestNotificationStr(ctx context.Context, sources []string, limit int, allowedSources []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := notifications.ResolveSources(sources, allowedSources)

	var all []types.NotificationRecord
	for _, source := range resolved {
		all = append(all, s.notifs[source]...)
	}

	grouped := notifications.GroupAndLimit(all, resolved, limit)
	return notifications.JoinLongDesc(notifications.Dedupe(grouped)), nil
}

func (s *Store) EnsureSession(ctx context.Context, sessionID, agentID string) (types.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[sessionID]; ok {
		existing.Status = types.SessionStatusRunning
		s.sessions[sessionID] = existing
		return existing, nil
	}

	state := types.SessionState{
		SessionID:  sessionID,
		AgentID:    agentID,
		StartedAt:  time.Now().UTC(),
		Status:     types.SessionStatusRunning,
		CycleCount: 0,
	}
	s.sessions[sessionID] = state
	return state, nil
}

func (s *Store) MarkSessionStopped(ctx context.Context, sessionID string, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return agenterr.New(agenterr.KindStore, "MarkSessionStopped", fmt.Errorf("unknown session %q", sessionID))
	}
	state.Status = types.SessionStatusStopped
	state.EndedAt = &endedAt
	s.sessions[sessionID] = state
	return nil
}

func (s *Store) IncrementCycleCount(ctx context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return 0, agenterr.New(agenterr.KindStore, "IncrementCycleCount", fmt.Errorf("unknown session %q", sessionID))
	}
	state.CycleCount++
	s.sessions[sessionID] = state
	return state.CycleCount, nil
}

var _ storage.OutcomeStore = (*Store)(nil)
