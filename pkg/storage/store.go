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

// Package storage defines the outcome store contract: durable strategy
// results, chat transcripts, notification lookups, and session
// bookkeeping for a running agent. Three backends implement OutcomeStore:
// memstore (in-process, for tests), pgstore (PostgreSQL), and httpstore
// (the outcome-store REST service).
package storage

import (
	"context"
	"time"

	"github.com/cycleforge/agentcore/pkg/types"
)

// OutcomeStore is the durable record of everything an agent has tried
// and observed: strategies it generated, the chat transcripts that
// produced them, and the session it is running under.
type OutcomeStore interface {
	// InsertStrategy persists a new strategy outcome and returns it with
	// its assigned StrategyID populated.
	InsertStrategy(ctx context.Context, data types.StrategyInsertData) (types.StrategyData, error)

	// FetchLatestStrategy returns the most recently inserted strategy for
	// agentID, tie-broken by the largest StrategyID. ok is false if the
	// agent has no strategies yet.
	FetchLatestStrategy(ctx context.Context, agentID string) (strategy types.StrategyData, ok bool, err error)

	// FetchAllStrategies returns every strategy recorded for agentID,
	// ordered by StrategyID ascending.
	FetchAllStrategies(ctx context.Context, agentID string) ([]types.StrategyData, error)

	// InsertChatHistory persists messages as a transcript for sessionID.
	// Message i is timestamped baseTimestamp + i seconds, formatted
	// "2006-01-02 15:04:05".
	InsertChatHistory(ctx context.Context, sessionID, agentID string, messages []types.Message, baseTimestamp time.Time) error

	// FetchLatestNotificationStr groups notifications by source, returns
	// up to limit most-recent long_desc per source, deduplicated, and
	// newline-joined (spec.md §4.5). If sources names anything outside
	// allowedSources, the whole request is redirected to two of
	// allowedSources chosen at random instead.
	FetchLatestNotificationStr(ctx context.Context, sources []string, limit int, allowedSources []string) (string, error)

	// EnsureSession creates sessionID if absent and marks it running,
	// returning its current state either way.
	EnsureSession(ctx context.Context, sessionID, agentID string) (types.SessionState, error)

	// MarkSessionStopped records sessionID as stopped at the given time.
	MarkSessionStopped(ctx context.Context, sessionID string, endedAt time.Time) error

	// IncrementCycleCount bumps sessionID's CycleCount by one and returns
	// the new value.
	IncrementCycleCount(ctx context.Context, sessionID string) (int64, error)
}

// TimestampFormat is the wire format InsertChatHistory uses for derived
// per-message timestamps.
const TimestampFormat = "2006-01-02 15:04:05"

// DeriveTimestamp returns the timestamp assigned to the i-th message in a
// batch starting at base.
func DeriveTimestamp(base time.Time, i int) time.Time {
	return base.Add(time.Duration(i) * time.Second)
}
