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

// Package pgstore implements storage.OutcomeStore against PostgreSQL
// using pgx, the way the reference session store persists sessions and
// messages: a pooled connection, short transactions, and upsert-by-key
// writes.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/notifications"
	"github.com/cycleforge/agentcore/pkg/storage"
	"github.com/cycleforge/agentcore/pkg/types"
)

// Store implements storage.OutcomeStore against a PostgreSQL database.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pgxpool.Pool. Schema is assumed to be
// provisioned out of band (strategies, chat_messages, notifications,
// sessions tables).
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func execInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertStrategy(ctx context.Context, data types.StrategyInsertData) (types.StrategyData, error) {
	paramsJSON, err := json.Marshal(data.Parameters)
	if err != nil {
		return types.StrategyData{}, agenterr.New(agenterr.KindStore, "InsertStrategy", fmt.Errorf("marshal parameters: %w", err))
	}

	var rec types.StrategyData
	rec.AgentID = data.AgentID
	rec.SummarizedDesc = data.SummarizedDesc
	rec.FullDesc = data.FullDesc
	rec.Parameters = data.Parameters
	rec.StrategyResult = data.StrategyResult

	err = execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
		INSERT INTO strategies (agent_id, summarized_desc, full_desc, parameters, strategy_result, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING strategy_id, created_at`,
			data.AgentID, data.SummarizedDesc, data.FullDesc, paramsJSON, string(data.StrategyResult),
		).Scan(&rec.StrategyID, &rec.CreatedAt)
	})
	if err != nil {
		return types.StrategyData{}, agenterr.New(agenterr.KindStore, "InsertStrategy", err)
	}
	return rec, nil
}

func (s *Store) FetchLatestStrategy(ctx context.Context, agentID string) (types.StrategyData, bool, error) {
	var rec types.StrategyData
	var paramsJSON []byte
	var result string

	err := execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
		SELECT strategy_id, agent_id, summarized_desc, full_desc, parameters, strategy_result, created_at
		FROM strategies
		WHERE agent_id = $1
		ORDER BY strategy_id DESC
		LIMIT 1`, agentID,
		).Scan(&rec.StrategyID, &rec.AgentID, &rec.SummarizedDesc, &rec.FullDesc, &paramsJSON, &result, &rec.CreatedAt)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return types.StrategyData{}, false, nil
		}
		return types.StrategyData{}, false, agenterr.New(agenterr.KindStore, "FetchLatestStrategy", err)
	}

	rec.StrategyResult = types.StrategyResult(result)
	if len(paramsJSON) > 0 {
		if err := json.Unmarshal(paramsJSON, &rec.Parameters); err != nil {
			return types.StrategyData{}, false, agenterr.New(agenterr.KindStore, "FetchLatestStrategy", fmt.Errorf("unmarshal parameters: %w", err))
		}
	}
	return rec, true, nil
}

func (s *Store) FetchAllStrategies(ctx context.Context, agentID string) ([]types.StrategyData, error) {
	var out []types.StrategyData

	err := execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
		SELECT strategy_id, agent_id, summarized_desc, full_desc, parameters, strategy_result, created_at
		FROM strategies
		WHERE agent_id = $1
		ORDER BY strategy_id ASC`, agentID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec types.StrategyData
			var paramsJSON []byte
			var result string
			if err := rows.Scan(&rec.StrategyID, &rec.AgentID, &rec.SummarizedDesc, &rec.FullDesc, &paramsJSON, &result, &rec.CreatedAt); err != nil {
				return err
			}
			rec.StrategyResult = types.StrategyResult(result)
			if len(paramsJSON) > 0 {
				if err := json.Unmarshal(paramsJSON, &rec.Parameters); err != nil {
					return fmt.Errorf("unmarshal parameters: %w", err)
				}
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, agenterr.New(agenterr.KindStore, "FetchAllStrategies", err)
	}
	return out, nil
}

func (s *Store) InsertChatHistory(ctx context.Context, sessionID, agentID string, messages []types.Message, baseTimestamp time.Time) error {
	err := execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		for i, m := range messages {
			ts := storage.DeriveTimestamp(baseTimestamp, i).Format(storage.TimestampFormat)
			metaJSON, err := json.Marshal(m.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata: %w", err)
			}
			if _, err := tx.Exec(ctx, `
			INSERT INTO chat_messages (session_id, agent_id, role, content, metadata, message_timestamp)
			VALUES ($1, $2, $3, $4, $5, $6)`,
				sessionID, agentID, string(m.Role), m.Content, metaJSON, ts,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return agenterr.New(agenterr.KindStore, "InsertChatHistory", err)
	}
	return nil
}

// FetchLatestNotificationStr groups the stored notifications by source,
// keeps up to limit most-recent per source, deduplicates across the
// result, and newline-joins the LongDesc fields, per spec.md §4.5. If
// sources names anything outside allowedSources, the whole request is
// redirected to two of allowedSources chosen at random (S5).
func (s *Store) FetchLatestNotificationStr(ctx context.Context, sources []string, limit int, allowedSources []string) (string, error) {
	resolved := notifications.ResolveSources(sources, allowedSources)

	var all []types.NotificationRecord
	err := execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, source := range resolved {
			rows, err := tx.Query(ctx, `
			SELECT long_desc, relative_to_scraper_id, notification_date
			FROM notifications
			WHERE source = $1
			ORDER BY notification_date DESC`, source,
			)
			if err != nil {
				return err
			}
			for rows.Next() {
				var rec types.NotificationRecord
				rec.Source = source
				if err := rows.Scan(&rec.LongDesc, &rec.RelativeToScraperID, &rec.NotificationDate); err != nil {
					rows.Close()
					return err
				}
				all = append(all, rec)
			}
			rowsErr := rows.Err()
			rows.Close()
			if rowsErr != nil {
				return rowsErr
			}
		}
		return nil
	})
	if err != nil {
		return "", agenterr.New(agenterr.KindStore, "FetchLatestNotificationStr", err)
	}

	grouped := notifications.GroupAndLimit(all, resolved, limit)
	return notifications.JoinLongDesc(notifications.Dedupe(grouped)), nil
}

func (s *Store) EnsureSession(ctx context.Context, sessionID, agentID string) (types.SessionState, error) {
	var state types.SessionState
	state.SessionID = sessionID
	state.AgentID = agentID

	err := execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
		INSERT INTO sessions (session_id, agent_id, started_at, status, cycle_count)
		VALUES ($1, $2, now(), $3, 0)
		ON CONFLICT (session_id) DO UPDATE SET status = EXCLUDED.status`,
			sessionID, agentID, string(types.SessionStatusRunning),
		)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
		SELECT started_at, status, cycle_count FROM sessions WHERE session_id = $1`, sessionID,
		).Scan(&state.StartedAt, (*string)(&state.Status), &state.CycleCount)
	})
	if err != nil {
		return types.SessionState{}, agenterr.New(agenterr.KindStore, "EnsureSession", err)
	}
	return state, nil
}

func (s *Store) MarkSessionStopped(ctx context.Context, sessionID string, endedAt time.Time) error {
	err := execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
		UPDATE sessions SET status = $1, ended_at = $2 WHERE session_id = $3`,
			string(types.SessionStatusStopped), endedAt, sessionID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("unknown session %q", sessionID)
		}
		return nil
	})
	if err != nil {
		return agenterr.New(agenterr.KindStore, "MarkSessionStopped", err)
	}
	return nil
}

func (s *Store) IncrementCycleCount(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := execInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
		UPDATE sessions SET cycle_count = cycle_count + 1
		WHERE session_id = $1
		RETURNING cycle_count`, sessionID,
		).Scan(&count)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, agenterr.New(agenterr.KindStore, "IncrementCycleCount", fmt.Errorf("unknown session %q", sessionID))
		}
		return 0, agenterr.New(agenterr.KindStore, "IncrementCycleCount", err)
	}
	return count, nil
}

var _ storage.OutcomeStore = (*Store)(nil)
