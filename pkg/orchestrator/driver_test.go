// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/storage/memstore"
	"github.com/cycleforge/agentcore/pkg/types"
)

type fakeCycle struct {
	calls      int
	priorSeen  []*types.StrategyData
	notifsSeen []string
	err        error
}

func (f *fakeCycle) RunCycle(ctx context.Context, prior *types.StrategyData, notificationStr string) (types.StrategyData, error) {
	f.calls++
	f.priorSeen = append(f.priorSeen, prior)
	f.notifsSeen = append(f.notifsSeen, notificationStr)
	if f.err != nil {
		return types.StrategyData{}, f.err
	}
	return types.StrategyData{StrategyID: int64(f.calls)}, nil
}

type fakeNotifications struct {
	sourcesSeen []string
	limitsSeen  []int
	records     []types.NotificationRecord
	err         error
}

func (f *fakeNotifications) Fetch(ctx context.Context, sources []string, limit int) ([]types.NotificationRecord, error) {
	f.sourcesSeen = append(f.sourcesSeen, sources...)
	f.limitsSeen = append(f.limitsSeen, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestDriverNotificationLimitVariesByAgentKind(t *testing.T) {
	tradingDriver := NewDriver(DriverConfig{AgentKind: types.AgentKindTrading, Store: memstore.New()})
	marketingDriver := NewDriver(DriverConfig{AgentKind: types.AgentKindMarketing, Store: memstore.New()})

	assert.Equal(t, TradingNotificationLimit, tradingDriver.notificationLimit())
	assert.Equal(t, MarketingNotificationLimit, marketingDriver.notificationLimit())
}

func TestDriverRunOneCycleFetchesNotificationsAtAgentKindLimit(t *testing.T) {
	cycle := &fakeCycle{}
	notifs := &fakeNotifications{records: []types.NotificationRecord{
		{LongDesc: "first"},
		{LongDesc: "second"},
	}}
	store := memstore.New()
	d := NewDriver(DriverConfig{
		AgentKind:           types.AgentKindMarketing,
		AgentID:             "agent-1",
		NotificationSources: []string{"twitter"},
		Cycle:               cycle,
		Store:               store,
		Notifications:       notifs,
	})

	d.runOneCycle(context.Background())

	require.Len(t, notifs.limitsSeen, 1)
	assert.Equal(t, MarketingNotificationLimit, notifs.limitsSeen[0])
	require.Len(t, cycle.notifsSeen, 1)
	assert.Equal(t, "first\nsecond", cycle.notifsSeen[0])
}

func TestDriverRunOneCyclePassesPriorStrategyFromStore(t *testing.T) {
	store := memstore.New()
	_, err := store.InsertStrategy(context.Background(), types.StrategyInsertData{AgentID: "agent-1", SummarizedDesc: "prior"})
	require.NoError(t, err)

	cycle := &fakeCycle{}
	d := NewDriver(DriverConfig{AgentKind: types.AgentKindTrading, AgentID: "agent-1", Cycle: cycle, Store: store})

	d.runOneCycle(context.Background())

	require.Len(t, cycle.priorSeen, 1)
	require.NotNil(t, cycle.priorSeen[0])
	assert.Equal(t, "prior", cycle.priorSeen[0].SummarizedDesc)
}

func TestDriverRunOneCycleContinuesWithEmptyNotificationsOnFetchFailure(t *testing.T) {
	cycle := &fakeCycle{}
	notifs := &fakeNotifications{err: errors.New("source unreachable")}
	d := NewDriver(DriverConfig{AgentKind: types.AgentKindTrading, AgentID: "agent-1", Cycle: cycle, Store: memstore.New(), Notifications: notifs})

	d.runOneCycle(context.Background())

	require.Len(t, cycle.notifsSeen, 1)
	assert.Equal(t, "", cycle.notifsSeen[0])
}

func TestDriverRunOneCycleToleratesCycleFailure(t *testing.T) {
	cycle := &fakeCycle{err: errors.New("sandbox exploded")}
	d := NewDriver(DriverConfig{AgentKind: types.AgentKindTrading, AgentID: "agent-1", Cycle: cycle, Store: memstore.New()})

	assert.NotPanics(t, func() { d.runOneCycle(context.Background()) })
	assert.Equal(t, 1, cycle.calls)
}

func TestDriverRunStopsOnContextCancellation(t *testing.T) {
	cycle := &fakeCycle{}
	store := memstore.New()
	d := NewDriver(DriverConfig{
		AgentKind:      types.AgentKindTrading,
		SessionID:      "sess-1",
		AgentID:        "agent-1",
		PacingInterval: 10 * time.Millisecond,
		Cycle:          cycle,
		Store:          store,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	err := d.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, cycle.calls, 1)
}

func TestDriverBackfillIndexUpsertsEveryStoredStrategy(t *testing.T) {
	store := memstore.New()
	_, err := store.InsertStrategy(context.Background(), types.StrategyInsertData{AgentID: "agent-1", SummarizedDesc: "one"})
	require.NoError(t, err)
	_, err = store.InsertStrategy(context.Background(), types.StrategyInsertData{AgentID: "agent-1", SummarizedDesc: "two"})
	require.NoError(t, err)

	idx := &fakeIndex{}
	d := NewDriver(DriverConfig{AgentKind: types.AgentKindTrading, SessionID: "sess-1", AgentID: "agent-1", Store: store, Index: idx})

	require.NoError(t, d.BackfillIndex(context.Background()))
	assert.Len(t, idx.upserted, 2)
}

func TestDriverBackfillIndexNoopWithoutIndex(t *testing.T) {
	store := memstore.New()
	d := NewDriver(DriverConfig{AgentKind: types.AgentKindTrading, AgentID: "agent-1", Store: store})

	assert.NoError(t, d.BackfillIndex(context.Background()))
}
