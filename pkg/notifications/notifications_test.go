// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package notifications_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/notifications"
	"github.com/cycleforge/agentcore/pkg/types"
)

func rec(source, long, scraperID string, when time.Time) types.NotificationRecord {
	return types.NotificationRecord{
		Source:              source,
		LongDesc:            long,
		NotificationDate:    when,
		RelativeToScraperID: scraperID,
	}
}

func TestGroupAndLimitPerSource(t *testing.T) {
	base := time.Now()
	records := []types.NotificationRecord{
		rec("twitter", "a", "", base.Add(-3*time.Hour)),
		rec("twitter", "b", "", base.Add(-1*time.Hour)),
		rec("twitter", "c", "", base.Add(-2*time.Hour)),
		rec("news", "d", "", base),
	}

	out := notifications.GroupAndLimit(records, []string{"twitter", "news"}, 2)
	require.Len(t, out, 3)
	require.Equal(t, "b", out[0].LongDesc)
	require.Equal(t, "c", out[1].LongDesc)
	require.Equal(t, "d", out[2].LongDesc)
}

func TestDedupeByScraperIDOrLongDesc(t *testing.T) {
	base := time.Now()
	records := []types.NotificationRecord{
		rec("twitter", "same text", "scraper-1", base),
		rec("twitter", "same text", "scraper-2", base.Add(-time.Minute)),
		rec("twitter", "other text", "scraper-1", base.Add(-2*time.Minute)),
		rec("news", "unique", "", base),
	}

	out := notifications.Dedupe(records)
	require.Len(t, out, 2)
	require.Equal(t, "same text", out[0].LongDesc)
	require.Equal(t, "unique", out[1].LongDesc)
}

func TestJoinLongDesc(t *testing.T) {
	records := []types.NotificationRecord{{LongDesc: "first"}, {LongDesc: "second"}}
	require.Equal(t, "first\nsecond", notifications.JoinLongDesc(records))
}

func TestResolveSourcesPassesThroughWhenAllowed(t *testing.T) {
	out := notifications.ResolveSources([]string{"twitter", "news"}, []string{"twitter", "news", "onchain"})
	require.Equal(t, []string{"twitter", "news"}, out)
}

func TestResolveSourcesPassesThroughWhenPolicyDisabled(t *testing.T) {
	out := notifications.ResolveSources([]string{"moon_phase"}, nil)
	require.Equal(t, []string{"moon_phase"}, out)
}

func TestResolveSourcesFallsBackToTwoAllowedSources(t *testing.T) {
	// With exactly two allowed sources the fallback is deterministic: both
	// are returned regardless of which random permutation is drawn.
	out := notifications.ResolveSources([]string{"moon_phase"}, []string{"twitter", "news"})
	require.ElementsMatch(t, []string{"twitter", "news"}, out)
}

func TestResolveSourcesFallbackStaysWithinAllowList(t *testing.T) {
	allowed := []string{"twitter", "news", "onchain", "default"}
	out := notifications.ResolveSources([]string{"unknown"}, allowed)
	require.Len(t, out, 2)
	for _, s := range out {
		require.Contains(t, allowed, s)
	}
	require.NotEqual(t, out[0], out[1])
}
