// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRefreshSchedule re-polls the session configuration endpoint
// every five minutes, a fallback path for session operators who update
// templates or pacing without an open SSE subscription to push the
// change immediately.
const DefaultRefreshSchedule = "@every 5m"

// Refresher periodically re-ingests session configuration on a cron
// schedule and reports every successfully decoded payload to onUpdate.
// It exists alongside the push-based SSE ingress in sse.go: a dropped or
// never-opened SSE connection still gets configuration updates, just on
// a slower, polled cadence.
type Refresher struct {
	url      string
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
	onUpdate func(SessionPayload)

	engine *cron.Cron
}

// NewRefresher builds a Refresher. schedule defaults to
// DefaultRefreshSchedule when empty.
func NewRefresher(url, schedule string, timeout time.Duration, logger *zap.Logger, onUpdate func(SessionPayload)) *Refresher {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{url: url, schedule: schedule, timeout: timeout, logger: logger, onUpdate: onUpdate}
}

// Start begins polling in the background and returns immediately. It is
// a no-op when the Refresher has no URL to poll. Stop must be called to
// release the cron engine's goroutine.
func (r *Refresher) Start(ctx context.Context) error {
	if r.url == "" {
		return nil
	}

	engine := cron.New()
	_, err := engine.AddFunc(r.schedule, func() {
		payload, err := IngestSessionConfig(ctx, r.url, r.timeout, r.logger)
		if err != nil {
			r.logger.Warn("scheduled session configuration refresh failed", zap.Error(err))
			return
		}
		if r.onUpdate != nil {
			r.onUpdate(payload)
		}
	})
	if err != nil {
		return err
	}

	r.engine = engine
	engine.Start()
	return nil
}

// Stop halts the cron engine, waiting for any in-flight refresh to
// finish. Safe to call on a Refresher whose Start was a no-op.
func (r *Refresher) Stop() {
	if r.engine == nil {
		return
	}
	<-r.engine.Stop().Done()
}
