// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
)

// SessionPayload is the start-of-session configuration a driver loop
// ingests before constructing its components (spec.md §4.9 step 2):
// per-template text overrides and the operational knobs a session can
// tune without redeploying the process.
type SessionPayload struct {
	Templates           map[string]string `json:"templates"`
	NotificationSources []string          `json:"notification_sources"`
	PacingSeconds       int               `json:"pacing_seconds"`
}

// DefaultSessionPayload is what IngestSessionConfig falls back to on any
// failure: no template overrides, the caller's configured notification
// sources and pacing left untouched.
func DefaultSessionPayload() SessionPayload {
	return SessionPayload{}
}

// IngestSessionConfig reads one configuration event from the session's
// SSE endpoint and decodes it as a SessionPayload. An empty url, a
// connection failure, or a malformed payload all return
// DefaultSessionPayload with an error the caller is expected to log and
// otherwise ignore, matching spec.md §4.9's "on failure use defaults."
func IngestSessionConfig(ctx context.Context, url string, timeout time.Duration, logger *zap.Logger) (SessionPayload, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if url == "" {
		return DefaultSessionPayload(), nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := sse.NewClient(url)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan SessionPayload, 1)
	errc := make(chan error, 1)

	go func() {
		err := client.SubscribeWithContext(ctx, "message", func(msg *sse.Event) {
			var payload SessionPayload
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				select {
				case errc <- fmt.Errorf("decode session config event: %w", err):
				default:
				}
				return
			}
			select {
			case result <- payload:
			default:
			}
		})
		if err != nil {
			select {
			case errc <- fmt.Errorf("subscribe to session config endpoint: %w", err):
			default:
			}
		}
	}()

	select {
	case payload := <-result:
		return payload, nil
	case err := <-errc:
		logger.Warn("session configuration ingress failed, using defaults", zap.String("url", url), zap.Error(err))
		return DefaultSessionPayload(), err
	case <-ctx.Done():
		logger.Warn("session configuration ingress timed out, using defaults", zap.String("url", url))
		return DefaultSessionPayload(), ctx.Err()
	}
}
