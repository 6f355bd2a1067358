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

// Package marketing implements sensors.MarketingSensor against a social
// platform's read API, falling back to fixed defaults when the platform
// is unreachable rather than failing the cycle outright.
package marketing

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cycleforge/agentcore/pkg/sensors"
)

// Config configures FollowerSensor.
type Config struct {
	BaseURL     string // GET {BaseURL}/2/users/me -> {"followers": N, "likes": N}
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
	Logger      *zap.Logger
}

// FollowerSensor implements sensors.MarketingSensor over HTTP, falling
// back to sensors.DefaultFollowers/DefaultLikes when either metric can't
// be read.
type FollowerSensor struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a FollowerSensor from cfg.
func New(cfg Config) *FollowerSensor {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowerSensor{cfg: cfg, client: client, logger: logger}
}

type metricsResponse struct {
	Followers int `json:"followers"`
	Likes     int `json:"likes"`
}

func (f *FollowerSensor) fetch(ctx context.Context) (metricsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.BaseURL+"/2/users/me", nil)
	if err != nil {
		return metricsResponse{}, err
	}
	if f.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.BearerToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return metricsResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return metricsResponse{}, &http.ProtocolError{ErrorString: resp.Status}
	}

	var out metricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return metricsResponse{}, err
	}
	return out, nil
}

// Snapshot returns the current follower/like counts, falling back to the
// fixed defaults (with a logged warning) if the platform call fails.
func (f *FollowerSensor) Snapshot(ctx context.Context) (sensors.SocialSnapshot, error) {
	metrics, err := f.fetch(ctx)
	if err != nil {
		f.logger.Warn("failed to fetch social metrics, falling back to defaults", zap.Error(err))
		return sensors.SocialSnapshot{
			Followers: sensors.DefaultFollowers,
			Likes:     sensors.DefaultLikes,
		}, nil
	}
	return sensors.SocialSnapshot{Followers: metrics.Followers, Likes: metrics.Likes}, nil
}

var _ sensors.MarketingSensor = (*FollowerSensor)(nil)
