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

// Package embedder implements rag.Embedder over an OpenAI-compatible
// embeddings endpoint, fanning requests out across a bounded worker pool
// so a large batch of strategy summaries doesn't serialize one request
// per text.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/rag"
)

const defaultConcurrency = 5

// Config configures the HTTP embedding client.
type Config struct {
	Endpoint    string
	APIKey      string
	Model       string
	Concurrency int
	HTTPClient  *http.Client
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Client embeds text by calling an OpenAI-compatible /embeddings endpoint.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	concurrency int
	httpClient  *http.Client
	logger      *zap.Logger
}

// New builds a Client from cfg, applying sane defaults for concurrency,
// timeout, and logger.
func New(cfg Config) *Client {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		concurrency: concurrency,
		httpClient:  httpClient,
		logger:      logger,
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingDatum struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Data []embeddingDatum `json:"data"`
}

// Embed returns one vector per text in texts, in order. Requests fan out
// across a bounded worker pool; the first failure cancels the in-flight
// and remaining requests, and Embed returns that error.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency)

	for i, text := range texts {
		i, text := i, text
		group.Go(func() error {
			vec, err := c.embedOne(groupCtx, text)
			if err != nil {
				c.logger.Warn("embed request failed", zap.Int("index", i), zap.Error(err))
				return err
			}
			results[i] = vec
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, agenterr.New(agenterr.KindStore, "Embed", fmt.Errorf("one or more embedding requests failed: %w", err))
	}
	return results, nil
}

func (c *Client) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request embeddings: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("empty embeddings response")
	}
	return parsed.Data[0].Embedding, nil
}

var _ rag.Embedder = (*Client)(nil)
