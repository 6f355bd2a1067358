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

// Package notifications is a read-only client over the notification
// scraper's ingestion service: it fetches the most recent events for a
// set of sources and folds them into the newline-joined notification
// string the orchestrator feeds into its prompts. Duplicate prevention
// mirrors the server's own rule (spec.md §3/§9): two records sharing a
// RelativeToScraperID, or sharing an identical LongDesc, are the same
// event.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/types"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration

	// AllowedSources is the known-good source set Fetch's fallback policy
	// draws from (spec.md §4.5): if any requested source falls outside
	// this set, two of these are chosen at random and used instead of the
	// whole requested list. A nil/empty AllowedSources disables the
	// policy and requests are used as given.
	AllowedSources []string
}

// Client reads from, and batch-writes to, the notification ingestion
// service.
type Client struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	allowedSources []string
}

// New builds a notifications Client from cfg.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, client: client, allowedSources: cfg.AllowedSources}
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
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

type notificationWire struct {
	Source              string    `json:"source"`
	ShortDesc           string    `json:"short_desc"`
	LongDesc            string    `json:"long_desc"`
	NotificationDate    time.Time `json:"notification_date"`
	RelativeToScraperID string    `json:"relative_to_scraper_id"`
	BotUsername         string    `json:"bot_username"`
}

func (w notificationWire) toRecord() types.NotificationRecord {
	return types.NotificationRecord{
		Source:              w.Source,
		ShortDesc:           w.ShortDesc,
		LongDesc:            w.LongDesc,
		NotificationDate:    w.NotificationDate,
		RelativeToScraperID: w.RelativeToScraperID,
		BotUsername:         w.BotUsername,
	}
}

func fromRecord(rec types.NotificationRecord) notificationWire {
	return notificationWire{
		Source:              rec.Source,
		ShortDesc:           rec.ShortDesc,
		LongDesc:            rec.LongDesc,
		NotificationDate:    rec.NotificationDate,
		RelativeToScraperID: rec.RelativeToScraperID,
		BotUsername:         rec.BotUsername,
	}
}

// Fetch calls POST /api_v1/notification/get_v3 for sources, returning up
// to limit records per source, sorted by NotificationDate descending and
// deduplicated across the whole result by the RelativeToScraperID-or-
// LongDesc rule. If sources names anything outside the client's known
// allow-list, the whole request is redirected to two allow-listed
// sources chosen at random (spec.md §4.5, S5).
func (c *Client) Fetch(ctx context.Context, sources []string, limit int) ([]types.NotificationRecord, error) {
	sources = ResolveSources(sources, c.allowedSources)

	var resp struct {
		Data []notificationWire `json:"data"`
	}
	err := c.post(ctx, "/api_v1/notification/get_v3", map[string]any{
		"sources": sources,
		"limit":   limit,
	}, &resp)
	if err != nil {
		return nil, agenterr.New(agenterr.KindStore, "Fetch", err)
	}

	records := make([]types.NotificationRecord, len(resp.Data))
	for i, w := range resp.Data {
		records[i] = w.toRecord()
	}
	return Dedupe(GroupAndLimit(records, sources, limit)), nil
}

// ResolveSources applies the source allow-list fallback: if allowed is
// empty the policy is disabled and sources passes through unchanged;
// otherwise, if any entry of sources is not a member of allowed, the
// entire request is replaced with two entries of allowed chosen
// uniformly at random (or all of allowed, if it has fewer than two).
func ResolveSources(sources, allowed []string) []string {
	if len(allowed) == 0 {
		return sources
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = struct{}{}
	}
	for _, s := range sources {
		if _, ok := allowedSet[s]; !ok {
			return randomTwo(allowed)
		}
	}
	return sources
}

// randomTwo returns two distinct entries of allowed chosen uniformly at
// random, or a copy of allowed itself if it has fewer than two entries.
func randomTwo(allowed []string) []string {
	if len(allowed) <= 2 {
		out := make([]string, len(allowed))
		copy(out, allowed)
		return out
	}
	perm := rand.Perm(len(allowed))
	return []string{allowed[perm[0]], allowed[perm[1]]}
}

// CreateBatch calls POST /api_v1/notification/create_batch, the write
// path for notification records. Nothing in this repository calls it:
// the core's cycle only reads notifications. spec.md §6 names the
// endpoint.
func (c *Client) CreateBatch(ctx context.Context, records []types.NotificationRecord) ([]string, error) {
	wire := make([]notificationWire, len(records))
	for i, rec := range records {
		wire[i] = fromRecord(rec)
	}

	var resp struct {
		Data struct {
			NotificationIDs []string `json:"notification_ids"`
		} `json:"data"`
	}
	err := c.post(ctx, "/api_v1/notification/create_batch", map[string]any{"notifications": wire}, &resp)
	if err != nil {
		return nil, agenterr.New(agenterr.KindStore, "CreateBatch", err)
	}
	return resp.Data.NotificationIDs, nil
}

// GroupAndLimit groups records by source, keeps only up to limit most
// recent per source (NotificationDate descending), and returns them
// flattened back into one slice in source order.
func GroupAndLimit(records []types.NotificationRecord, sources []string, limit int) []types.NotificationRecord {
	bySource := make(map[string][]types.NotificationRecord, len(sources))
	for _, rec := range records {
		bySource[rec.Source] = append(bySource[rec.Source], rec)
	}

	var out []types.NotificationRecord
	for _, source := range sources {
		recs := bySource[source]
		sort.Slice(recs, func(i, j int) bool { return recs[i].NotificationDate.After(recs[j].NotificationDate) })
		if limit > 0 && len(recs) > limit {
			recs = recs[:limit]
		}
		out = append(out, recs...)
	}
	return out
}

// Dedupe removes records that share either a non-empty
// RelativeToScraperID or an identical LongDesc with a record already
// kept, preserving input order.
func Dedupe(records []types.NotificationRecord) []types.NotificationRecord {
	seenScraperID := make(map[string]struct{}, len(records))
	seenLongDesc := make(map[string]struct{}, len(records))

	out := make([]types.NotificationRecord, 0, len(records))
	for _, rec := range records {
		if rec.RelativeToScraperID != "" {
			if _, ok := seenScraperID[rec.RelativeToScraperID]; ok {
				continue
			}
		}
		if _, ok := seenLongDesc[rec.LongDesc]; ok {
			continue
		}
		out = append(out, rec)
		if rec.RelativeToScraperID != "" {
			seenScraperID[rec.RelativeToScraperID] = struct{}{}
		}
		seenLongDesc[rec.LongDesc] = struct{}{}
	}
	return out
}

// JoinLongDesc renders records into the newline-joined notification
// string the orchestrator binds to its prompt templates.
func JoinLongDesc(records []types.NotificationRecord) string {
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = rec.LongDesc
	}
	return strings.Join(lines, "\n")
}
