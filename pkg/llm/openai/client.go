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
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/chatctx"
	"github.com/cycleforge/agentcore/pkg/llm"
	"github.com/cycleforge/agentcore/pkg/types"
)

const (
	DefaultOpenAIModel    = "gpt-4.1"
	DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultMaxTokens      = 4096
	DefaultTemperature    = 1.0
	DefaultTimeout        = 60 * time.Second
)

// Global singleton rate limiter shared across all OpenAI clients in the
// process, mirroring the Anthropic adapter's account-wide limit handling.
var (
	globalRateLimiter     *llm.RateLimiter
	globalRateLimiterOnce sync.Once
)

// Client implements llm.GeneratorAdapter over OpenAI's chat completions API.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	httpClient  *http.Client
	maxTokens   int
	temperature float64
	rateLimiter *llm.RateLimiter
}

// Config holds configuration for the OpenAI client.
type Config struct {
	APIKey            string
	Model             string
	Endpoint          string
	Timeout           time.Duration
	MaxTokens         int
	Temperature       float64
	RateLimiterConfig llm.RateLimiterConfig
}

// NewClient creates a new OpenAI client, falling back to the
// OPENAI_DEFAULT_MODEL / OPENAI_API_ENDPOINT environment variables and
// then hardcoded defaults for any unset Config field.
func NewClient(config Config) *Client {
	if config.Model == "" {
		if envModel := os.Getenv("OPENAI_DEFAULT_MODEL"); envModel != "" {
			config.Model = envModel
		} else {
			config.Model = DefaultOpenAIModel
		}
	}
	if config.Endpoint == "" {
		if envEndpoint := os.Getenv("OPENAI_API_ENDPOINT"); envEndpoint != "" {
			config.Endpoint = envEndpoint
		} else {
			config.Endpoint = DefaultOpenAIEndpoint
		}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Temperature == 0 {
		config.Temperature = DefaultTemperature
	}

	var rateLimiter *llm.RateLimiter
	if config.RateLimiterConfig.Enabled {
		rateLimiter = getOrCreateGlobalRateLimiter(config.RateLimiterConfig)
	}

	return &Client{
		apiKey:      config.APIKey,
		model:       config.Model,
		endpoint:    config.Endpoint,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		rateLimiter: rateLimiter,
		httpClient:  &http.Client{Timeout: config.Timeout},
	}
}

func getOrCreateGlobalRateLimiter(config llm.RateLimiterConfig) *llm.RateLimiter {
	globalRateLimiterOnce.Do(func() {
		globalRateLimiter = llm.NewRateLimiter(config)
	})
	return globalRateLimiter
}

func (c *Client) Name() string  { return "openai" }
func (c *Client) Model() string { return c.model }

func convertHistory(history chatctx.ChatHistory) []ChatMessage {
	var apiMessages []ChatMessage
	for _, m := range history.AsNative() {
		role := "user"
		switch m.Role {
		case types.RoleSystem:
			role = "system"
		case types.RoleAssistant:
			role = "assistant"
		case types.RoleUser:
			role = "user"
		}
		apiMessages = append(apiMessages, ChatMessage{Role: role, Content: m.Content})
	}
	return apiMessages
}

func (c *Client) ChatCompletion(ctx context.Context, history chatctx.ChatHistory) (string, error) {
	req := &ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertHistory(history),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.callAPI(ctx, req)
	if err != nil {
		return "", agenterr.New(agenterr.KindGen, "ChatCompletion", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", agenterr.New(agenterr.KindGen, "ChatCompletion", fmt.Errorf("empty response"))
	}
	c.recordTokenUsage(history, resp.Choices[0].Message.Content)
	return resp.Choices[0].Message.Content, nil
}

// recordTokenUsage feeds the rate limiter's sliding token window with an
// estimate of the request+response tokens this call consumed.
func (c *Client) recordTokenUsage(history chatctx.ChatHistory, response string) {
	if c.rateLimiter == nil {
		return
	}
	counter := llm.GetTokenCounter()
	used := counter.EstimateHistoryTokens(history) + counter.CountTokens(response)
	c.rateLimiter.RecordTokenUsage(int64(used))
}

func (c *Client) GenerateCode(ctx context.Context, history chatctx.ChatHistory, blockTags []string) ([]string, string, error) {
	raw, err := c.ChatCompletion(ctx, history)
	if err != nil {
		return nil, raw, err
	}
	snippets, err := llm.ExtractCode(raw, blockTags)
	return snippets, raw, err
}

func (c *Client) GenerateList(ctx context.Context, history chatctx.ChatHistory, blockTags []string) ([][]string, string, error) {
	raw, err := c.ChatCompletion(ctx, history)
	if err != nil {
		return nil, raw, err
	}
	lists, err := llm.ExtractList(raw, blockTags)
	return lists, raw, err
}

// ChatCompletionStream streams tokens to sink as they arrive. OpenAI's
// chat completions stream carries no separate reasoning channel, so every
// token is emitted as llm.KindMain.
func (c *Client) ChatCompletionStream(ctx context.Context, history chatctx.ChatHistory, sink llm.TokenSink) (string, error) {
	req := &ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertHistory(history),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      true,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", agenterr.New(agenterr.KindGen, "ChatCompletionStream", fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", agenterr.New(agenterr.KindGen, "ChatCompletionStream", fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.do(httpReq)
	if err != nil {
		return "", agenterr.New(agenterr.KindGen, "ChatCompletionStream", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return "", agenterr.New(agenterr.KindGen, "ChatCompletionStream", fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody)))
	}

	var textBuf strings.Builder
	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		jsonData := strings.TrimPrefix(line, "data: ")
		if jsonData == "[DONE]" {
			break
		}

		var chunk ChatCompletionStreamChunk
		if err := json.Unmarshal([]byte(jsonData), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		token := chunk.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		textBuf.WriteString(token)
		if sink != nil {
			sink(token, llm.KindMain)
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return "", agenterr.New(agenterr.KindGen, "ChatCompletionStream", fmt.Errorf("read stream: %w", err))
	}

	if textBuf.Len() == 0 {
		return "", agenterr.New(agenterr.KindGen, "ChatCompletionStream", fmt.Errorf("empty response"))
	}
	c.recordTokenUsage(history, textBuf.String())
	return textBuf.String(), nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.rateLimiter != nil {
		result, err := c.rateLimiter.Do(req.Context(), func(ctx context.Context) (interface{}, error) {
			return c.httpClient.Do(req)
		})
		if err != nil {
			return nil, fmt.Errorf("http request failed: %w", err)
		}
		return result.(*http.Response), nil
	}
	return c.httpClient.Do(req)
}

func (c *Client) callAPI(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s (type: %s)", resp.Error.Message, resp.Error.Type)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	return &resp, nil
}

var _ llm.GeneratorAdapter = (*Client)(nil)
