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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cycleforge/agentcore/pkg/chatctx"
	agtypes "github.com/cycleforge/agentcore/pkg/types"
)

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key"})
	require.NotNil(t, client)
	assert.Equal(t, "openai", client.Name())
	assert.Equal(t, DefaultOpenAIModel, client.Model())
}

func TestChatCompletionSimpleText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		resp := ChatCompletionResponse{
			Choices: []ChatCompletionChoice{
				{Message: ChatMessage{Role: "assistant", Content: "hello from gpt"}, FinishReason: "stop"},
			},
			Usage: ChatCompletionUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})

	history := chatctx.New().
		Append(agtypes.Message{Role: agtypes.RoleSystem, Content: "you are a marketing agent"}).
		Append(agtypes.Message{Role: agtypes.RoleUser, Content: "propose a campaign"})

	text, err := client.ChatCompletion(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "hello from gpt", text)
}

func TestChatCompletionEmptyResponseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatCompletionResponse{})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
	_, err := client.ChatCompletion(context.Background(), chatctx.New())
	require.Error(t, err)
}

func TestChatCompletionAPIErrorIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ChatCompletionResponse{Error: &OpenAIError{Message: "rate limited", Type: "rate_limit_error"}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
	_, err := client.ChatCompletion(context.Background(), chatctx.New())
	require.Error(t, err)
}

func TestGenerateCodeExtractsPythonBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ChatCompletionResponse{
			Choices: []ChatCompletionChoice{
				{Message: ChatMessage{Role: "assistant", Content: "```python\nprint(2)\n```"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
	snippets, raw, err := client.GenerateCode(context.Background(), chatctx.New(), nil)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "print(2)\n", snippets[0])
	assert.Contains(t, raw, "print(2)")
}
