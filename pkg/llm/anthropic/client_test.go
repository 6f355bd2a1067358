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
package anthropic

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
	assert.Equal(t, "anthropic", client.Name())
	assert.Equal(t, DefaultAnthropicModel, client.Model())
}

func TestChatCompletionSimpleText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var req MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "you are a trading agent", req.System)
		require.Len(t, req.Messages, 1)

		resp := MessagesResponse{
			Content:    []ContentBlock{{Type: "text", Text: "hello from claude"}},
			StopReason: "end_turn",
			Usage:      Usage{InputTokens: 10, OutputTokens: 5},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})

	history := chatctx.New().
		Append(agtypes.Message{Role: agtypes.RoleSystem, Content: "you are a trading agent"}).
		Append(agtypes.Message{Role: agtypes.RoleUser, Content: "propose a strategy"})

	text, err := client.ChatCompletion(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "hello from claude", text)
}

func TestChatCompletionEmptyResponseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MessagesResponse{})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
	_, err := client.ChatCompletion(context.Background(), chatctx.New())
	require.Error(t, err)
}

func TestGenerateCodeExtractsPythonBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := MessagesResponse{
			Content: []ContentBlock{{Type: "text", Text: "```python\nprint(1)\n```"}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
	snippets, raw, err := client.GenerateCode(context.Background(), chatctx.New(), nil)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "print(1)\n", snippets[0])
	assert.Contains(t, raw, "print(1)")
}
