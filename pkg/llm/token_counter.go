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
package llm

import (
	"sync"

	"github.com/cycleforge/agentcore/pkg/chatctx"
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates token counts with the cl100k_base encoding, a
// close approximation across Claude and GPT-family models alike. It
// backs RateLimiter.RecordTokenUsage so the sliding token window
// reflects real usage rather than request counts alone.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
	mu  sync.Mutex
}

var (
	globalTokenCounter     *TokenCounter
	globalTokenCounterOnce sync.Once
)

// GetTokenCounter returns a process-wide TokenCounter. If the
// cl100k_base encoding cannot be loaded, the counter falls back to a
// character-based estimate rather than failing callers.
func GetTokenCounter() *TokenCounter {
	globalTokenCounterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			globalTokenCounter = &TokenCounter{}
			return
		}
		globalTokenCounter = &TokenCounter{enc: enc}
	})
	return globalTokenCounter
}

// CountTokens returns the token count for text.
func (tc *TokenCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if tc.enc == nil {
		return len(text) / 4
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.enc.Encode(text, nil, nil))
}

// EstimateHistoryTokens sums the token count of every message's content
// in history, the request-side half of a ChatCompletion call's usage.
func (tc *TokenCounter) EstimateHistoryTokens(history chatctx.ChatHistory) int {
	total := 0
	for _, m := range history.AsNative() {
		total += tc.CountTokens(m.Content)
	}
	return total
}
