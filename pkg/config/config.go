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

// Package config loads a driver's environment-variable configuration
// (back-end URLs, API keys, chain credentials) and its start-of-session
// configuration payload (templates, notification sources, pacing),
// fetched over SSE with a fallback to built-in defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cycleforge/agentcore/pkg/types"
)

// DefaultPacingInterval is the driver loop's sleep between cycles when
// neither the environment nor the session payload overrides it.
const DefaultPacingInterval = 15 * time.Second

// Config is the full environment-derived configuration for one driver
// run: one (agent_kind, session_id, agent_id) triple and every back-end
// endpoint and credential it needs.
type Config struct {
	AgentKind types.AgentKind
	SessionID string
	AgentID   string

	LLMProvider string
	LLMAPIKey   string
	LLMModel    string

	DockerHost    string
	ContainerName string
	SandboxImage  string

	// StoreBackend selects storage.OutcomeStore's implementation: "mem",
	// "http", or "pg". Empty defaults to "mem" (the only backend that
	// never needs credentials).
	StoreBackend string
	StoreBaseURL string
	StoreAPIKey  string
	PostgresDSN  string

	// RAGBackend selects rag.SemanticIndex's implementation: "shard" or
	// "http". Empty defaults to "shard".
	RAGBackend  string
	RAGBaseURL  string
	RAGAPIKey   string
	RAGShardDir string

	EmbedderEndpoint string
	EmbedderAPIKey   string
	EmbedderModel    string

	SignerURL string

	RPCURL       string
	EtherscanURL string
	EtherscanKey string
	CoinGeckoURL string

	SocialBaseURL     string
	SocialBearerToken string

	NotificationsBaseURL string
	NotificationsAPIKey  string
	NotificationSources  []string

	// AllowedNotificationSources is the known-good source set
	// FetchLatestNotificationStr's fallback policy (spec.md §4.5) draws
	// from: if NotificationSources names anything outside this set, two of
	// these are chosen at random instead.
	AllowedNotificationSources []string

	PacingInterval time.Duration

	// SessionConfigURL is the SSE endpoint the driver reads start-of-session
	// configuration from. Empty skips ingress entirely and uses defaults.
	SessionConfigURL string
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDurationSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// FromEnv builds a Config for one driver run. Every backend credential
// and URL defaults to the empty string when its environment variable is
// unset, per spec.md §6: an empty signer/sensor URL means the relevant
// sensor falls back to mock defaults rather than failing configuration.
func FromEnv(agentKind types.AgentKind, sessionID, agentID string) Config {
	return Config{
		AgentKind: agentKind,
		SessionID: sessionID,
		AgentID:   agentID,

		LLMProvider: envOr("AGENTCORE_LLM_PROVIDER", "anthropic"),
		LLMAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		LLMModel:    os.Getenv("ANTHROPIC_DEFAULT_MODEL"),

		DockerHost:    os.Getenv("DOCKER_HOST"),
		ContainerName: envOr("AGENTCORE_CONTAINER_NAME", "agentcore-"+agentID),
		SandboxImage:  os.Getenv("AGENTCORE_SANDBOX_IMAGE"),

		StoreBackend: envOr("AGENTCORE_STORE_BACKEND", "mem"),
		StoreBaseURL: os.Getenv("AGENTCORE_STORE_URL"),
		StoreAPIKey:  os.Getenv("AGENTCORE_STORE_API_KEY"),
		PostgresDSN:  os.Getenv("AGENTCORE_POSTGRES_DSN"),

		RAGBackend:  envOr("AGENTCORE_RAG_BACKEND", "shard"),
		RAGBaseURL:  os.Getenv("AGENTCORE_RAG_URL"),
		RAGAPIKey:   os.Getenv("AGENTCORE_RAG_API_KEY"),
		RAGShardDir: envOr("AGENTCORE_RAG_SHARD_DIR", "./rag-shards"),

		EmbedderEndpoint: os.Getenv("AGENTCORE_EMBEDDER_ENDPOINT"),
		EmbedderAPIKey:   os.Getenv("AGENTCORE_EMBEDDER_API_KEY"),
		EmbedderModel:    envOr("AGENTCORE_EMBEDDER_MODEL", "text-embedding-3-small"),

		SignerURL: os.Getenv("AGENTCORE_SIGNER_URL"),

		RPCURL:       os.Getenv("AGENTCORE_RPC_URL"),
		EtherscanURL: os.Getenv("AGENTCORE_ETHERSCAN_URL"),
		EtherscanKey: os.Getenv("AGENTCORE_ETHERSCAN_API_KEY"),
		CoinGeckoURL: os.Getenv("AGENTCORE_COINGECKO_URL"),

		SocialBaseURL:     os.Getenv("AGENTCORE_SOCIAL_URL"),
		SocialBearerToken: os.Getenv("AGENTCORE_SOCIAL_TOKEN"),

		NotificationsBaseURL:       os.Getenv("AGENTCORE_NOTIFICATIONS_URL"),
		NotificationsAPIKey:        os.Getenv("AGENTCORE_NOTIFICATIONS_API_KEY"),
		NotificationSources:        envList("AGENTCORE_NOTIFICATION_SOURCES", []string{"default"}),
		AllowedNotificationSources: envList("AGENTCORE_ALLOWED_NOTIFICATION_SOURCES", []string{"twitter", "news", "onchain", "default"}),

		PacingInterval: envDurationSeconds("AGENTCORE_PACING_SECONDS", DefaultPacingInterval),

		SessionConfigURL: os.Getenv("AGENTCORE_SESSION_CONFIG_URL"),
	}
}
