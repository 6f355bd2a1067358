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

// Package rag defines the semantic index contract: summarized strategies
// are embedded and stored (Upsert), and later retrieved by similarity to
// a query text (Query). Two implementations exist: shard (local JSON
// file shards, used for tests and offline runs), and httpindex (the
// semantic-index REST service), with embedder supplying the HTTP
// embedding client both can share.
package rag

import (
	"context"

	"github.com/cycleforge/agentcore/pkg/types"
)

// Hit is one query result: a vector record and its distance to the query
// embedding (smaller is more similar; this is cosine distance, 1-cos).
type Hit struct {
	Record   types.VectorRecord
	Distance float64
}

// SemanticIndex stores and retrieves summarized strategies by similarity.
type SemanticIndex interface {
	// Upsert embeds and stores rec under its ReferenceID, creating the
	// backing shard for (AgentID, SessionID) lazily if it doesn't exist
	// yet.
	Upsert(ctx context.Context, rec types.VectorRecord) error

	// Query returns up to topK records most similar to queryText, scoped
	// to agentID, ordered by ascending distance. Implementations that
	// shard by session union all of an agent's partitions before
	// ranking.
	Query(ctx context.Context, agentID, queryText string, topK int) ([]Hit, error)
}

// Embedder converts text into vectors for SemanticIndex implementations
// that don't embed server-side.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
