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

// Package shard implements rag.SemanticIndex as JSON file shards on
// local disk. Two layouts are kept side by side: v1 shards one partition
// per (agent, session) to support the reference implementation's
// per-session indices; v4 merges all of an agent's strategies into a
// single partition, which is what Query prefers. Upsert writes to both;
// Query reads only v4, unioning nothing further since v4 is already the
// full per-agent partition.
package shard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/rag"
	"github.com/cycleforge/agentcore/pkg/types"
)

// Store is a JSON-file-backed SemanticIndex.
type Store struct {
	root     string
	embedder rag.Embedder

	mu sync.Mutex
}

// New builds a Store rooted at dir, lazily creating shard files under
// dir/v1 and dir/v4 as agents and sessions appear.
func New(dir string, embedder rag.Embedder) *Store {
	return &Store{root: dir, embedder: embedder}
}

type shardFile struct {
	Records []types.VectorRecord `json:"records"`
}

func (s *Store) v1Path(agentID, sessionID string) string {
	return filepath.Join(s.root, "v1", sanitize(agentID), sanitize(sessionID)+".json")
}

func (s *Store) v4Path(agentID string) string {
	return filepath.Join(s.root, "v4", sanitize(agentID)+".json")
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

func loadShard(path string) (shardFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return shardFile{}, nil
	}
	if err != nil {
		return shardFile{}, err
	}
	var sf shardFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return shardFile{}, fmt.Errorf("unmarshal shard %s: %w", path, err)
	}
	return sf, nil
}

func saveShard(path string, sf shardFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create shard dir: %w", err)
	}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal shard: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func upsertInto(sf shardFile, rec types.VectorRecord) shardFile {
	for i, existing := range sf.Records {
		if existing.ReferenceID == rec.ReferenceID {
			sf.Records[i] = rec
			return sf
		}
	}
	sf.Records = append(sf.Records, rec)
	return sf
}

func (s *Store) Upsert(ctx context.Context, rec types.VectorRecord) error {
	if len(rec.Embedding) == 0 && s.embedder != nil {
		vecs, err := s.embedder.Embed(ctx, []string{rec.TextKey})
		if err != nil {
			return agenterr.New(agenterr.KindStore, "Upsert", fmt.Errorf("embed: %w", err))
		}
		if len(vecs) > 0 {
			rec.Embedding = vecs[0]
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v1, err := loadShard(s.v1Path(rec.AgentID, rec.SessionID))
	if err != nil {
		return agenterr.New(agenterr.KindStore, "Upsert", err)
	}
	v1 = upsertInto(v1, rec)
	if err := saveShard(s.v1Path(rec.AgentID, rec.SessionID), v1); err != nil {
		return agenterr.New(agenterr.KindStore, "Upsert", err)
	}

	v4, err := loadShard(s.v4Path(rec.AgentID))
	if err != nil {
		return agenterr.New(agenterr.KindStore, "Upsert", err)
	}
	v4 = upsertInto(v4, rec)
	if err := saveShard(s.v4Path(rec.AgentID), v4); err != nil {
		return agenterr.New(agenterr.KindStore, "Upsert", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, agentID, queryText string, topK int) ([]rag.Hit, error) {
	if topK <= 0 {
		topK = 5
	}

	var queryVec []float32
	if s.embedder != nil {
		vecs, err := s.embedder.Embed(ctx, []string{queryText})
		if err != nil {
			return nil, agenterr.New(agenterr.KindStore, "Query", fmt.Errorf("embed query: %w", err))
		}
		if len(vecs) > 0 {
			queryVec = vecs[0]
		}
	}

	s.mu.Lock()
	v4, err := loadShard(s.v4Path(agentID))
	s.mu.Unlock()
	if err != nil {
		return nil, agenterr.New(agenterr.KindStore, "Query", err)
	}

	hits := make([]rag.Hit, 0, len(v4.Records))
	for _, rec := range v4.Records {
		hits = append(hits, rag.Hit{Record: rec, Distance: cosineDistance(queryVec, rec.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// cosineDistance returns 1 - cosine_similarity(a, b), so 0 means
// identical direction and larger means less similar. Vectors of
// mismatched or zero length/magnitude are treated as maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 1
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(normA*normB)
}

var _ rag.SemanticIndex = (*Store)(nil)
