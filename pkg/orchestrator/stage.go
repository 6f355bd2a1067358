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

// Package orchestrator implements the per-cycle state machine: the
// bounded-retry stage envelope shared by every generation step, the
// trading and marketing cycle flows built from it, and the outer driver
// loop that chains cycles together.
package orchestrator

import (
	"context"
	"strings"

	"github.com/cycleforge/agentcore/pkg/chatctx"
)

// Budget constants for the three retry-bounded stage kinds spec.md §4.8
// names: research stages retry 3 times, the strategy stage retries 3
// times, and code-generation stages retry up to 5 times (the top of the
// spec's "3-5 depending on stage" range, since code failures are the
// most common and benefit most from extra regen attempts).
const (
	BudgetResearch = 3
	BudgetStrategy = 3
	BudgetCode     = 5
)

// Sandbox is the subset of pkg/docker.SandboxExecutor the orchestrator
// depends on, so cycle tests can substitute a fake instead of a real
// Docker daemon.
type Sandbox interface {
	Execute(ctx context.Context, code, postfix string) (string, error)
}

// AttemptFunc renders and completes one generation attempt within a
// stage. attemptIndex is 0 on the stage's first attempt and increments
// on every regen; prevArtifact and accumulatedErr are empty on the first
// attempt and carry the previous attempt's broken artifact and the
// concatenated error text on every later one. It returns the chat-history
// delta produced (user render + assistant response) and the artifact
// text extracted from the response (a code snippet or prose strategy).
type AttemptFunc func(ctx context.Context, attemptIndex int, prevArtifact, accumulatedErr string) (delta chatctx.ChatHistory, artifact string, err error)

// ExecuteFunc runs an extracted artifact (typically through the
// sandbox) and returns its captured output. A nil ExecuteFunc marks a
// stage that has no execution step (e.g. the strategy stage): generation
// success alone completes the stage.
type ExecuteFunc func(ctx context.Context, artifact string) (output string, err error)

// PersistFunc is called with each attempt's chat-history delta
// immediately after a successful generation, before execution runs,
// matching spec.md §4.8's "success causes the delta to be appended ...
// and persisted" ordering. A nil PersistFunc skips persistence (used by
// tests that don't exercise a store).
type PersistFunc func(ctx context.Context, delta chatctx.ChatHistory) error

// Outcome is the result of running one stage to either success or
// budget exhaustion.
type Outcome struct {
	// History is the chat-history delta produced by every attempt whose
	// generation step succeeded, concatenated in order. It is appended
	// to the cycle's ChatHistory by the caller regardless of whether the
	// stage as a whole succeeded, since spec.md §4.8 only folds
	// *execution* failures back into the regen loop, not generation
	// successes.
	History chatctx.ChatHistory

	// Artifact is the last successfully-generated artifact, even if the
	// stage ultimately failed (its execution kept failing). This is what
	// a failed cycle's full_desc is drawn from (S3).
	Artifact string

	// Output is the last successful execution's captured output. Empty
	// if the stage has no ExecuteFunc or never succeeded.
	Output string

	// Success is true iff some attempt's generation (and, if ExecuteFunc
	// is set, execution) succeeded within budget.
	Success bool

	// Attempts is the number of attempts actually made (<= budget).
	Attempts int

	// AccumulatedErr is the concatenated error text across every failed
	// attempt, the same text the final regen call would have received.
	AccumulatedErr string
}

// RunStage runs attempt up to budget times, executing each successful
// generation via execute (if non-nil) and persisting each successful
// generation's delta via persist (if non-nil). It stops at the first
// attempt whose generation succeeds and, if execute is set, whose
// execution also succeeds.
func RunStage(ctx context.Context, budget int, attempt AttemptFunc, execute ExecuteFunc, persist PersistFunc) Outcome {
	var (
		history      chatctx.ChatHistory
		lastArtifact string
		accumulated  strings.Builder
	)

	for i := 0; i < budget; i++ {
		delta, artifact, err := attempt(ctx, i, lastArtifact, accumulated.String())
		if err != nil {
			accumulated.WriteString(err.Error())
			accumulated.WriteString("\n")
			continue
		}

		history = history.Concat(delta)
		lastArtifact = artifact

		if persist != nil {
			_ = persist(ctx, delta)
		}

		if execute == nil {
			return Outcome{History: history, Artifact: artifact, Success: true, Attempts: i + 1, AccumulatedErr: accumulated.String()}
		}

		output, execErr := execute(ctx, artifact)
		if execErr == nil {
			return Outcome{History: history, Artifact: artifact, Output: output, Success: true, Attempts: i + 1, AccumulatedErr: accumulated.String()}
		}

		accumulated.WriteString(execErr.Error())
		accumulated.WriteString("\n")
	}

	return Outcome{
		History:        history,
		Artifact:       lastArtifact,
		Success:        false,
		Attempts:       budget,
		AccumulatedErr: accumulated.String(),
	}
}
