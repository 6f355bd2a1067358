// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package agenterr defines the typed error taxonomy shared by every stage
// of the agent execution loop, so callers can branch on failure kind with
// errors.Is / errors.As instead of parsing error strings.
package agenterr

import (
	"errors"
	"fmt"
)

// Kind identifies which stage of the loop produced an error.
type Kind string

const (
	// KindGen marks a failure inside code/strategy generation: the
	// generator exhausted its retry budget or returned unparsable output.
	KindGen Kind = "gen_error"

	// KindSandboxExec marks a sandbox command that ran and exited nonzero.
	KindSandboxExec Kind = "sandbox_exec"

	// KindSandboxTimeout marks a sandbox command that exceeded its
	// wall-clock budget.
	KindSandboxTimeout Kind = "sandbox_timeout"

	// KindSandboxIO marks a failure writing code into, or reading output
	// from, the sandbox container itself (not the code it ran).
	KindSandboxIO Kind = "sandbox_io"

	// KindStore marks a failure persisting or retrieving strategies,
	// chat history, sessions, or notifications.
	KindStore Kind = "store_error"

	// KindSensor marks a failure collecting external metrics.
	KindSensor Kind = "sensor_error"

	// KindConfig marks invalid or missing configuration.
	KindConfig Kind = "config_error"
)

// Error is an agentcore error tagged with a Kind so callers can match on
// failure category across package boundaries.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, agenterr.New(KindSandboxTimeout, "", nil)) style checks
// work without inspecting Op or Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New wraps err as an agentcore error of the given kind, tagged with the
// operation that produced it.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel returns an error usable as an errors.Is match target for kind,
// e.g. errors.Is(err, agenterr.Sentinel(agenterr.KindSandboxTimeout)).
func Sentinel(kind Kind) error {
	return &Error{Kind: kind}
}

// KindOf extracts the Kind from err, if any layer of its chain is an
// *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
