// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestrator

import (
	"encoding/json"
	"strconv"

	"github.com/cycleforge/agentcore/pkg/sensors"
)

// formatWalletState renders a wallet snapshot into the text bound to a
// trading prompt's {metric_state} placeholder. JSON is used rather than
// a bespoke format so the model sees every field name verbatim.
func formatWalletState(snapshot sensors.WalletSnapshot) string {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// formatSocialState renders a social snapshot into the text bound to a
// marketing prompt's {metric_state} placeholder.
func formatSocialState(snapshot sensors.SocialSnapshot) string {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// formatFollowerCount is the plain scalar representation of a marketing
// agent's tracked metric, used for the before/after metric_state
// parameters a strategy record carries (spec.md §4.8 marketing flow
// step 1/5) rather than the fuller formatSocialState JSON blob.
func formatFollowerCount(snapshot sensors.SocialSnapshot) string {
	return strconv.Itoa(snapshot.Followers)
}
