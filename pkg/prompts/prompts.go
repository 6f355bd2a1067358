// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package prompts owns the per-agent-kind template registry: defaults,
// custom-override validation, and rendering.
package prompts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/types"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// placeholders returns the sorted, deduplicated set of {name} tokens in
// tmpl.
func placeholders(tmpl string) []string {
	matches := placeholderRe.FindAllStringSubmatch(tmpl, -1)
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		seen[m[1]] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func samePlaceholders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Generator renders named templates for one agent kind with bound
// variables.
type Generator struct {
	kind      types.AgentKind
	templates map[string]string
}

// NewGenerator builds a Generator for kind, filling any template not
// present in custom from the kind's defaults, then validating that every
// required template's placeholder set exactly matches its default's.
func NewGenerator(kind types.AgentKind, custom map[string]string) (*Generator, error) {
	var defaults map[string]string
	switch kind {
	case types.AgentKindTrading:
		defaults = TradingTemplates()
	case types.AgentKindMarketing:
		defaults = MarketingTemplates()
	default:
		return nil, agenterr.New(agenterr.KindConfig, "NewGenerator", fmt.Errorf("unknown agent kind %q", kind))
	}

	merged := make(map[string]string, len(defaults))
	for name, defaultTmpl := range defaults {
		if custom != nil {
			if override, ok := custom[name]; ok {
				merged[name] = override
				continue
			}
		}
		merged[name] = defaultTmpl
	}

	for name, defaultTmpl := range defaults {
		required := placeholders(defaultTmpl)
		got := placeholders(merged[name])
		if !samePlaceholders(required, got) {
			return nil, agenterr.New(agenterr.KindConfig, "NewGenerator", fmt.Errorf(
				"template %q placeholder set %v does not match required %v", name, got, required))
		}
	}

	return &Generator{kind: kind, templates: merged}, nil
}

// Render substitutes {key} tokens in the named template with vars. An
// unset placeholder is left as literal text; Render does not re-validate
// placeholder completeness (that happened once, at construction).
func (g *Generator) Render(name string, vars map[string]string) (string, error) {
	tmpl, ok := g.templates[name]
	if !ok {
		return "", agenterr.New(agenterr.KindConfig, "Render", fmt.Errorf("unknown template %q", name))
	}
	out := tmpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out, nil
}

// Kind returns the agent kind this Generator was built for.
func (g *Generator) Kind() types.AgentKind {
	return g.kind
}

// APIBlurb names one external API the prompt generator can describe to
// the model.
type APIBlurb struct {
	Name        string
	Description string
}

// JoinAPIBlurbs renders blurbs into the newline-joined text bound to
// {apis_str} in code-generation templates.
func JoinAPIBlurbs(blurbs []APIBlurb) string {
	lines := make([]string, len(blurbs))
	for i, b := range blurbs {
		lines[i] = fmt.Sprintf("- %s: %s", b.Name, b.Description)
	}
	return strings.Join(lines, "\n")
}

// Instrument tags the kind of tradable product an instrument stub covers.
type Instrument string

const (
	InstrumentSpot    Instrument = "spot"
	InstrumentFutures Instrument = "futures"
	InstrumentOptions Instrument = "options"
	InstrumentDefi    Instrument = "defi"
)

var instrumentStubs = map[Instrument]string{
	InstrumentSpot:    "POST %s/api/v1/swap -H 'x-superior-agent-id: %s' -d '{\"token_in\":...,\"token_out\":...,\"amount_in\":...,\"slippage\":...}'",
	InstrumentFutures: "POST %s/api/v1/futures/order -H 'x-superior-agent-id: %s' -d '{\"symbol\":...,\"side\":...,\"size\":...}'",
	InstrumentOptions: "POST %s/api/v1/options/order -H 'x-superior-agent-id: %s' -d '{\"symbol\":...,\"strike\":...,\"expiry\":...}'",
	InstrumentDefi:    "POST %s/api/v1/defi/deposit -H 'x-superior-agent-id: %s' -d '{\"protocol\":...,\"amount\":...}'",
}

// InstrumentCallStubs renders a curl-shaped HTTP stub per requested
// instrument tag, concatenated with blank lines, parameterized by the
// agent's id and the signer service's base URL.
func InstrumentCallStubs(instruments []Instrument, agentID, signerURL string) string {
	var parts []string
	for _, inst := range instruments {
		stub, ok := instrumentStubs[inst]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("curl -X %s", fmt.Sprintf(stub, signerURL, agentID)))
	}
	return strings.Join(parts, "\n\n")
}
