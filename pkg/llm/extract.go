// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/cycleforge/agentcore/pkg/agenterr"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(\\w*)\\s*\\n(.*?)```")

// narrowToTag returns the content between the first <tag>...</tag> pair
// in raw. If the tag is not present, it returns raw unchanged — callers
// treat "no tag present" as "the whole text is the candidate region",
// matching backends that omit the wrapper tag for a single-snippet reply.
func narrowToTag(raw, tag string) string {
	if tag == "" {
		return raw
	}
	open := "<" + tag + ">"
	closeTag := "</" + tag + ">"
	openRe := regexp.MustCompile(regexp.QuoteMeta(open) + "(?s)(.*?)" + regexp.QuoteMeta(closeTag))
	m := openRe.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	return m[1]
}

// firstFencedBlock returns the body of the first fenced block in text
// whose language tag equals lang, or ("", false) if none matches.
func firstFencedBlock(text, lang string) (string, bool) {
	matches := fencedBlockRe.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		if m[1] == lang {
			return m[2], true
		}
	}
	return "", false
}

// ExtractCode extracts one python-fenced code block per blockTag from
// raw (or a single block from the whole of raw, if blockTags is empty).
// It errors if any requested region has no python-fenced block.
func ExtractCode(raw string, blockTags []string) ([]string, error) {
	tags := blockTags
	if len(tags) == 0 {
		tags = []string{""}
	}

	snippets := make([]string, 0, len(tags))
	for _, tag := range tags {
		region := narrowToTag(raw, tag)
		body, ok := firstFencedBlock(region, "python")
		if !ok {
			return nil, agenterr.New(agenterr.KindGen, "ExtractCode", fmt.Errorf("no python fenced block found (tag=%q)", tag))
		}
		snippets = append(snippets, body)
	}
	return snippets, nil
}

// ExtractList extracts one YAML list of strings per blockTag from raw's
// first yaml-fenced block within that tag's region. It errors if a
// region has no yaml-fenced block, or if the parsed value is not a
// sequence of strings.
func ExtractList(raw string, blockTags []string) ([][]string, error) {
	tags := blockTags
	if len(tags) == 0 {
		tags = []string{""}
	}

	lists := make([][]string, 0, len(tags))
	for _, tag := range tags {
		region := narrowToTag(raw, tag)
		body, ok := firstFencedBlock(region, "yaml")
		if !ok {
			return nil, agenterr.New(agenterr.KindGen, "ExtractList", fmt.Errorf("no yaml fenced block found (tag=%q)", tag))
		}

		var parsed []string
		if err := yaml.Unmarshal([]byte(body), &parsed); err != nil {
			return nil, agenterr.New(agenterr.KindGen, "ExtractList", fmt.Errorf("yaml block (tag=%q) is not a sequence of strings: %w", tag, err))
		}
		lists = append(lists, parsed)
	}
	return lists, nil
}
