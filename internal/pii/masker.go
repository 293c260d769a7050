// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package pii redacts personally identifiable fields from search results.
//
// Rules match the dotted path of each node in a decoded JSON document
// (array indices are path segments, so "items.0.ip" addresses the first
// element). When several rules match one path, hide wins outright, then
// mask, then partial:
//
//	m, err := pii.Compile([]models.PiiRule{{Pattern: "user.email", Action: models.PiiMask}})
//	masked := m.Mask(doc) // {"user": {"email": "[masked]", "name": "Bob"}}
//
// Masking never modifies its input; it returns a transformed copy.
package pii

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loglens/internal/models"
	"github.com/tomtom215/loglens/internal/policy"
)

// RuleError reports a rule that cannot be compiled.
type RuleError struct {
	Index int
	Rule  models.PiiRule
	Msg   string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("pii rule %d (%q): %s", e.Index, e.Rule.Pattern, e.Msg)
}

type compiledRule struct {
	re     *regexp.Regexp
	action models.PiiAction
}

// Masker applies a compiled rule set.
type Masker struct {
	rules []compiledRule
}

// Compile validates and compiles rules in declaration order.
func Compile(rules []models.PiiRule) (*Masker, error) {
	m := &Masker{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, &RuleError{Index: i, Rule: r, Msg: "empty pattern"}
		}
		switch r.Action {
		case models.PiiHide, models.PiiMask, models.PiiPartial:
		default:
			return nil, &RuleError{Index: i, Rule: r, Msg: "unknown action " + strconv.Quote(string(r.Action))}
		}
		m.rules = append(m.rules, compiledRule{re: policy.CompilePattern(r.Pattern), action: r.Action})
	}
	return m, nil
}

// Enabled reports whether any rule is configured.
func (m *Masker) Enabled() bool {
	return m != nil && len(m.rules) > 0
}

// ActionFor returns the action for a path, or "" when no rule matches.
func (m *Masker) ActionFor(path string) models.PiiAction {
	var action models.PiiAction
	for _, r := range m.rules {
		if !r.re.MatchString(path) {
			continue
		}
		switch r.action {
		case models.PiiHide:
			return models.PiiHide
		case models.PiiMask:
			action = models.PiiMask
		case models.PiiPartial:
			if action == "" {
				action = models.PiiPartial
			}
		}
	}
	return action
}

// Mask returns a redacted copy of doc. With no rules the input is returned
// unchanged.
func (m *Masker) Mask(doc any) any {
	if !m.Enabled() {
		return doc
	}
	out, _ := Transform(doc, "", m.ActionFor)
	return out
}

// Transform walks v depth-first and applies decide to the path of every
// node below the root. The boolean result is false when the node itself
// must be dropped from its parent.
func Transform(v any, path string, decide func(path string) models.PiiAction) (any, bool) {
	if path != "" {
		switch decide(path) {
		case models.PiiHide:
			return nil, false
		case models.PiiMask:
			return models.MaskedValue, true
		case models.PiiPartial:
			return partialValue(v), true
		}
	}

	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if masked, keep := Transform(child, join(path, k), decide); keep {
				out[k] = masked
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(t))
		for i, child := range t {
			if masked, keep := Transform(child, join(path, strconv.Itoa(i)), decide); keep {
				out = append(out, masked)
			}
		}
		return out, true
	default:
		return v, true
	}
}

func join(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + "." + segment
}

// partialValue applies Partial to scalar values; containers are masked
// wholesale and null stays null.
func partialValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return Partial(t)
	case json.Number:
		return Partial(t.String())
	case float64:
		return Partial(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		return Partial(strconv.FormatBool(t))
	default:
		return models.MaskedValue
	}
}

// Partial keeps a few characters of s at either end:
//
//	""       -> ""
//	"ab"     -> "**"
//	"abcd"   -> "a***d"
//	"abcdef" -> "ab***ef"
func Partial(s string) string {
	r := []rune(s)
	switch n := len(r); {
	case n == 0:
		return ""
	case n <= 2:
		return strings.Repeat("*", n)
	case n <= 4:
		return string(r[0]) + "***" + string(r[n-1])
	default:
		return string(r[:2]) + "***" + string(r[n-2:])
	}
}
