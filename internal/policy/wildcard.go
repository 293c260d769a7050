// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package policy

import (
	"regexp"
	"strings"
	"sync"
)

// compiled caches wildcard patterns; the set of patterns in a deployment is
// small and fixed by the policy.
var compiled sync.Map // map[string]*regexp.Regexp

// CompilePattern converts a wildcard pattern into an anchored regular
// expression. Regex metacharacters are escaped and every * becomes .*, so
// the result always compiles.
func CompilePattern(pattern string) *regexp.Regexp {
	if re, ok := compiled.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}

	quoted := regexp.QuoteMeta(pattern)
	expr := "^" + strings.ReplaceAll(quoted, `\*`, ".*") + "$"
	re := regexp.MustCompile(expr)

	actual, _ := compiled.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp)
}

// MatchPattern reports whether value fully matches the wildcard pattern.
func MatchPattern(pattern, value string) bool {
	return CompilePattern(pattern).MatchString(value)
}

// MatchAny reports whether value matches any of the wildcard patterns.
func MatchAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if MatchPattern(p, value) {
			return true
		}
	}
	return false
}
