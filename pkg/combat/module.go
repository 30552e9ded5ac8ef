package combat

import (
	"regexp"
	"strings"
)

// NameChecker answers membership queries against the reference type-name
// dictionary. A nil checker means no reference data is loaded.
type NameChecker interface {
	Contains(name string) bool
}

var (
	leadingDashRE = regexp.MustCompile("^[\\s\\-–—]+")
	innerSpaceRE  = regexp.MustCompile(`\s+`)
)

// CleanModuleName normalizes module names extracted from log lines. Fixes
// cases like "- Heavy Gremlin Compact Energy Neutralizer" which otherwise
// cause duplicate groupings in summaries.
func CleanModuleName(mod string, names NameChecker) string {
	m := strings.TrimSpace(mod)
	m = leadingDashRE.ReplaceAllString(m, "")
	m = strings.TrimSpace(innerSpaceRE.ReplaceAllString(m, " "))
	if names == nil || m == "" || names.Contains(m) {
		return m
	}
	// Stray phrase fragments sometimes precede the module name. When a
	// reference dictionary is loaded, strip down to the longest known suffix.
	toks := strings.Fields(m)
	for i := 1; i < len(toks); i++ {
		if cand := strings.Join(toks[i:], " "); names.Contains(cand) {
			return cand
		}
	}
	return m
}
