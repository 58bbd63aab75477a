package ratelimit

import (
	"strings"
)

var unlimited = &Rule{}

// MatchRule returns the rule for a request, or nil when the default applies.
// Health checks and CORS preflights are unlimited.
func MatchRule(path, method string, rules []Rule) *Rule {
	if method == "OPTIONS" || (path == "/health" && method == "GET") {
		return unlimited
	}

	// Exact and wildcard patterns take precedence over prefixes
	for i := range rules {
		r := &rules[i]
		if r.Method == method && !strings.HasSuffix(r.Pattern, "/") && matchSegments(r.Pattern, path) {
			return r
		}
	}
	for i := range rules {
		r := &rules[i]
		if r.Method == method && strings.HasSuffix(r.Pattern, "/") && strings.HasPrefix(path, r.Pattern) {
			return r
		}
	}
	return nil
}

func matchSegments(pattern, path string) bool {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if ps[i] == "*" {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
