package ratelimit

import (
	"strings"
	"time"
)

// Rule limits requests matching one route pattern and method.
type Rule struct {
	Pattern string        // Route pattern, "*" matches one path segment, a trailing "/" matches a prefix
	Method  string        // HTTP method
	Limit   int           // Maximum requests per window
	Window  time.Duration // Time window
	Burst   int           // Burst capacity, defaults to Limit
}

// Settings are the tunables read by the config package.
type Settings struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	WriteLimit    int
	Whitelist     string
	Blacklist     string
}

// NewConfig builds the limiter configuration for the annotation API.
func NewConfig(s Settings) *Config {
	if !s.Enabled {
		return &Config{Enabled: false}
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 1000
	}
	if s.DefaultWindow <= 0 {
		s.DefaultWindow = time.Minute
	}
	if s.WriteLimit <= 0 {
		s.WriteLimit = 120
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       parseIPList(s.Whitelist),
		Blacklist:       parseIPList(s.Blacklist),
		Rules:           DefaultRules(s.WriteLimit),
	}
}

// DefaultRules limits annotation writes per client. Reads use the default limit and
// /health is never limited.
func DefaultRules(writeLimit int) []Rule {
	burst := writeLimit / 4
	if burst < 1 {
		burst = 1
	}
	var rules []Rule
	for _, collection := range []string{"stories", "derivations"} {
		list := "/" + collection + "/*/annotations"
		item := list + "/*"
		rules = append(rules,
			Rule{Pattern: list, Method: "POST", Limit: writeLimit, Window: time.Minute, Burst: burst},
			Rule{Pattern: item, Method: "PATCH", Limit: writeLimit, Window: time.Minute, Burst: burst},
			Rule{Pattern: item, Method: "DELETE", Limit: writeLimit, Window: time.Minute, Burst: burst},
		)
	}
	// Websocket subscriptions are long lived; reconnect storms are the concern.
	rules = append(rules, Rule{Pattern: "/ws/", Method: "GET", Limit: 30, Window: time.Minute, Burst: 10})
	return rules
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
