// Package envchain resolves configuration values from an explicit value and an
// ordered list of environment variables, the first non-empty source winning.
package envchain

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Chain is an ordered list of environment variable names. Earlier names take
// priority over later ones, so legacy names go at the end.
type Chain []string

// Lookup returns the first non-empty value in the chain and the variable it
// came from.
func (c Chain) Lookup() (string, string) {
	for _, name := range c {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, name
		}
	}
	return "", ""
}

// String returns explicit when it is non-empty, otherwise the first non-empty
// variable of the chain.
func String(explicit string, chain ...string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	v, _ := Chain(chain).Lookup()
	return v
}

// StringDefault is String with a final fallback value.
func StringDefault(explicit, def string, chain ...string) string {
	if v := String(explicit, chain...); v != "" {
		return v
	}
	return def
}

// Int returns explicit when positive, else the first chain value that parses as
// a positive integer, else def.
func Int(explicit, def int, chain ...string) int {
	if explicit > 0 {
		return explicit
	}
	for _, name := range chain {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name))); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// Seconds resolves a duration. Environment values are plain seconds ("30") or
// Go durations ("30s").
func Seconds(explicit, def time.Duration, chain ...string) time.Duration {
	if explicit > 0 {
		return explicit
	}
	for _, name := range chain {
		raw := strings.TrimSpace(os.Getenv(name))
		if raw == "" {
			continue
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil && n > 0 {
			return time.Duration(n * float64(time.Second))
		}
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// Truthy reports whether any variable of the chain holds a true-ish value
// ("1", "true", "yes", "on").
func Truthy(chain ...string) bool {
	for _, name := range chain {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}
