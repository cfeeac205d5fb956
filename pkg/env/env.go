// Package env reads process environment values needed before the full config
// is loaded (the logger bootstraps from it).
package env

import (
	"os"
	"strconv"
	"strings"
)

// String returns the trimmed value of key, or fallback when unset or blank.
func String(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// Bool parses key as a boolean, returning fallback on absence or parse error.
func Bool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
