package env

import (
	"os"
	"strings"
)

// Get returns the first non-blank value among keys, or fallback when none is
// set. List storefront-prefixed names first so they win over generic ones.
func Get(fallback string, keys ...string) string {
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback
}
