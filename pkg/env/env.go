// Package env reads the few settings needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces storefront variables.
const Prefix = "STOREFRONT_"

// Get returns the value of key, trimmed, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Storefront prefers STOREFRONT_<key> and falls back to the bare key, so
// shared tooling variables such as LOG_FORMAT keep working.
func Storefront(key, fallback string) string {
	return Get(Prefix+key, Get(key, fallback))
}
