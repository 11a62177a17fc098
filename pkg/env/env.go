// Package env reads process environment variables with fallbacks.
package env

import "os"

// Get returns the value of key, or fallback when the variable is unset
// or blank.
func Get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
