package provider

import (
	"os"
	"strings"
)

// ResolveAPIKey consults the environment variable named
// "<REF>_API_KEY" (uppercased, hyphens to underscores), per spec §6. The
// key is returned to the caller only to attach to the outbound HTTP
// request; it is never logged, never hashed into inputs_hash, and never
// persisted (enforced by pkg/evalmodel's canonicalization never seeing
// APIKeyRef's resolved value, and by pkg/masking scrubbing it from any
// incidental log line).
func ResolveAPIKey(ref string) (string, bool) {
	envName := strings.ToUpper(strings.ReplaceAll(ref, "-", "_")) + "_API_KEY"
	val := os.Getenv(envName)
	return val, val != ""
}
