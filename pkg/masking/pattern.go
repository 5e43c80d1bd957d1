// Package masking scrubs provider API keys and other secret-shaped
// substrings out of anything that might reach a log line or a persisted
// DecisionRecord — per spec §6 ("Keys are never logged... never
// persisted") and §7's persistence_error handling. Grounded on the
// teacher's pkg/masking (compiled-regex pattern engine, fail-closed
// error handling) with the MCP-server/alert-payload-specific resolution
// machinery stripped out: this domain has exactly one secret shape
// (provider API keys) and no per-server configuration to resolve against.
package masking

import "regexp"

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns covers the vendor API key shapes the wire adapter
// dialects (pkg/provider) attach as bearer tokens or x-api-key headers,
// plus a generic fallback for anything that looks like a long opaque
// token embedded in free text (error messages, echoed request bodies).
var builtinPatterns = []CompiledPattern{
	{Name: "openai_key", Regex: regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`), Replacement: "[REDACTED_API_KEY]"},
	{Name: "anthropic_key", Regex: regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`), Replacement: "[REDACTED_API_KEY]"},
	{Name: "google_key", Regex: regexp.MustCompile(`AIza[A-Za-z0-9_-]{30,}`), Replacement: "[REDACTED_API_KEY]"},
	{Name: "bearer_header", Regex: regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]{16,}`), Replacement: "Bearer [REDACTED_API_KEY]"},
	{Name: "generic_opaque_token", Regex: regexp.MustCompile(`\b[A-Za-z0-9_-]{32,}\b`), Replacement: "[REDACTED_TOKEN]"},
}

func compileBuiltinPatterns() []*CompiledPattern {
	compiled := make([]*CompiledPattern, len(builtinPatterns))
	for i := range builtinPatterns {
		p := builtinPatterns[i]
		compiled[i] = &p
	}
	return compiled
}
