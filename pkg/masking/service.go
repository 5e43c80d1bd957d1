package masking

import "log/slog"

// Service applies the built-in secret patterns to free-text strings —
// HTTP error bodies, log lines, telemetry attributes. It is never applied
// to structured fields like inputs_hash or decision_id, which must survive
// unmodified for the audit trail.
//
// Created once at application startup (singleton); stateless and
// goroutine-safe aside from its immutable compiled pattern list.
type Service struct {
	patterns []*CompiledPattern
}

// NewService compiles the built-in pattern set eagerly.
func NewService() *Service {
	s := &Service{patterns: compileBuiltinPatterns()}
	slog.Info("Masking service initialized", "patterns", len(s.patterns))
	return s
}

// Mask scrubs every known secret shape out of text. Fails closed: a panic
// recovered from a pathological regex match returns a generic redaction
// notice rather than the original, unmasked text.
func (s *Service) Mask(text string) (masked string) {
	if text == "" {
		return text
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("masking panic recovered, redacting text (fail-closed)", "panic", r)
			masked = "[REDACTED: masking failure]"
		}
	}()

	masked = text
	for _, p := range s.patterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}
