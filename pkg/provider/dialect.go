// Package provider implements the wire adapter (spec §4.B): a uniform
// Invoke(ctx, target, test) -> CallOutcome operation over a tagged variant
// of per-vendor dialects (OpenAI-compatible, Anthropic, Google, Custom).
// Invoke never returns a Go error; every failure is encoded in the
// returned CallOutcome, per §7's "per-call failures are recorded inside
// outcomes, never raised."
package provider

import (
	"net/http"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// chatRequest is the dialect-neutral request shape built by a dialect's
// BuildRequest before being marshaled to that dialect's wire format.
type chatRequest struct {
	Model         string
	Prompt        string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	StopSequences []string
	Stream        bool
	APIKey        string
	BaseURL       string
}

// chatResponse is the dialect-neutral parsed response.
type chatResponse struct {
	Content          string
	FinishReason     evalmodel.FinishReason
	PromptTokens     int
	CompletionTokens int
	TokensEstimated  bool
}

// streamChunk is one parsed Server-Sent-Events / NDJSON streaming unit.
type streamChunk struct {
	DeltaContent string
	Done         bool
	FinishReason evalmodel.FinishReason
	PromptTokens int
	CompletionTokens int
}

// dialect is the tagged-variant capability interface every provider
// implements, per §9 redesign note 4 ("Dynamic dispatch across provider
// clients (duck-typed). Replace with a polymorphic abstraction over
// {Invoke, EstimateTokens} and a tagged variant over {OpenAICompatible,
// Anthropic, Google, Custom}. Adding a provider means one new variant
// plus its encoder/decoder.").
type dialect interface {
	// BuildRequest constructs the vendor-specific HTTP request.
	BuildRequest(req chatRequest) (*http.Request, error)
	// ParseResponse decodes a non-streaming response body.
	ParseResponse(statusCode int, body []byte) (chatResponse, evalmodel.ErrorKind, string)
	// ParseStreamChunk decodes one streamed unit (a single SSE "data:" line
	// or NDJSON record, already stripped of framing).
	ParseStreamChunk(raw []byte) (streamChunk, bool)
	// ClassifyError maps a transport-level failure (non-HTTP: DNS, refused
	// connection, TLS) to an ErrorKind.
	ClassifyError(err error) evalmodel.ErrorKind
	// SupportsStreaming reports whether this dialect can parse SSE chunks.
	SupportsStreaming() bool
}

// dialectFor resolves the tagged variant for a provider name. custom
// reuses the OpenAI-compatible dialect (documented assumption: the spec
// says "OpenAI-compatible covers openai/groq/together/perplexity/mistral";
// custom has no fixed shape so it defaults to the most common one).
func dialectFor(name evalmodel.ProviderName) dialect {
	switch name {
	case evalmodel.ProviderAnthropic:
		return anthropicDialect{}
	case evalmodel.ProviderGoogle:
		return googleDialect{}
	default:
		return openAICompatDialect{}
	}
}
