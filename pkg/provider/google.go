package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// googleDialect targets the Gemini generateContent endpoint, the third
// distinct vendor shape alongside OpenAI-compatible and Anthropic (§4.B).
type googleDialect struct{}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	Temperature     float64  `json:"temperature,omitempty"`
	TopP            float64  `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type googleRequestBody struct {
	Contents         []googleContent         `json:"contents"`
	GenerationConfig googleGenerationConfig  `json:"generationConfig,omitempty"`
}

func (d googleDialect) BuildRequest(req chatRequest) (*http.Request, error) {
	body := googleRequestBody{
		Contents: []googleContent{{Parts: []googlePart{{Text: req.Prompt}}}},
		GenerationConfig: googleGenerationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
			StopSequences:   req.StopSequences,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("google dialect: marshal request: %w", err)
	}

	base := req.BaseURL
	if base == "" {
		base = "https://generativelanguage.googleapis.com"
	}
	action := "generateContent"
	if req.Stream {
		action = "streamGenerateContent"
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:%s?key=%s",
		strings.TrimRight(base, "/"), req.Model, action, req.APIKey)

	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("google dialect: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

type googleCandidate struct {
	Content      googleContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type googleUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type googleResponseBody struct {
	Candidates    []googleCandidate   `json:"candidates"`
	UsageMetadata googleUsageMetadata `json:"usageMetadata"`
	Error         *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (d googleDialect) ParseResponse(statusCode int, body []byte) (chatResponse, evalmodel.ErrorKind, string) {
	if kind, msg, handled := classifyHTTPStatus(statusCode, body); handled {
		return chatResponse{}, kind, msg
	}

	var parsed googleResponseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return chatResponse{}, evalmodel.ErrInvalidResponse, "invalid JSON: " + err.Error()
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return chatResponse{}, evalmodel.ErrInvalidResponse, "missing candidates[0].content.parts"
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	completionTokens := parsed.UsageMetadata.CandidatesTokenCount
	estimated := false
	if completionTokens == 0 && text.Len() > 0 {
		completionTokens = int(math.Ceil(float64(text.Len()) / 4))
		estimated = true
	}

	return chatResponse{
		Content:          text.String(),
		FinishReason:     mapGoogleFinishReason(parsed.Candidates[0].FinishReason),
		PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
		CompletionTokens: completionTokens,
		TokensEstimated:  estimated,
	}, "", ""
}

func mapGoogleFinishReason(r string) evalmodel.FinishReason {
	switch r {
	case "MAX_TOKENS":
		return evalmodel.FinishLength
	case "SAFETY", "RECITATION":
		return evalmodel.FinishContentFilter
	case "STOP", "":
		return evalmodel.FinishStop
	default:
		return evalmodel.FinishStop
	}
}

// ParseStreamChunk: Gemini's streamGenerateContent returns a JSON array of
// candidate objects over the wire rather than SSE frames; invokeStreaming
// feeds this dialect one scanned line at a time, and this method strips a
// leading "[", a trailing "]" and a trailing comma before decoding, so an
// array element is parsed only when it sits on a single line.
func (d googleDialect) ParseStreamChunk(raw []byte) (streamChunk, bool) {
	trimmed := strings.TrimSpace(string(raw))
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), ",")
	if trimmed == "" {
		return streamChunk{}, false
	}

	var parsed googleResponseBody
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return streamChunk{}, false
	}
	if len(parsed.Candidates) == 0 {
		return streamChunk{}, false
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	chunk := streamChunk{DeltaContent: text.String()}
	if parsed.Candidates[0].FinishReason != "" {
		chunk.Done = true
		chunk.FinishReason = mapGoogleFinishReason(parsed.Candidates[0].FinishReason)
		chunk.PromptTokens = parsed.UsageMetadata.PromptTokenCount
		chunk.CompletionTokens = parsed.UsageMetadata.CandidatesTokenCount
	}
	return chunk, true
}

func (d googleDialect) ClassifyError(err error) evalmodel.ErrorKind {
	return classifyTransportError(err)
}

func (d googleDialect) SupportsStreaming() bool { return true }
