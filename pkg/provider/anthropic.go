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

// anthropicDialect targets Anthropic's /v1/messages endpoint, which uses a
// distinct request/response shape from the OpenAI-compatible family (§4.B).
type anthropicDialect struct{}

type anthropicRequestBody struct {
	Model       string                 `json:"model"`
	Messages    []openAIChatMessage    `json:"messages"`
	MaxTokens   int                    `json:"max_tokens"`
	Temperature float64                `json:"temperature,omitempty"`
	TopP        float64                `json:"top_p,omitempty"`
	StopSequences []string             `json:"stop_sequences,omitempty"`
	Stream      bool                   `json:"stream,omitempty"`
}

func (d anthropicDialect) BuildRequest(req chatRequest) (*http.Request, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	body := anthropicRequestBody{
		Model:         req.Model,
		Messages:      []openAIChatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:     maxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.StopSequences,
		Stream:        req.Stream,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("anthropic dialect: marshal request: %w", err)
	}

	base := req.BaseURL
	if base == "" {
		base = "https://api.anthropic.com"
	}
	url := strings.TrimRight(base, "/") + "/v1/messages"
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("anthropic dialect: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", req.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	return httpReq, nil
}

type anthropicResponseBody struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (d anthropicDialect) ParseResponse(statusCode int, body []byte) (chatResponse, evalmodel.ErrorKind, string) {
	if kind, msg, handled := classifyHTTPStatus(statusCode, body); handled {
		return chatResponse{}, kind, msg
	}

	var parsed anthropicResponseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return chatResponse{}, evalmodel.ErrInvalidResponse, "invalid JSON: " + err.Error()
	}
	if len(parsed.Content) == 0 {
		return chatResponse{}, evalmodel.ErrInvalidResponse, "missing content blocks"
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	completionTokens := parsed.Usage.OutputTokens
	estimated := false
	if completionTokens == 0 && text.Len() > 0 {
		completionTokens = int(math.Ceil(float64(text.Len()) / 4))
		estimated = true
	}

	return chatResponse{
		Content:          text.String(),
		FinishReason:     mapAnthropicStopReason(parsed.StopReason),
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: completionTokens,
		TokensEstimated:  estimated,
	}, "", ""
}

func mapAnthropicStopReason(r string) evalmodel.FinishReason {
	switch r {
	case "max_tokens":
		return evalmodel.FinishLength
	case "stop_sequence", "end_turn", "":
		return evalmodel.FinishStop
	case "tool_use":
		return evalmodel.FinishToolCalls
	default:
		return evalmodel.FinishStop
	}
}

type anthropicStreamEventBody struct {
	Type  string `json:"type"`
	Delta struct {
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage *struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (d anthropicDialect) ParseStreamChunk(raw []byte) (streamChunk, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return streamChunk{}, false
	}
	var parsed anthropicStreamEventBody
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return streamChunk{}, false
	}
	switch parsed.Type {
	case "content_block_delta":
		return streamChunk{DeltaContent: parsed.Delta.Text}, true
	case "message_delta":
		chunk := streamChunk{Done: parsed.Delta.StopReason != ""}
		if chunk.Done {
			chunk.FinishReason = mapAnthropicStopReason(parsed.Delta.StopReason)
		}
		if parsed.Usage != nil {
			chunk.CompletionTokens = parsed.Usage.OutputTokens
		}
		return chunk, true
	case "message_stop":
		return streamChunk{Done: true}, true
	default:
		return streamChunk{}, false
	}
}

func (d anthropicDialect) ClassifyError(err error) evalmodel.ErrorKind {
	return classifyTransportError(err)
}

func (d anthropicDialect) SupportsStreaming() bool { return true }
