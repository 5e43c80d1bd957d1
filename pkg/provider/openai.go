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

// openAICompatDialect targets POST {base_url}/v1/chat/completions with a
// bearer token, per §6. Covers openai/groq/together/perplexity/mistral/
// azure/custom.
type openAICompatDialect struct{}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequestBody struct {
	Model       string               `json:"model"`
	Messages    []openAIChatMessage  `json:"messages"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
	TopP        float64              `json:"top_p,omitempty"`
	Stop        []string             `json:"stop,omitempty"`
	Stream      bool                 `json:"stream,omitempty"`
}

func (d openAICompatDialect) BuildRequest(req chatRequest) (*http.Request, error) {
	body := openAIChatRequestBody{
		Model:       req.Model,
		Messages:    []openAIChatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.StopSequences,
		Stream:      req.Stream,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai dialect: marshal request: %w", err)
	}

	url := strings.TrimRight(req.BaseURL, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai dialect: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	return httpReq, nil
}

type openAIChatResponseBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (d openAICompatDialect) ParseResponse(statusCode int, body []byte) (chatResponse, evalmodel.ErrorKind, string) {
	if kind, msg, handled := classifyHTTPStatus(statusCode, body); handled {
		return chatResponse{}, kind, msg
	}

	var parsed openAIChatResponseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return chatResponse{}, evalmodel.ErrInvalidResponse, "invalid JSON: " + err.Error()
	}
	if len(parsed.Choices) == 0 {
		return chatResponse{}, evalmodel.ErrInvalidResponse, "missing choices[0].message.content"
	}

	content := parsed.Choices[0].Message.Content
	completionTokens := parsed.Usage.CompletionTokens
	estimated := false
	if completionTokens == 0 && content != "" {
		completionTokens = int(math.Ceil(float64(len(content)) / 4))
		estimated = true
	}

	return chatResponse{
		Content:          content,
		FinishReason:     mapOpenAIFinishReason(parsed.Choices[0].FinishReason),
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: completionTokens,
		TokensEstimated:  estimated,
	}, "", ""
}

func mapOpenAIFinishReason(r string) evalmodel.FinishReason {
	switch r {
	case "length":
		return evalmodel.FinishLength
	case "content_filter":
		return evalmodel.FinishContentFilter
	case "tool_calls", "function_call":
		return evalmodel.FinishToolCalls
	case "stop", "":
		return evalmodel.FinishStop
	default:
		return evalmodel.FinishStop
	}
}

type openAIStreamChunkBody struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (d openAICompatDialect) ParseStreamChunk(raw []byte) (streamChunk, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "[DONE]" {
		return streamChunk{Done: true}, true
	}
	if trimmed == "" {
		return streamChunk{}, false
	}

	var parsed openAIStreamChunkBody
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return streamChunk{}, false
	}
	if len(parsed.Choices) == 0 {
		return streamChunk{}, false
	}

	chunk := streamChunk{DeltaContent: parsed.Choices[0].Delta.Content}
	if parsed.Choices[0].FinishReason != nil {
		chunk.Done = true
		chunk.FinishReason = mapOpenAIFinishReason(*parsed.Choices[0].FinishReason)
	}
	if parsed.Usage != nil {
		chunk.PromptTokens = parsed.Usage.PromptTokens
		chunk.CompletionTokens = parsed.Usage.CompletionTokens
	}
	return chunk, true
}

func (d openAICompatDialect) ClassifyError(err error) evalmodel.ErrorKind {
	return classifyTransportError(err)
}

func (d openAICompatDialect) SupportsStreaming() bool { return true }
