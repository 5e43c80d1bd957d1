package provider

import (
	"bufio"
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evalforge/evalharness/pkg/catalog"
	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/masking"
)

// Invoker executes one (target, test, iteration) call against a vendor
// backend and always returns a CallOutcome — it never returns a Go error,
// consistent with §7's "per-call failures are recorded inside outcomes,
// never raised."
type Invoker struct {
	HTTPClient *http.Client
	Catalog    *catalog.Catalog
	// Masker scrubs vendor error bodies before they reach ErrorMessage —
	// error text passes through verbatim from the HTTP response and can
	// echo back a bearer token or key fragment the vendor itself logged.
	Masker *masking.Service
	// pricingCache avoids a catalog.Lookup per call within one job run —
	// an in-process perf nicety per §9, not a correctness requirement.
	pricingCache *TTLCache[string, pricingCacheEntry]
}

type pricingCacheEntry struct {
	pricing catalog.ModelPricing
	found   bool
}

// NewInvoker builds an Invoker with a bounded, short-TTL pricing cache.
func NewInvoker(httpClient *http.Client, cat *catalog.Catalog) *Invoker {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Invoker{
		HTTPClient:   httpClient,
		Catalog:      cat,
		Masker:       masking.NewService(),
		pricingCache: NewTTLCache[string, pricingCacheEntry](100, 60*time.Second),
	}
}

// InvokeOptions carries the per-call knobs the executor controls.
type InvokeOptions struct {
	Iteration     int
	SaveResponses bool
	// WantTTFT requests streaming when the model's catalog entry marks it
	// streaming-capable, per §4.B.
	WantTTFT bool
}

// Invoke builds the vendor request, applies the caller's ctx deadline,
// executes it, and parses the result into a CallOutcome. The adapter never
// retries — retry lives in the executor (§4.B).
func (inv *Invoker) Invoke(ctx context.Context, target evalmodel.ProviderTarget, test evalmodel.TestCase, opts InvokeOptions) evalmodel.CallOutcome {
	started := time.Now()
	d := dialectFor(target.ProviderName)

	apiKey, _ := ResolveAPIKey(target.APIKeyRef)

	pricing, lowConfidencePricing := inv.lookupPricing(target)
	useStream := opts.WantTTFT && d.SupportsStreaming() && pricing.SupportsStreaming

	req := chatRequest{
		Model:         target.ModelID,
		Prompt:        test.Prompt,
		MaxTokens:     test.MaxTokens,
		Temperature:   test.Temperature,
		TopP:          test.TopP,
		StopSequences: test.StopSequences,
		Stream:        useStream,
		APIKey:        apiKey,
		BaseURL:       target.BaseURL,
	}

	httpReq, err := d.BuildRequest(req)
	if err != nil {
		return inv.errorOutcome(target, test, opts, started, evalmodel.ErrUnknown, err.Error())
	}
	httpReq = httpReq.WithContext(ctx)

	if useStream {
		return inv.invokeStreaming(ctx, d, httpReq, target, test, opts, started, lowConfidencePricing, pricing)
	}
	return inv.invokeNonStreaming(d, httpReq, target, test, opts, started, lowConfidencePricing, pricing)
}

func (inv *Invoker) lookupPricing(target evalmodel.ProviderTarget) (catalog.ModelPricing, bool) {
	key := target.Ref()
	if cached, ok := inv.pricingCache.Get(key); ok {
		return cached.pricing, !cached.found
	}
	if inv.Catalog == nil {
		return catalog.ModelPricing{}, true
	}
	pricing, found := inv.Catalog.Lookup(target.ProviderName, target.ModelID)
	inv.pricingCache.Set(key, pricingCacheEntry{pricing: pricing, found: found})
	return pricing, !found
}

func (inv *Invoker) invokeNonStreaming(d dialect, httpReq *http.Request, target evalmodel.ProviderTarget, test evalmodel.TestCase, opts InvokeOptions, started time.Time, lowConfidencePricing bool, pricing catalog.ModelPricing) evalmodel.CallOutcome {
	resp, err := inv.HTTPClient.Do(httpReq)
	if err != nil {
		kind := d.ClassifyError(err)
		if isDeadlineErr(httpReq.Context()) {
			kind = evalmodel.ErrTimeout
		}
		return inv.errorOutcome(target, test, opts, started, kind, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return inv.errorOutcome(target, test, opts, started, evalmodel.ErrInvalidResponse, "read body: "+err.Error())
	}

	parsed, errKind, errMsg := d.ParseResponse(resp.StatusCode, body)
	if errKind != "" {
		outcome := inv.errorOutcome(target, test, opts, started, errKind, errMsg)
		if errKind == evalmodel.ErrRateLimited {
			outcome.RetryAfterMs = retryAfterMs(resp.Header.Get("Retry-After"))
		}
		return outcome
	}

	return inv.successOutcome(target, test, opts, started, parsed, lowConfidencePricing, pricing, nil)
}

func (inv *Invoker) invokeStreaming(ctx context.Context, d dialect, httpReq *http.Request, target evalmodel.ProviderTarget, test evalmodel.TestCase, opts InvokeOptions, started time.Time, lowConfidencePricing bool, pricing catalog.ModelPricing) evalmodel.CallOutcome {
	resp, err := inv.HTTPClient.Do(httpReq)
	if err != nil {
		kind := d.ClassifyError(err)
		if isDeadlineErr(ctx) {
			kind = evalmodel.ErrTimeout
		}
		return inv.errorOutcome(target, test, opts, started, kind, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		if kind, msg, handled := classifyHTTPStatus(resp.StatusCode, body); handled {
			outcome := inv.errorOutcome(target, test, opts, started, kind, msg)
			if kind == evalmodel.ErrRateLimited {
				outcome.RetryAfterMs = retryAfterMs(resp.Header.Get("Retry-After"))
			}
			return outcome
		}
	}

	var content strings.Builder
	var ttft *int64
	var finishReason evalmodel.FinishReason
	var promptTokens, completionTokens int

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		trimmed := strings.TrimSpace(string(line))
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimPrefix(trimmed, "data:")
		chunk, ok := d.ParseStreamChunk([]byte(strings.TrimSpace(trimmed)))
		if !ok {
			continue
		}
		if chunk.DeltaContent != "" && ttft == nil {
			elapsed := time.Since(started).Milliseconds()
			ttft = &elapsed
		}
		content.WriteString(chunk.DeltaContent)
		if chunk.Done {
			finishReason = chunk.FinishReason
			if chunk.PromptTokens > 0 {
				promptTokens = chunk.PromptTokens
			}
			if chunk.CompletionTokens > 0 {
				completionTokens = chunk.CompletionTokens
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return inv.errorOutcome(target, test, opts, started, evalmodel.ErrInvalidResponse, "stream read: "+err.Error())
	}

	estimated := false
	if completionTokens == 0 && content.Len() > 0 {
		completionTokens = int(math.Ceil(float64(content.Len()) / 4))
		estimated = true
	}
	if finishReason == "" {
		finishReason = evalmodel.FinishStop
	}

	parsed := chatResponse{
		Content:          content.String(),
		FinishReason:     finishReason,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TokensEstimated:  estimated,
	}
	return inv.successOutcome(target, test, opts, started, parsed, lowConfidencePricing, pricing, ttft)
}

func (inv *Invoker) successOutcome(target evalmodel.ProviderTarget, test evalmodel.TestCase, opts InvokeOptions, started time.Time, parsed chatResponse, lowConfidencePricing bool, pricing catalog.ModelPricing, ttft *int64) evalmodel.CallOutcome {
	completed := time.Now()
	latencyMs := completed.Sub(started).Milliseconds()

	inputUSD, outputUSD := catalog.EstimateCost(pricing, parsed.PromptTokens, parsed.CompletionTokens)

	var tps *float64
	if latencyMs > 0 && parsed.CompletionTokens > 0 {
		v := float64(parsed.CompletionTokens) / (float64(latencyMs) / 1000)
		tps = &v
	}

	outcome := evalmodel.CallOutcome{
		TargetRef:        target.Ref(),
		TestRef:          test.TestID,
		Iteration:        opts.Iteration,
		Success:          true,
		FinishReason:     parsed.FinishReason,
		LatencyMs:        latencyMs,
		TTFTMs:           ttft,
		TokensPerSecond:  tps,
		PromptTokens:     parsed.PromptTokens,
		CompletionTokens: parsed.CompletionTokens,
		InputCostUSD:     inputUSD,
		OutputCostUSD:    outputUSD,
		StartedAt:        started,
		CompletedAt:      completed,
		LowConfidence:    lowConfidencePricing || parsed.TokensEstimated,
	}
	if opts.SaveResponses {
		outcome.Content = parsed.Content
	}
	return outcome
}

func (inv *Invoker) errorOutcome(target evalmodel.ProviderTarget, test evalmodel.TestCase, opts InvokeOptions, started time.Time, kind evalmodel.ErrorKind, message string) evalmodel.CallOutcome {
	completed := time.Now()
	if inv.Masker != nil {
		message = inv.Masker.Mask(message)
	}
	return evalmodel.CallOutcome{
		TargetRef:    target.Ref(),
		TestRef:      test.TestID,
		Iteration:    opts.Iteration,
		Success:      false,
		FinishReason: evalmodel.FinishError,
		LatencyMs:    completed.Sub(started).Milliseconds(),
		ErrorKind:    kind,
		ErrorMessage: message,
		StartedAt:    started,
		CompletedAt:  completed,
	}
}

func isDeadlineErr(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

// retryAfterMs parses an HTTP Retry-After header (seconds, per RFC 9110;
// HTTP-date form is not honored since no provider in §4.B emits it) into a
// millisecond hint for the executor. Returns nil when absent or malformed.
func retryAfterMs(header string) *int64 {
	if header == "" {
		return nil
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return nil
	}
	ms := int64(seconds) * 1000
	return &ms
}
