// Package catalog provides the read-mostly pricing & model capability
// table (spec §4.A): a mapping from (provider_name, model_id) to unit
// prices, context window, and streaming/vision support. Catalog updates
// are loaded once at startup; runtime mutation is disallowed, mirroring
// the teacher's pkg/config registry pattern (defensive copy at
// construction, thread-safe reads).
package catalog

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// ModelPricing is one catalog entry.
type ModelPricing struct {
	InputUSDPer1K      float64 `yaml:"input_usd_per_1k_tokens"`
	OutputUSDPer1K     float64 `yaml:"output_usd_per_1k_tokens"`
	ContextWindowTokens int    `yaml:"context_window_tokens"`
	SupportsStreaming  bool    `yaml:"supports_streaming"`
	SupportsVision     bool    `yaml:"supports_vision"`
}

// unknownPricing is the zero-value row returned on a catalog miss. A miss
// never fails the call; it only zeroes cost and is surfaced upstream as
// low_confidence_result.
var unknownPricing = ModelPricing{ContextWindowTokens: 0}

type catalogKey struct {
	provider evalmodel.ProviderName
	model    string
}

// Catalog is immutable after Load.
type Catalog struct {
	mu      sync.RWMutex
	entries map[catalogKey]ModelPricing
}

// Load builds the catalog from the embedded default table, optionally
// merged with a YAML overlay file. Overlay entries win on key collision,
// mirroring the teacher's loader.go merge-over-defaults pattern.
func Load(overlayPath string) (*Catalog, error) {
	entries := make(map[catalogKey]ModelPricing, len(defaultTable))
	for k, v := range defaultTable {
		entries[k] = v
	}

	if overlayPath != "" {
		data, err := os.ReadFile(overlayPath)
		if err != nil {
			return nil, fmt.Errorf("catalog: read overlay %s: %w", overlayPath, err)
		}
		var overlay []struct {
			Provider evalmodel.ProviderName `yaml:"provider_name"`
			Model    string                 `yaml:"model_id"`
			ModelPricing `yaml:",inline"`
		}
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("catalog: parse overlay %s: %w", overlayPath, err)
		}
		for _, row := range overlay {
			entries[catalogKey{row.Provider, row.Model}] = row.ModelPricing
		}
	}

	return &Catalog{entries: entries}, nil
}

// Lookup returns the pricing row for (provider, model), and found=false on
// a miss (never an error). Callers treat a miss as "price as zero" per §4.A.
func (c *Catalog) Lookup(provider evalmodel.ProviderName, model string) (ModelPricing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	row, ok := c.entries[catalogKey{provider, model}]
	if !ok {
		return unknownPricing, false
	}
	return row, true
}

// Len reports the number of loaded catalog rows (test/debug helper).
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// EstimateCost computes input/output cost in USD for a token count pair,
// given a catalog lookup. Returns 0 for both when the model is unpriced.
func EstimateCost(pricing ModelPricing, promptTokens, completionTokens int) (inputUSD, outputUSD float64) {
	inputUSD = float64(promptTokens) / 1000 * pricing.InputUSDPer1K
	outputUSD = float64(completionTokens) / 1000 * pricing.OutputUSDPer1K
	return inputUSD, outputUSD
}

// defaultTable is the embedded default pricing set. Intentionally small —
// unknown models degrade to zero cost + low_confidence_result rather than
// failing the job, per §4.A and §9 open question 3.
var defaultTable = map[catalogKey]ModelPricing{
	{evalmodel.ProviderOpenAI, "gpt-4o"}: {
		InputUSDPer1K: 0.0025, OutputUSDPer1K: 0.01,
		ContextWindowTokens: 128000, SupportsStreaming: true, SupportsVision: true,
	},
	{evalmodel.ProviderOpenAI, "gpt-4o-mini"}: {
		InputUSDPer1K: 0.00015, OutputUSDPer1K: 0.0006,
		ContextWindowTokens: 128000, SupportsStreaming: true, SupportsVision: true,
	},
	{evalmodel.ProviderOpenAI, "gpt-4-turbo"}: {
		InputUSDPer1K: 0.01, OutputUSDPer1K: 0.03,
		ContextWindowTokens: 128000, SupportsStreaming: true, SupportsVision: true,
	},
	{evalmodel.ProviderAnthropic, "claude-3-5-sonnet-20241022"}: {
		InputUSDPer1K: 0.003, OutputUSDPer1K: 0.015,
		ContextWindowTokens: 200000, SupportsStreaming: true, SupportsVision: true,
	},
	{evalmodel.ProviderAnthropic, "claude-3-haiku-20240307"}: {
		InputUSDPer1K: 0.00025, OutputUSDPer1K: 0.00125,
		ContextWindowTokens: 200000, SupportsStreaming: true, SupportsVision: true,
	},
	{evalmodel.ProviderGoogle, "gemini-1.5-pro"}: {
		InputUSDPer1K: 0.00125, OutputUSDPer1K: 0.005,
		ContextWindowTokens: 2000000, SupportsStreaming: true, SupportsVision: true,
	},
	{evalmodel.ProviderGoogle, "gemini-1.5-flash"}: {
		InputUSDPer1K: 0.000075, OutputUSDPer1K: 0.0003,
		ContextWindowTokens: 1000000, SupportsStreaming: true, SupportsVision: true,
	},
	{evalmodel.ProviderMistral, "mistral-large-latest"}: {
		InputUSDPer1K: 0.002, OutputUSDPer1K: 0.006,
		ContextWindowTokens: 128000, SupportsStreaming: true,
	},
	{evalmodel.ProviderGroq, "llama-3.1-70b-versatile"}: {
		InputUSDPer1K: 0.00059, OutputUSDPer1K: 0.00079,
		ContextWindowTokens: 131072, SupportsStreaming: true,
	},
	{evalmodel.ProviderTogether, "meta-llama/Llama-3-70b-chat-hf"}: {
		InputUSDPer1K: 0.0009, OutputUSDPer1K: 0.0009,
		ContextWindowTokens: 8192, SupportsStreaming: true,
	},
	{evalmodel.ProviderPerplexity, "llama-3.1-sonar-large-128k-online"}: {
		InputUSDPer1K: 0.001, OutputUSDPer1K: 0.001,
		ContextWindowTokens: 127072, SupportsStreaming: true,
	},
}
