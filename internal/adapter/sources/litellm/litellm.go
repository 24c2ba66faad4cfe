package litellm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/everstacklabs/pricetracker/internal/adapter"
	"github.com/everstacklabs/pricetracker/internal/catalog"
	"github.com/everstacklabs/pricetracker/internal/classify"
	"github.com/everstacklabs/pricetracker/internal/feed"
	"github.com/everstacklabs/pricetracker/internal/normalize"
)

// SourceName is the key LiteLLM observations are recorded under.
const SourceName = "litellm"

// samplePrefix marks the documentation entry at the top of the price map.
const samplePrefix = "sample_spec"

func init() {
	adapter.Register(&LiteLLM{})
}

// LiteLLM normalizes the model_prices_and_context_window map. The feed uses
// zero prices to mean "unknown", so fully zero-priced entries are rejected.
type LiteLLM struct{}

func (l *LiteLLM) Name() string { return SourceName }

func (l *LiteLLM) MinExpectedModels() int { return 500 }

// One value of the LiteLLM price map.
type priceEntry struct {
	InputCostPerToken       feed.Number `json:"input_cost_per_token"`
	OutputCostPerToken      feed.Number `json:"output_cost_per_token"`
	MaxInputTokens          feed.Number `json:"max_input_tokens"`
	MaxTokens               feed.Number `json:"max_tokens"`
	MaxOutputTokens         feed.Number `json:"max_output_tokens"`
	Provider                string      `json:"litellm_provider"`
	Mode                    string      `json:"mode"`
	SupportsVision          *bool       `json:"supports_vision"`
	SupportsFunctionCalling *bool       `json:"supports_function_calling"`
}

func (l *LiteLLM) Normalize(doc *feed.Document, now time.Time) (*adapter.Result, error) {
	result := adapter.NewResult(SourceName)

	if kind := feed.KindOf(doc.Data); kind != feed.KindObject {
		return result, fmt.Errorf("litellm data is %s, want object: %w", kind, feed.ErrShape)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(doc.Data, &entries); err != nil {
		return result, fmt.Errorf("litellm data: %v: %w", err, feed.ErrShape)
	}

	// Sorted so warnings come out in a stable order.
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	observedAt := doc.FetchedAtOr(now)
	for _, key := range keys {
		raw := entries[key]
		if feed.KindOf(raw) != feed.KindObject || strings.HasPrefix(key, samplePrefix) {
			result.Rejected++
			continue
		}

		var e priceEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			slog.Warn("skipping malformed model", "source", SourceName, "id", key, "error", err)
			result.Skipped++
			continue
		}

		m, err := toRecord(key, e, observedAt)
		if err != nil {
			slog.Warn("skipping model", "source", SourceName, "id", key, "error", err)
			result.Skipped++
			continue
		}
		if m == nil {
			result.Rejected++
			continue
		}
		result.Add(m)
	}

	slog.Info("normalized source", "source", SourceName,
		"entries", len(entries), "models", len(result.Models),
		"skipped", result.Skipped, "rejected", result.Rejected)
	return result, nil
}

// toRecord returns nil, nil for entries without any pricing.
func toRecord(key string, e priceEntry, observedAt string) (*catalog.ModelRecord, error) {
	input, err := normalize.PerMillion(e.InputCostPerToken)
	if err != nil {
		return nil, fmt.Errorf("input %w", err)
	}
	output, err := normalize.PerMillion(e.OutputCostPerToken)
	if err != nil {
		return nil, fmt.Errorf("output %w", err)
	}
	if unpriced(e) {
		return nil, nil
	}

	contextWindow, err := e.MaxInputTokens.Int()
	if err != nil {
		return nil, fmt.Errorf("max_input_tokens: %w", err)
	}
	maxOutput, err := maxOutputTokens(e)
	if err != nil {
		return nil, err
	}

	provider := strings.ToLower(e.Provider)
	if provider == "" {
		provider = normalize.InferProvider(key)
	}

	return &catalog.ModelRecord{
		Provider:    provider,
		ModelID:     key,
		DisplayName: normalize.DisplayName(key),
		Pricing: catalog.PricingInfo{
			InputPerMillion:  input,
			OutputPerMillion: output,
			Currency:         catalog.CurrencyUSD,
		},
		ContextWindow:           contextWindow,
		MaxOutputTokens:         maxOutput,
		ModelType:               classify.TypeFromNameOrMode(key, e.Mode),
		SupportsVision:          e.SupportsVision != nil && *e.SupportsVision,
		SupportsFunctionCalling: e.SupportsFunctionCalling != nil && *e.SupportsFunctionCalling,
		SupportsStreaming:       true,
		Category:                classify.Category(key, input),
		Sources: map[string]catalog.SourceObservation{
			SourceName: {PriceInput: input, PriceOutput: output, ObservedAt: observedAt},
		},
		AffiliateLinks: map[string]string{},
	}, nil
}

// unpriced reports whether both per-token prices are exactly zero. The check
// runs on the feed values, so a tiny price that rounds to zero is kept.
func unpriced(e priceEntry) bool {
	input, _ := e.InputCostPerToken.Decimal()
	output, _ := e.OutputCostPerToken.Decimal()
	return input.IsZero() && output.IsZero()
}

// maxOutputTokens prefers max_tokens and falls back to max_output_tokens
// when the former is absent or zero.
func maxOutputTokens(e priceEntry) (int, error) {
	n, err := e.MaxTokens.Int()
	if err != nil {
		return 0, fmt.Errorf("max_tokens: %w", err)
	}
	if n != 0 {
		return n, nil
	}
	n, err = e.MaxOutputTokens.Int()
	if err != nil {
		return 0, fmt.Errorf("max_output_tokens: %w", err)
	}
	return n, nil
}
