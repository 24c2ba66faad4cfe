package openrouter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/everstacklabs/pricetracker/internal/adapter"
	"github.com/everstacklabs/pricetracker/internal/catalog"
	"github.com/everstacklabs/pricetracker/internal/classify"
	"github.com/everstacklabs/pricetracker/internal/feed"
	"github.com/everstacklabs/pricetracker/internal/normalize"
)

// SourceName is the key OpenRouter observations are recorded under.
const SourceName = "openrouter"

func init() {
	adapter.Register(&OpenRouter{})
}

// OpenRouter normalizes the OpenRouter /models list. It is the
// capability-authoritative source: zero prices are a genuine free tier.
type OpenRouter struct{}

func (o *OpenRouter) Name() string { return SourceName }

// MinExpectedModels is well under the size of the live list.
func (o *OpenRouter) MinExpectedModels() int { return 100 }

// OpenRouter /models item.
type apiModel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Pricing struct {
		Prompt     feed.Number `json:"prompt"`
		Completion feed.Number `json:"completion"`
	} `json:"pricing"`
	ContextLength feed.Number `json:"context_length"`
	TopProvider   struct {
		MaxCompletionTokens feed.Number `json:"max_completion_tokens"`
	} `json:"top_provider"`
	Architecture struct {
		Modality         string   `json:"modality"`
		OutputModalities []string `json:"output_modalities"`
	} `json:"architecture"`
}

func (o *OpenRouter) Normalize(doc *feed.Document, now time.Time) (*adapter.Result, error) {
	result := adapter.NewResult(SourceName)

	if kind := feed.KindOf(doc.Data); kind != feed.KindList {
		return result, fmt.Errorf("openrouter data is %s, want list: %w", kind, feed.ErrShape)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(doc.Data, &items); err != nil {
		return result, fmt.Errorf("openrouter data: %v: %w", err, feed.ErrShape)
	}

	observedAt := doc.FetchedAtOr(now)
	for i, raw := range items {
		var am apiModel
		if err := json.Unmarshal(raw, &am); err != nil {
			slog.Warn("skipping malformed model", "source", SourceName, "index", i, "error", err)
			result.Skipped++
			continue
		}
		if am.ID == "" {
			continue
		}

		m, err := toRecord(am, observedAt)
		if err != nil {
			slog.Warn("skipping model", "source", SourceName, "id", am.ID, "error", err)
			result.Skipped++
			continue
		}
		result.Add(m)
	}

	slog.Info("normalized source", "source", SourceName,
		"items", len(items), "models", len(result.Models), "skipped", result.Skipped)
	return result, nil
}

func toRecord(am apiModel, observedAt string) (*catalog.ModelRecord, error) {
	input, err := normalize.PerMillion(am.Pricing.Prompt)
	if err != nil {
		return nil, fmt.Errorf("prompt %w", err)
	}
	output, err := normalize.PerMillion(am.Pricing.Completion)
	if err != nil {
		return nil, fmt.Errorf("completion %w", err)
	}
	contextWindow, err := am.ContextLength.Int()
	if err != nil {
		return nil, fmt.Errorf("context_length: %w", err)
	}
	maxOutput, err := am.TopProvider.MaxCompletionTokens.Int()
	if err != nil {
		return nil, fmt.Errorf("max_completion_tokens: %w", err)
	}

	displayName := am.Name
	if displayName == "" {
		displayName = normalize.DisplayName(am.ID)
	}

	return &catalog.ModelRecord{
		Provider:    normalize.InferProvider(am.ID),
		ModelID:     am.ID,
		DisplayName: displayName,
		Pricing: catalog.PricingInfo{
			InputPerMillion:  input,
			OutputPerMillion: output,
			Currency:         catalog.CurrencyUSD,
		},
		ContextWindow:           contextWindow,
		MaxOutputTokens:         maxOutput,
		ModelType:               modelType(am),
		SupportsVision:          strings.Contains(strings.ToLower(am.Architecture.Modality), "image"),
		SupportsFunctionCalling: true,
		SupportsStreaming:       true,
		Category:                classify.Category(am.ID, input),
		Sources: map[string]catalog.SourceObservation{
			SourceName: {PriceInput: input, PriceOutput: output, ObservedAt: observedAt},
		},
		AffiliateLinks: map[string]string{},
	}, nil
}

// modelType prefers the declared output modalities, then known image names.
func modelType(am apiModel) string {
	switch {
	case slices.Contains(am.Architecture.OutputModalities, "image"):
		return catalog.TypeImageGeneration
	case classify.IsImageName(am.ID):
		return catalog.TypeImage
	default:
		return catalog.TypeChat
	}
}
