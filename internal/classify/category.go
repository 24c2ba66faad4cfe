// Package classify assigns categories and model types using ordered,
// first-match-wins pattern rules.
package classify

import (
	"strings"

	"github.com/everstacklabs/pricetracker/internal/catalog"
)

// Price bands on input USD per million tokens.
const (
	flagshipPriceFloor = 5.0
	standardPriceFloor = 0.5
)

var (
	embeddingMarkers = []string{"embed"}
	codePatterns     = []string{"codestral", "code-", "coder", "starcoder", "codellama"}
	flagshipPatterns = []string{
		"gpt-4o", "gpt-4-turbo", "gpt-4-32k",
		"claude-3-opus", "claude-3.5-sonnet", "claude-4",
		"gemini-1.5-pro", "gemini-ultra",
		"o1-preview", "o1-pro",
	}
)

type categoryRule struct {
	category string
	patterns []string
}

// categoryRules run in order before the price-band fallback.
var categoryRules = []categoryRule{
	{catalog.CategoryEmbedding, embeddingMarkers},
	{catalog.CategoryCode, codePatterns},
	{catalog.CategoryFlagship, flagshipPatterns},
}

// Category classifies a model from its identifier, falling back to the input
// price band when no name rule matches.
func Category(modelID string, inputPerMillion float64) string {
	lower := strings.ToLower(modelID)
	for _, rule := range categoryRules {
		if containsAny(lower, rule.patterns) {
			return rule.category
		}
	}

	switch {
	case inputPerMillion > flagshipPriceFloor:
		return catalog.CategoryFlagship
	case inputPerMillion > standardPriceFloor:
		return catalog.CategoryStandard
	default:
		return catalog.CategoryBudget
	}
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
