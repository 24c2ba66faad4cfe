// Package normalize holds the naming and unit helpers shared by all source
// adapters: provider inference, display-name derivation and price conversion.
package normalize

import "strings"

// UnknownProvider is returned when no rule identifies the provider.
const UnknownProvider = "unknown"

type providerRule struct {
	prefixes []string
	provider string
}

// providerRules is evaluated top to bottom; the first matching prefix wins.
var providerRules = []providerRule{
	{[]string{"gpt-", "o1-", "davinci", "curie", "babbage", "ada"}, "openai"},
	{[]string{"claude"}, "anthropic"},
	{[]string{"gemini"}, "google"},
	{[]string{"mistral", "mixtral", "codestral"}, "mistral"},
	{[]string{"llama"}, "meta"},
	{[]string{"deepseek"}, "deepseek"},
	{[]string{"command"}, "cohere"},
}

// InferProvider derives the provider of a model identifier.
//
//	"openai/gpt-4o" -> "openai"
//	"gpt-4"         -> "openai"
//	"mystery-model" -> "unknown"
func InferProvider(modelID string) string {
	if ns, _, ok := strings.Cut(modelID, "/"); ok {
		return strings.ToLower(ns)
	}

	lower := strings.ToLower(modelID)
	for _, rule := range providerRules {
		for _, p := range rule.prefixes {
			if strings.HasPrefix(lower, p) {
				return rule.provider
			}
		}
	}
	return UnknownProvider
}
