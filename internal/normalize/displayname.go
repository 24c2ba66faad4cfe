package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Trailing snapshot dates. The dash form is stripped before the colon form,
// so "x:20240101-20240229" loses both.
var (
	dashDateRe  = regexp.MustCompile(`-\d{8}$`)
	colonDateRe = regexp.MustCompile(`:\d{8}$`)
)

// DisplayName derives a human-readable label from a model identifier.
//
//	"anthropic/claude-3-opus-20240229" -> "Claude 3 Opus"
func DisplayName(modelID string) string {
	name := modelID
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = dashDateRe.ReplaceAllString(name, "")
	name = colonDateRe.ReplaceAllString(name, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, w := range words {
		lower := strings.ToLower(w)
		switch {
		case lower == "gpt" || lower == "llm" || lower == "ai":
			words[i] = strings.ToUpper(w)
		case strings.HasPrefix(lower, "gpt"):
			words[i] = "GPT" + w[3:]
		default:
			words[i] = capitalize(w)
		}
	}
	return strings.Join(words, " ")
}

// capitalize upper-cases the first rune and lower-cases the rest.
// Casers carry state, so a fresh one is built per call.
func capitalize(w string) string {
	_, size := utf8.DecodeRuneInString(w)
	if size == 0 {
		return w
	}
	return cases.Upper(language.Und).String(w[:size]) + cases.Lower(language.Und).String(w[size:])
}

// TitleCase title-cases an identifier such as a provider id ("openai" -> "Openai").
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}
