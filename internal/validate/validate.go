package validate

import (
	"fmt"
	"strings"

	"github.com/everstacklabs/pricetracker/internal/catalog"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Blocks the catalog write
	SeverityWarning                 // Logged but doesn't block
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s - %s", sev, i.Model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

func (r *Result) add(sev Severity, model, field, msg string) {
	r.Issues = append(r.Issues, Issue{sev, model, field, msg})
}

// maxPricePerMillion is a sanity ceiling; a few image and audio models
// legitimately get close, so exceeding it only warns.
const maxPricePerMillion = 1000.0

var knownCategories = map[string]bool{
	catalog.CategoryFlagship:  true,
	catalog.CategoryStandard:  true,
	catalog.CategoryBudget:    true,
	catalog.CategoryCode:      true,
	catalog.CategoryEmbedding: true,
}

// Unknown types pass through from upstream, so they only warn.
var knownTypes = map[string]bool{
	catalog.TypeChat:            true,
	catalog.TypeImage:           true,
	catalog.TypeImageGeneration: true,
	catalog.TypeEmbedding:       true,
	catalog.TypeAudio:           true,
	catalog.TypeVideo:           true,
	catalog.TypeRerank:          true,
}

// ValidateRecord checks a single model record for schema compliance.
func ValidateRecord(m *catalog.ModelRecord) *Result {
	r := &Result{}
	id := m.ModelID

	// Required fields
	if m.ModelID == "" {
		r.add(SeverityError, id, "model_id", "required field is empty")
	}
	if m.Provider == "" {
		r.add(SeverityError, id, "provider", "required field is empty")
	}
	if m.DisplayName == "" {
		r.add(SeverityError, id, "display_name", "required field is empty")
	}
	if len(m.Sources) == 0 {
		r.add(SeverityError, id, "sources", "at least one source observation required")
	}

	// Pricing sanity
	if m.Pricing.Currency != catalog.CurrencyUSD {
		r.add(SeverityError, id, "pricing.currency",
			fmt.Sprintf("unexpected currency %q", m.Pricing.Currency))
	}
	checkPrice(r, id, "pricing.input_per_million", m.Pricing.InputPerMillion)
	checkPrice(r, id, "pricing.output_per_million", m.Pricing.OutputPerMillion)
	if m.ModelType == catalog.TypeChat && m.Pricing.InputPerMillion > 0 && m.Pricing.OutputPerMillion == 0 {
		r.add(SeverityWarning, id, "pricing.output_per_million", "chat model has zero output price")
	}

	// Limits
	if m.ContextWindow < 0 || m.MaxOutputTokens < 0 {
		r.add(SeverityError, id, "context_window", "token limits must not be negative")
	}
	if m.ContextWindow > 0 && m.MaxOutputTokens > m.ContextWindow {
		r.add(SeverityWarning, id, "max_output_tokens",
			fmt.Sprintf("value %d exceeds context_window %d", m.MaxOutputTokens, m.ContextWindow))
	}

	// Taxonomy
	if !knownCategories[m.Category] {
		r.add(SeverityError, id, "category", fmt.Sprintf("unknown category %q", m.Category))
	}
	if !knownTypes[m.ModelType] {
		r.add(SeverityWarning, id, "model_type", fmt.Sprintf("unknown model type %q", m.ModelType))
	}

	return r
}

func checkPrice(r *Result, id, field string, v float64) {
	switch {
	case v < 0:
		r.add(SeverityError, id, field, fmt.Sprintf("value %.4f is negative", v))
	case v > maxPricePerMillion:
		r.add(SeverityWarning, id, field,
			fmt.Sprintf("value %.4f above expected ceiling %.0f", v, maxPricePerMillion))
	}
}

// ValidateCatalog validates every record plus the catalog's aggregates:
// model keys match model ids, and category counts, total_models and the
// number of models all agree.
func ValidateCatalog(cat *catalog.Catalog) *Result {
	r := &Result{}
	for _, key := range cat.ModelIDs() {
		m := cat.Models[key]
		if m == nil {
			r.add(SeverityError, key, "models", "null record")
			continue
		}
		if m.ModelID != key {
			r.add(SeverityError, key, "model_id",
				fmt.Sprintf("record id %q does not match its key", m.ModelID))
		}
		r.Issues = append(r.Issues, ValidateRecord(m).Issues...)
	}

	sum := 0
	for _, n := range cat.Metadata.Categories {
		sum += n
	}
	if cat.Metadata.TotalModels != len(cat.Models) {
		r.add(SeverityError, "catalog", "metadata.total_models",
			fmt.Sprintf("total_models %d but %d models present", cat.Metadata.TotalModels, len(cat.Models)))
	}
	if sum != len(cat.Models) {
		r.add(SeverityError, "catalog", "metadata.categories",
			fmt.Sprintf("categories sum to %d but %d models present", sum, len(cat.Models)))
	}
	if cat.GeneratedAt == "" {
		r.add(SeverityError, "catalog", "generated_at", "required field is empty")
	}
	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	if len(errors) > 0 {
		fmt.Fprintf(&b, "Errors (%d):\n", len(errors))
		for _, e := range errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(&b, "Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	return b.String()
}
