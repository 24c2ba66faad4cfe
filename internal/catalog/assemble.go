package catalog

import "time"

// Assemble builds the published catalog from the final, enriched model set.
// It only aggregates: records are referenced as-is and never modified.
func Assemble(models map[string]*ModelRecord, providers map[string]*ProviderInfo, sources []string, now time.Time) *Catalog {
	generatedAt := now.UTC().Format(time.RFC3339)

	if models == nil {
		models = make(map[string]*ModelRecord)
	}
	if providers == nil {
		providers = make(map[string]*ProviderInfo)
	}

	srcs := make([]string, len(sources))
	copy(srcs, sources)

	return &Catalog{
		GeneratedAt: generatedAt,
		Models:      models,
		Providers:   providers,
		Metadata: Metadata{
			TotalModels: len(models),
			Sources:     srcs,
			LastScrape:  generatedAt,
			Categories:  CategoryCounts(models),
		},
	}
}

// CategoryCounts returns how many records carry each category value.
// Only categories actually present appear as keys.
func CategoryCounts(models map[string]*ModelRecord) map[string]int {
	counts := make(map[string]int)
	for _, m := range models {
		counts[m.Category]++
	}
	return counts
}
