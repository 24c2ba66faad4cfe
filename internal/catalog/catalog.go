package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Load reads a published catalog document from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if cat.Models == nil {
		cat.Models = make(map[string]*ModelRecord)
	}
	if cat.Providers == nil {
		cat.Providers = make(map[string]*ProviderInfo)
	}
	return &cat, nil
}

// ModelIDs returns the catalog's model ids in sorted order.
func (c *Catalog) ModelIDs() []string {
	ids := make([]string, 0, len(c.Models))
	for id := range c.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProviderCounts returns the number of models per provider.
func (c *Catalog) ProviderCounts() map[string]int {
	counts := make(map[string]int)
	for _, m := range c.Models {
		counts[m.Provider]++
	}
	return counts
}
