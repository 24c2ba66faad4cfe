package catalog

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ManifestProvider describes a provider entry in the manifest.
type ManifestProvider struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name,omitempty"`
	Models     int            `yaml:"models"`
	Categories map[string]int `yaml:"categories,omitempty"`
}

// ManifestStats holds aggregate counts.
type ManifestStats struct {
	TotalProviders int `yaml:"total_providers"`
	TotalModels    int `yaml:"total_models"`
	FreeModels     int `yaml:"free_models"`
}

// Manifest summarizes a catalog per provider (manifest.yaml).
type Manifest struct {
	GeneratedAt   string             `yaml:"generated_at"`
	SchemaVersion string             `yaml:"schema_version"`
	Sources       []string           `yaml:"sources"`
	Providers     []ManifestProvider `yaml:"providers"`
	Stats         ManifestStats      `yaml:"stats"`
}

const manifestHeader = "# Model Price Catalog Manifest\n# Auto-generated - DO NOT EDIT MANUALLY\n# Run: pricetracker normalize to regenerate\n\n"

// BuildManifest computes the manifest for a catalog.
func BuildManifest(cat *Catalog) *Manifest {
	byProvider := make(map[string]*ManifestProvider)
	free := 0

	for _, m := range cat.Models {
		mp, ok := byProvider[m.Provider]
		if !ok {
			mp = &ManifestProvider{ID: m.Provider, Categories: make(map[string]int)}
			if info, ok := cat.Providers[m.Provider]; ok {
				mp.Name = info.Name
			}
			byProvider[m.Provider] = mp
		}
		mp.Models++
		mp.Categories[m.Category]++

		if m.Pricing.InputPerMillion == 0 && m.Pricing.OutputPerMillion == 0 {
			free++
		}
	}

	providers := make([]ManifestProvider, 0, len(byProvider))
	for _, mp := range byProvider {
		providers = append(providers, *mp)
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].ID < providers[j].ID
	})

	return &Manifest{
		GeneratedAt:   cat.GeneratedAt,
		SchemaVersion: "1.0",
		Sources:       cat.Metadata.Sources,
		Providers:     providers,
		Stats: ManifestStats{
			TotalProviders: len(providers),
			TotalModels:    len(cat.Models),
			FreeModels:     free,
		},
	}
}

// WriteManifest writes manifest.yaml for the catalog to path.
func WriteManifest(path string, cat *Catalog) error {
	data, err := yaml.Marshal(BuildManifest(cat))
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return WriteFileAtomic(path, append([]byte(manifestHeader), data...))
}
