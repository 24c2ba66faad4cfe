// Package affiliate decorates models with per-provider referral links and
// builds the provider directory of the published catalog.
package affiliate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/pricetracker/internal/catalog"
	"github.com/everstacklabs/pricetracker/internal/normalize"
)

// Entry is one provider's directory and referral data.
type Entry struct {
	Name          string `json:"name" yaml:"name"`
	Website       string `json:"website" yaml:"website"`
	PricingPage   string `json:"pricing_page" yaml:"pricing_page"`
	AffiliateLink string `json:"affiliate_link" yaml:"affiliate_link"`
}

// Config is the affiliates document, keyed by provider id.
type Config struct {
	Providers map[string]Entry `json:"providers" yaml:"providers"`
}

// Load reads the affiliate config. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading affiliates %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing affiliates %s: %w", path, err)
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]Entry{}
	}
	return &cfg, nil
}

// link returns the configured, non-empty referral link for a provider.
func (c *Config) link(provider string) (string, bool) {
	if c == nil {
		return "", false
	}
	e, ok := c.Providers[provider]
	if !ok || e.AffiliateLink == "" {
		return "", false
	}
	return e.AffiliateLink, true
}

// Enrich returns copies of models with affiliate links attached. A record
// whose provider is configured gets that provider's link and, under the
// primary source's key, the primary source's own link. Other records keep
// empty links. Enrich never fails and never drops a record.
func Enrich(models map[string]*catalog.ModelRecord, cfg *Config, primarySource string) map[string]*catalog.ModelRecord {
	out := make(map[string]*catalog.ModelRecord, len(models))
	for id, m := range models {
		c := m.Clone()
		c.AffiliateLinks = map[string]string{}

		provider := strings.ToLower(c.Provider)
		if link, ok := cfg.link(provider); ok {
			c.AffiliateLinks[provider] = link
			if primary, ok := cfg.link(primarySource); ok {
				c.AffiliateLinks[primarySource] = primary
			}
		}
		out[id] = c
	}
	return out
}

// Providers builds the catalog's provider directory. A missing name falls
// back to the title-cased provider id.
func Providers(cfg *Config) map[string]*catalog.ProviderInfo {
	out := map[string]*catalog.ProviderInfo{}
	if cfg == nil {
		return out
	}
	for id, e := range cfg.Providers {
		name := e.Name
		if name == "" {
			name = normalize.TitleCase(id)
		}
		out[id] = &catalog.ProviderInfo{
			Name:          name,
			Website:       e.Website,
			PricingPage:   e.PricingPage,
			AffiliateLink: e.AffiliateLink,
		}
	}
	return out
}
