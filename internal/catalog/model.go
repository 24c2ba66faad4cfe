package catalog

// Model categories.
const (
	CategoryFlagship  = "flagship"
	CategoryStandard  = "standard"
	CategoryBudget    = "budget"
	CategoryCode      = "code"
	CategoryEmbedding = "embedding"
)

// Model types.
const (
	TypeChat            = "chat"
	TypeImage           = "image"
	TypeImageGeneration = "image_generation"
	TypeEmbedding       = "embedding"
	TypeAudio           = "audio"
	TypeVideo           = "video"
	TypeRerank          = "rerank"
)

// CurrencyUSD is the only currency prices are normalized to.
const CurrencyUSD = "USD"

// PricingInfo is the authoritative price of a model, in USD per million tokens.
type PricingInfo struct {
	InputPerMillion  float64 `json:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million"`
	Currency         string  `json:"currency"`
}

// SourceObservation is what a single upstream feed reported for a model.
type SourceObservation struct {
	PriceInput  float64 `json:"price_input"`
	PriceOutput float64 `json:"price_output"`
	ObservedAt  string  `json:"last_updated"`
}

// ModelRecord is the canonical, merged description of one model.
type ModelRecord struct {
	Provider                string                       `json:"provider"`
	ModelID                 string                       `json:"model_id"`
	DisplayName             string                       `json:"display_name"`
	Pricing                 PricingInfo                  `json:"pricing"`
	ContextWindow           int                          `json:"context_window"`
	MaxOutputTokens         int                          `json:"max_output_tokens"`
	ModelType               string                       `json:"model_type"`
	SupportsVision          bool                         `json:"supports_vision"`
	SupportsFunctionCalling bool                         `json:"supports_function_calling"`
	SupportsStreaming       bool                         `json:"supports_streaming"`
	Category                string                       `json:"category"`
	Sources                 map[string]SourceObservation `json:"sources"`
	AffiliateLinks          map[string]string            `json:"affiliate_links"`
}

// Clone returns a deep copy of the record.
func (m *ModelRecord) Clone() *ModelRecord {
	c := *m
	c.Sources = make(map[string]SourceObservation, len(m.Sources))
	for k, v := range m.Sources {
		c.Sources[k] = v
	}
	c.AffiliateLinks = make(map[string]string, len(m.AffiliateLinks))
	for k, v := range m.AffiliateLinks {
		c.AffiliateLinks[k] = v
	}
	return &c
}

// ProviderInfo describes a provider in the published catalog.
type ProviderInfo struct {
	Name          string `json:"name"`
	Website       string `json:"website"`
	PricingPage   string `json:"pricing_page"`
	AffiliateLink string `json:"affiliate_link"`
}

// Metadata holds aggregate figures about a catalog.
type Metadata struct {
	TotalModels int            `json:"total_models"`
	Sources     []string       `json:"sources"`
	LastScrape  string         `json:"last_scrape"`
	Categories  map[string]int `json:"categories"`
}

// Catalog is the full published snapshot (prices.json).
type Catalog struct {
	GeneratedAt string                   `json:"generated_at"`
	Models      map[string]*ModelRecord  `json:"models"`
	Providers   map[string]*ProviderInfo `json:"providers"`
	Metadata    Metadata                 `json:"metadata"`
}
