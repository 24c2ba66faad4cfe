package changelog

import (
	"math"

	"github.com/everstacklabs/pricetracker/internal/catalog"
)

// ChangeType classifies one changelog entry.
type ChangeType string

const (
	PriceDecrease ChangeType = "price_decrease"
	PriceIncrease ChangeType = "price_increase"
	NewModel      ChangeType = "new_model"
	RemovedModel  ChangeType = "removed_model"
)

// Price fields tracked between runs.
const (
	FieldInput  = "input_per_million"
	FieldOutput = "output_per_million"
)

// Change is one entry of the changelog. Price changes carry field, old and
// new values; new models carry their pricing.
type Change struct {
	ChangeType    ChangeType           `json:"change_type"`
	ModelID       string               `json:"model_id"`
	DisplayName   string               `json:"display_name"`
	Provider      string               `json:"provider"`
	Field         string               `json:"field,omitempty"`
	OldValue      *float64             `json:"old_value,omitempty"`
	NewValue      *float64             `json:"new_value,omitempty"`
	PercentChange float64              `json:"percent_change,omitempty"`
	Pricing       *catalog.PricingInfo `json:"pricing,omitempty"`
}

// Summary counts changes by type.
type Summary struct {
	PriceDecreases int `json:"price_decreases"`
	PriceIncreases int `json:"price_increases"`
	NewModels      int `json:"new_models"`
	RemovedModels  int `json:"removed_models"`
}

// ChangeSet is the diff between two consecutive catalogs.
type ChangeSet struct {
	GeneratedAt string   `json:"generated_at"`
	Summary     Summary  `json:"summary"`
	Changes     []Change `json:"changes"`
}

// HasChanges reports whether anything changed between the two catalogs.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.Changes) > 0
}

// ByType returns the changes of one type, in changeset order.
func (cs *ChangeSet) ByType(t ChangeType) []Change {
	var out []Change
	for _, c := range cs.Changes {
		if c.ChangeType == t {
			out = append(out, c)
		}
	}
	return out
}

// Thresholds above which a catalog update PR opens as a draft.
const (
	maxQuietChanges  = 25
	maxQuietRemovals = 3
	maxQuietPercent  = 35.0
)

// NeedsReview reports whether the changeset is large or volatile enough that
// a catalog update PR should open as a draft.
func (cs *ChangeSet) NeedsReview() bool {
	if len(cs.Changes) > maxQuietChanges {
		return true
	}
	if cs.Summary.RemovedModels > maxQuietRemovals {
		return true
	}
	for _, c := range cs.Changes {
		if math.Abs(c.PercentChange) > maxQuietPercent {
			return true
		}
	}
	return false
}
