package adapter

import (
	"log/slog"
	"time"

	"github.com/everstacklabs/pricetracker/internal/catalog"
	"github.com/everstacklabs/pricetracker/internal/feed"
	"github.com/everstacklabs/pricetracker/internal/validate"
)

// Adapter turns one upstream feed shape into normalized model records.
type Adapter interface {
	// Name returns the source name (e.g., "openrouter"). It is also the key
	// the adapter's observations are recorded under.
	Name() string
	// Normalize converts a raw document. Per-item problems are logged and
	// skipped. A document whose data field has the wrong container kind
	// yields an empty result and an error wrapping feed.ErrShape.
	Normalize(doc *feed.Document, now time.Time) (*Result, error)
}

// Thresholder is an optional interface adapters can implement to flag runs
// that produced suspiciously few models.
type Thresholder interface {
	// MinExpectedModels returns the minimum number of models expected from this source.
	MinExpectedModels() int
}

// Result is the outcome of normalizing one feed.
type Result struct {
	Source string
	Models map[string]*catalog.ModelRecord
	// Skipped counts items dropped because they were malformed.
	Skipped int
	// Rejected counts well-formed items excluded by source policy.
	Rejected int
}

// NewResult returns an empty result for source.
func NewResult(source string) *Result {
	return &Result{Source: source, Models: make(map[string]*catalog.ModelRecord)}
}

// Add stores m unless it breaks a record invariant. A record that fails
// validation is logged and counted as skipped so that it cannot fail the
// whole catalog later.
func (r *Result) Add(m *catalog.ModelRecord) bool {
	if v := validate.ValidateRecord(m); v.HasErrors() {
		for _, issue := range v.Errors() {
			slog.Warn("skipping invalid model", "source", r.Source,
				"id", m.ModelID, "field", issue.Field, "error", issue.Message)
		}
		r.Skipped++
		return false
	}
	r.Models[m.ModelID] = m
	return true
}
