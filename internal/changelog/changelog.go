// Package changelog detects price movements and catalog membership changes
// between two consecutive catalogs.
package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/pricetracker/internal/catalog"
)

// LatestFile is the changelog file that always holds the most recent run.
const LatestFile = "latest.json"

var typeOrder = map[ChangeType]int{
	PriceDecrease: 0,
	PriceIncrease: 1,
	NewModel:      2,
	RemovedModel:  3,
}

// Compute compares the previous catalog against the current one. A nil
// previous catalog is treated as empty, so every model is new.
func Compute(prev, cur *catalog.Catalog, now time.Time) *ChangeSet {
	cs := &ChangeSet{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Changes:     []Change{},
	}

	var prevModels map[string]*catalog.ModelRecord
	if prev != nil {
		prevModels = prev.Models
	}

	for id, m := range cur.Models {
		old, ok := prevModels[id]
		if !ok {
			pricing := m.Pricing
			cs.Changes = append(cs.Changes, Change{
				ChangeType:  NewModel,
				ModelID:     id,
				DisplayName: m.DisplayName,
				Provider:    m.Provider,
				Pricing:     &pricing,
			})
			continue
		}
		cs.Changes = appendPriceChange(cs.Changes, m, FieldInput, old.Pricing.InputPerMillion, m.Pricing.InputPerMillion)
		cs.Changes = appendPriceChange(cs.Changes, m, FieldOutput, old.Pricing.OutputPerMillion, m.Pricing.OutputPerMillion)
	}

	for id, old := range prevModels {
		if _, ok := cur.Models[id]; !ok {
			cs.Changes = append(cs.Changes, Change{
				ChangeType:  RemovedModel,
				ModelID:     id,
				DisplayName: old.DisplayName,
				Provider:    old.Provider,
			})
		}
	}

	sort.Slice(cs.Changes, func(i, j int) bool {
		a, b := cs.Changes[i], cs.Changes[j]
		if a.ChangeType != b.ChangeType {
			return typeOrder[a.ChangeType] < typeOrder[b.ChangeType]
		}
		if a.ModelID != b.ModelID {
			return a.ModelID < b.ModelID
		}
		return a.Field < b.Field
	})

	for _, c := range cs.Changes {
		switch c.ChangeType {
		case PriceDecrease:
			cs.Summary.PriceDecreases++
		case PriceIncrease:
			cs.Summary.PriceIncreases++
		case NewModel:
			cs.Summary.NewModels++
		case RemovedModel:
			cs.Summary.RemovedModels++
		}
	}
	return cs
}

func appendPriceChange(changes []Change, m *catalog.ModelRecord, field string, oldVal, newVal float64) []Change {
	if oldVal == newVal {
		return changes
	}
	t := PriceIncrease
	if newVal < oldVal {
		t = PriceDecrease
	}
	return append(changes, Change{
		ChangeType:    t,
		ModelID:       m.ModelID,
		DisplayName:   m.DisplayName,
		Provider:      m.Provider,
		Field:         field,
		OldValue:      &oldVal,
		NewValue:      &newVal,
		PercentChange: percentChange(oldVal, newVal),
	})
}

// percentChange is relative to the old value, rounded to two decimals. A
// move away from a free price has no meaningful percentage and reports 0.
func percentChange(oldVal, newVal float64) float64 {
	if oldVal == 0 {
		return 0
	}
	o := decimal.NewFromFloat(oldVal)
	n := decimal.NewFromFloat(newVal)
	pct, _ := n.Sub(o).Div(o).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}

// Write stores the changeset as <dir>/<YYYY-MM-DD>.json and <dir>/latest.json.
func Write(dir string, cs *ChangeSet) error {
	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding changelog: %w", err)
	}
	data = append(data, '\n')

	ts, err := time.Parse(time.RFC3339, cs.GeneratedAt)
	if err != nil {
		return fmt.Errorf("changelog timestamp %q: %w", cs.GeneratedAt, err)
	}

	dated := filepath.Join(dir, ts.UTC().Format(time.DateOnly)+".json")
	for _, path := range []string{dated, filepath.Join(dir, LatestFile)} {
		if err := catalog.WriteFileAtomic(path, data); err != nil {
			return fmt.Errorf("writing changelog %s: %w", path, err)
		}
	}
	return nil
}

// Load reads a changelog file.
func Load(path string) (*ChangeSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading changelog %s: %w", path, err)
	}
	var cs ChangeSet
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parsing changelog %s: %w", path, err)
	}
	return &cs, nil
}
