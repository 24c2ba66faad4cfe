// Package merge unions per-source model maps into one catalog.
//
// The first source is trusted for capabilities: on an id collision the
// later source only contributes its own price observations.
package merge

import (
	"fmt"

	"github.com/everstacklabs/pricetracker/internal/catalog"
)

// Strategy controls what a lower-priority source may contribute to a record
// that a higher-priority source already produced.
type Strategy string

const (
	// StrategyPrimary copies only the secondary's source observations.
	StrategyPrimary Strategy = "primary"
	// StrategyFillGaps additionally fills token limits the primary left at
	// zero. Pricing, category and capability flags still never change.
	StrategyFillGaps Strategy = "fill-gaps"
)

// ParseStrategy validates a configured strategy name. Empty means primary.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyPrimary:
		return StrategyPrimary, nil
	case StrategyFillGaps:
		return StrategyFillGaps, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q (want %s or %s)", s, StrategyPrimary, StrategyFillGaps)
	}
}

// Merge combines primary and secondary with the primary strategy.
func Merge(primary, secondary map[string]*catalog.ModelRecord) map[string]*catalog.ModelRecord {
	return StrategyPrimary.Merge(primary, secondary)
}

// Merge combines two model maps. Neither input is mutated; the result holds
// copies, and every id from either input appears exactly once.
func (s Strategy) Merge(primary, secondary map[string]*catalog.ModelRecord) map[string]*catalog.ModelRecord {
	merged := make(map[string]*catalog.ModelRecord, len(primary)+len(secondary))
	for id, m := range primary {
		merged[id] = m.Clone()
	}

	for id, m := range secondary {
		existing, ok := merged[id]
		if !ok {
			merged[id] = m.Clone()
			continue
		}
		for source, obs := range m.Sources {
			existing.Sources[source] = obs
		}
		if s == StrategyFillGaps {
			fillGaps(existing, m)
		}
	}
	return merged
}

// All folds the given maps in priority order, highest first.
func (s Strategy) All(ordered ...map[string]*catalog.ModelRecord) map[string]*catalog.ModelRecord {
	merged := map[string]*catalog.ModelRecord{}
	for _, models := range ordered {
		merged = s.Merge(merged, models)
	}
	return merged
}

func fillGaps(dst, src *catalog.ModelRecord) {
	if dst.ContextWindow == 0 {
		dst.ContextWindow = src.ContextWindow
	}
	if dst.MaxOutputTokens == 0 {
		dst.MaxOutputTokens = src.MaxOutputTokens
	}
}
