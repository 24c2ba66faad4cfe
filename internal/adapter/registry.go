package adapter

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]Adapter)
)

// Register adds a source adapter. Source packages call it from init, so
// importing a source package is enough to enable it.
func Register(a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	registry[a.Name()] = a
}

// Get returns the adapter registered for a source name.
func Get(name string) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()
	if a, ok := registry[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("unknown source: %s", name)
}

// Resolve returns the adapters for names, keeping their order. Order is
// merge priority, so duplicates are rejected.
func Resolve(names []string) ([]Adapter, error) {
	seen := make(map[string]bool, len(names))
	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("source %s listed twice", name)
		}
		seen[name] = true
		a, err := Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// List returns all registered source names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
