// Package fetch downloads the upstream pricing feeds and stores them as raw
// feed documents for the normalize step.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/everstacklabs/pricetracker/internal/catalog"
	"github.com/everstacklabs/pricetracker/internal/feed"
	"github.com/everstacklabs/pricetracker/internal/httpclient"
)

// Envelope says where the model collection sits in an upstream response.
type Envelope string

const (
	// EnvelopeData responses carry the collection under a "data" field.
	EnvelopeData Envelope = "data"
	// EnvelopeNone responses are the bare collection.
	EnvelopeNone Envelope = "none"
)

// Source is one upstream feed to download.
type Source struct {
	Name     string
	URL      string
	Envelope Envelope
}

// Default upstream feeds.
var DefaultSources = []Source{
	{Name: "openrouter", URL: "https://openrouter.ai/api/v1/models", Envelope: EnvelopeData},
	{Name: "litellm", URL: "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json", Envelope: EnvelopeNone},
}

// Fetch downloads one feed and wraps it as a raw document stamped with the
// fetch time and the number of entries it holds.
func Fetch(ctx context.Context, client *httpclient.Client, src Source, now time.Time) (*feed.Document, error) {
	resp, err := client.Get(ctx, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src.Name, err)
	}

	doc, err := wrap(resp.Body, src.Envelope)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src.Name, err)
	}
	doc.FetchedAt = now.UTC().Format(time.RFC3339)

	slog.Info("feed fetched", "source", src.Name, "models", doc.ModelCount, "from_cache", resp.FromCache)
	return doc, nil
}

func wrap(body []byte, env Envelope) (*feed.Document, error) {
	var data json.RawMessage
	switch env {
	case EnvelopeData:
		var outer struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &outer); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		data = outer.Data
	case EnvelopeNone, "":
		if !json.Valid(body) {
			return nil, fmt.Errorf("decoding response: invalid JSON")
		}
		data = json.RawMessage(body)
	default:
		return nil, fmt.Errorf("unknown envelope %q", env)
	}

	return &feed.Document{Data: data, ModelCount: count(data)}, nil
}

// count returns the number of list elements or object keys in data.
func count(data json.RawMessage) int {
	switch feed.KindOf(data) {
	case feed.KindList:
		var items []json.RawMessage
		if json.Unmarshal(data, &items) == nil {
			return len(items)
		}
	case feed.KindObject:
		var entries map[string]json.RawMessage
		if json.Unmarshal(data, &entries) == nil {
			return len(entries)
		}
	}
	return 0
}

// Save writes a raw document to dir/<name>.json.
func Save(dir, name string, doc *feed.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding %s feed: %w", name, err)
	}
	path := filepath.Join(dir, name+".json")
	if err := catalog.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("saving %s feed: %w", name, err)
	}
	return path, nil
}
