// Package feed holds the raw, source-shaped documents produced by the
// fetchers and consumed by the source adapters.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrShape reports a document whose data field is not the container kind the
// adapter expects (e.g. an object where a list was required).
var ErrShape = errors.New("unexpected data shape")

// Document is a raw feed snapshot as written by the fetch step.
type Document struct {
	Data       json.RawMessage `json:"data"`
	FetchedAt  string          `json:"fetched_at"`
	ModelCount int             `json:"model_count,omitempty"`
}

// Load reads and parses a raw feed document. A missing file or invalid JSON is
// fatal for the run, so the returned error always names the path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feed %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a raw feed document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Kind describes the JSON container kind of a raw value.
type Kind int

const (
	KindMissing Kind = iota
	KindNull
	KindList
	KindObject
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "scalar"
	}
}

// KindOf reports the container kind of a raw JSON value.
func KindOf(raw json.RawMessage) Kind {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return KindMissing
	}
	switch b[0] {
	case '[':
		return KindList
	case '{':
		return KindObject
	case 'n':
		return KindNull
	default:
		return KindScalar
	}
}

// FetchedAtOr returns the document's fetch timestamp, or now when the
// fetcher did not record one.
func (d *Document) FetchedAtOr(now time.Time) string {
	if d.FetchedAt != "" {
		return d.FetchedAt
	}
	return now.UTC().Format(time.RFC3339)
}
