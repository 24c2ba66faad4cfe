package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/everstacklabs/pricetracker/internal/feed"
	"github.com/everstacklabs/pricetracker/internal/httpclient"
)

var fixedNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		envelope  Envelope
		wantKind  feed.Kind
		wantCount int
	}{
		{"list under data", `{"data": [{"id": "a"}, {"id": "b"}]}`, EnvelopeData, feed.KindList, 2},
		{"bare object", `{"gpt-4o": {}, "sample_spec": {}, "claude": {}}`, EnvelopeNone, feed.KindObject, 3},
		{"data missing", `{"models": []}`, EnvelopeData, feed.KindMissing, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.body)
			doc, err := Fetch(context.Background(), httpclient.New(), Source{Name: "x", URL: srv.URL, Envelope: tt.envelope}, fixedNow)
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if got := feed.KindOf(doc.Data); got != tt.wantKind {
				t.Errorf("data kind = %s, want %s", got, tt.wantKind)
			}
			if doc.ModelCount != tt.wantCount {
				t.Errorf("model count = %d, want %d", doc.ModelCount, tt.wantCount)
			}
			if doc.FetchedAt != "2026-02-01T12:00:00Z" {
				t.Errorf("fetched_at = %q", doc.FetchedAt)
			}
		})
	}
}

func TestFetchInvalidJSON(t *testing.T) {
	srv := serve(t, `<html>rate limited</html>`)
	for _, env := range []Envelope{EnvelopeData, EnvelopeNone} {
		if _, err := Fetch(context.Background(), httpclient.New(), Source{Name: "x", URL: srv.URL, Envelope: env}, fixedNow); err == nil {
			t.Errorf("%s: expected error for a non-JSON body", env)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	srv := serve(t, `{"gpt-4o": {"input_cost_per_token": 0.0000025}}`)
	doc, err := Fetch(context.Background(), httpclient.New(), Source{Name: "litellm", URL: srv.URL, Envelope: EnvelopeNone}, fixedNow)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path, err := Save(dir, "litellm", doc)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(dir, "litellm.json") {
		t.Errorf("path = %q", path)
	}

	loaded, err := feed.Load(path)
	if err != nil {
		t.Fatalf("feed.Load: %v", err)
	}
	if loaded.FetchedAt != doc.FetchedAt || loaded.ModelCount != 1 {
		t.Errorf("loaded = %+v", loaded)
	}
	if feed.KindOf(loaded.Data) != feed.KindObject {
		t.Errorf("data kind = %s", feed.KindOf(loaded.Data))
	}
}
