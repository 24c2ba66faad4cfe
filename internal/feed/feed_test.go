package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		set     bool
		raw     string
		wantErr bool
	}{
		{`"0.000005"`, true, "0.000005", false},
		{`0.000005`, true, "0.000005", false},
		{`1e-06`, true, "1e-06", false},
		{`null`, false, "", false},
		{`""`, false, "", false},
		{`" 3 "`, true, "3", false},
		{`"abc"`, true, "abc", false}, // rejected later, at conversion
		{`true`, false, "", true},
		{`{}`, false, "", true},
		{`[1]`, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n Number
			err := json.Unmarshal([]byte(tt.in), &n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if n.IsSet() != tt.set || n.String() != tt.raw {
				t.Errorf("Unmarshal(%s) = {set:%v raw:%q}, want {set:%v raw:%q}", tt.in, n.IsSet(), n.String(), tt.set, tt.raw)
			}
		})
	}
}

func TestNumberMissingFieldIsUnset(t *testing.T) {
	var item struct {
		Price Number `json:"price"`
	}
	if err := json.Unmarshal([]byte(`{}`), &item); err != nil {
		t.Fatal(err)
	}
	d, err := item.Price.Decimal()
	if err != nil || !d.IsZero() {
		t.Errorf("missing number = %v, %v; want 0, nil", d, err)
	}
}

func TestNumberInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{`128000`, 128000, false},
		{`"128000"`, 128000, false},
		{`128000.0`, 128000, false},
		{`4096.7`, 4096, false},
		{`"4096.7"`, 0, true},
		{`"lots"`, 0, true},
		{`null`, 0, false},
		{`-1`, 0, true},
		{`"-4096"`, 0, true},
		{`-0.5`, 0, false},
		{`2147483647`, 2147483647, false},
		{`2147483648`, 0, true},
		{`1e30`, 0, true},
		{`"99999999999999999999999"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n Number
			if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
				t.Fatal(err)
			}
			got, err := n.Int()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Int() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Int() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNumberMarshalPreservesForm(t *testing.T) {
	var v struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"0.5","b":2,"c":null}`), &v); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":"0.5","b":2,"c":null}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{``, KindMissing},
		{`null`, KindNull},
		{` [1,2]`, KindList},
		{`{"a":1}`, KindObject},
		{`"x"`, KindScalar},
		{`42`, KindScalar},
	}
	for _, tt := range tests {
		if got := KindOf(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("KindOf(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "openrouter.json")
	os.WriteFile(good, []byte(`{"data":[{"id":"x"}],"fetched_at":"2025-01-01T00:00:00Z","model_count":1}`), 0o644)

	doc, err := Load(good)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.FetchedAt != "2025-01-01T00:00:00Z" || doc.ModelCount != 1 {
		t.Errorf("doc = %+v", doc)
	}
	if KindOf(doc.Data) != KindList {
		t.Errorf("data kind = %s, want list", KindOf(doc.Data))
	}

	bad := filepath.Join(dir, "litellm.json")
	os.WriteFile(bad, []byte(`{"data": {`), 0o644)
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("invalid JSON error should name path, got %v", err)
	}

	missing := filepath.Join(dir, "missing.json")
	if _, err := Load(missing); err == nil || !strings.Contains(err.Error(), missing) {
		t.Errorf("missing file error should name path, got %v", err)
	}
}

func TestFetchedAtOr(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := (&Document{}).FetchedAtOr(now); got != "2025-06-01T12:00:00Z" {
		t.Errorf("FetchedAtOr fallback = %q", got)
	}
	if got := (&Document{FetchedAt: "x"}).FetchedAtOr(now); got != "x" {
		t.Errorf("FetchedAtOr = %q, want x", got)
	}
}
