package adapter

import (
	"testing"
	"time"

	"github.com/everstacklabs/pricetracker/internal/feed"
)

type stubAdapter string

func (s stubAdapter) Name() string { return string(s) }

func (s stubAdapter) Normalize(*feed.Document, time.Time) (*Result, error) {
	return NewResult(string(s)), nil
}

func TestRegistry(t *testing.T) {
	Register(stubAdapter("stub-b"))
	Register(stubAdapter("stub-a"))

	if _, err := Get("stub-a"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := Get("missing"); err == nil {
		t.Error("expected error for unknown source")
	}

	names := List()
	ia, ib := -1, -1
	for i, n := range names {
		switch n {
		case "stub-a":
			ia = i
		case "stub-b":
			ib = i
		}
	}
	if ia < 0 || ib < 0 || ia > ib {
		t.Errorf("List() = %v", names)
	}
}

func TestResolve(t *testing.T) {
	Register(stubAdapter("stub-x"))
	Register(stubAdapter("stub-y"))

	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"keeps priority order", []string{"stub-y", "stub-x"}, []string{"stub-y", "stub-x"}, false},
		{"unknown source", []string{"stub-x", "nope"}, nil, true},
		{"duplicate source", []string{"stub-x", "stub-x"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d adapters, want %d", len(got), len(tt.want))
			}
			for i, a := range got {
				if a.Name() != tt.want[i] {
					t.Errorf("adapter %d = %s, want %s", i, a.Name(), tt.want[i])
				}
			}
		})
	}
}
