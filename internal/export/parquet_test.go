package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/everstacklabs/pricetracker/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	models := map[string]*catalog.ModelRecord{
		"openai/gpt-4o": {
			ModelID: "openai/gpt-4o", Provider: "openai", DisplayName: "GPT-4o",
			Pricing:       catalog.PricingInfo{InputPerMillion: 2.5, OutputPerMillion: 10, Currency: catalog.CurrencyUSD},
			ContextWindow: 128000, MaxOutputTokens: 16384,
			ModelType: catalog.TypeChat, Category: catalog.CategoryFlagship,
			SupportsVision: true, SupportsFunctionCalling: true, SupportsStreaming: true,
			Sources: map[string]catalog.SourceObservation{"openrouter": {}, "litellm": {}},
		},
		"text-embedding-3-small": {
			ModelID: "text-embedding-3-small", Provider: "openai", DisplayName: "Text Embedding 3 Small",
			Pricing:   catalog.PricingInfo{InputPerMillion: 0.02, Currency: catalog.CurrencyUSD},
			ModelType: catalog.TypeEmbedding, Category: catalog.CategoryEmbedding,
			Sources: map[string]catalog.SourceObservation{"litellm": {}},
		},
	}
	return catalog.Assemble(models, nil, []string{"openrouter", "litellm"}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestRows(t *testing.T) {
	rows := Rows(testCatalog())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ModelID != "openai/gpt-4o" || rows[1].ModelID != "text-embedding-3-small" {
		t.Errorf("rows not sorted: %s, %s", rows[0].ModelID, rows[1].ModelID)
	}
	if rows[0].Sources != "litellm,openrouter" {
		t.Errorf("sources = %q", rows[0].Sources)
	}
	if rows[0].GeneratedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("generated_at = %q", rows[0].GeneratedAt)
	}
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "prices.parquet")
	if err := WriteParquet(path, testCatalog()); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("opening parquet: %v", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(Row), 1)
	if err != nil {
		t.Fatalf("reading parquet: %v", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	rows := make([]Row, n)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if rows[0].ModelID != "openai/gpt-4o" || rows[0].InputPerMillion != 2.5 || !rows[0].SupportsVision {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Category != catalog.CategoryEmbedding || rows[1].ContextWindow != 0 {
		t.Errorf("row 1 = %+v", rows[1])
	}
}
