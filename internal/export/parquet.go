// Package export writes the catalog as a flat table for analytics tools.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/everstacklabs/pricetracker/internal/catalog"
)

// Row is one model in the exported table.
type Row struct {
	ModelID                 string  `parquet:"name=model_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Provider                string  `parquet:"name=provider, type=BYTE_ARRAY, convertedtype=UTF8"`
	DisplayName             string  `parquet:"name=display_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ModelType               string  `parquet:"name=model_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Category                string  `parquet:"name=category, type=BYTE_ARRAY, convertedtype=UTF8"`
	InputPerMillion         float64 `parquet:"name=input_per_million, type=DOUBLE"`
	OutputPerMillion        float64 `parquet:"name=output_per_million, type=DOUBLE"`
	Currency                string  `parquet:"name=currency, type=BYTE_ARRAY, convertedtype=UTF8"`
	ContextWindow           int64   `parquet:"name=context_window, type=INT64"`
	MaxOutputTokens         int64   `parquet:"name=max_output_tokens, type=INT64"`
	SupportsVision          bool    `parquet:"name=supports_vision, type=BOOLEAN"`
	SupportsFunctionCalling bool    `parquet:"name=supports_function_calling, type=BOOLEAN"`
	SupportsStreaming       bool    `parquet:"name=supports_streaming, type=BOOLEAN"`
	Sources                 string  `parquet:"name=sources, type=BYTE_ARRAY, convertedtype=UTF8"`
	GeneratedAt             string  `parquet:"name=generated_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Rows flattens a catalog into rows sorted by model id. Sources are
// comma-joined in sorted order.
func Rows(cat *catalog.Catalog) []Row {
	rows := make([]Row, 0, len(cat.Models))
	for _, id := range cat.ModelIDs() {
		m := cat.Models[id]
		sources := make([]string, 0, len(m.Sources))
		for s := range m.Sources {
			sources = append(sources, s)
		}
		sort.Strings(sources)

		rows = append(rows, Row{
			ModelID:                 id,
			Provider:                m.Provider,
			DisplayName:             m.DisplayName,
			ModelType:               m.ModelType,
			Category:                m.Category,
			InputPerMillion:         m.Pricing.InputPerMillion,
			OutputPerMillion:        m.Pricing.OutputPerMillion,
			Currency:                m.Pricing.Currency,
			ContextWindow:           int64(m.ContextWindow),
			MaxOutputTokens:         int64(m.MaxOutputTokens),
			SupportsVision:          m.SupportsVision,
			SupportsFunctionCalling: m.SupportsFunctionCalling,
			SupportsStreaming:       m.SupportsStreaming,
			Sources:                 strings.Join(sources, ","),
			GeneratedAt:             cat.GeneratedAt,
		})
	}
	return rows
}

// WriteParquet writes the catalog to path as a snappy-compressed parquet
// file. The file is written next to path and renamed into place.
func WriteParquet(path string, cat *catalog.Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	tmp := path + ".tmp"
	defer func() { _ = os.Remove(tmp) }()

	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(Row), 1)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range Rows(cat) {
		if err := pw.Write(row); err != nil {
			_ = fw.Close()
			return fmt.Errorf("writing row %s: %w", row.ModelID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("finishing parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
