package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/everstacklabs/pricetracker/internal/adapter"
	"github.com/everstacklabs/pricetracker/internal/affiliate"
	"github.com/everstacklabs/pricetracker/internal/catalog"
	"github.com/everstacklabs/pricetracker/internal/changelog"
	"github.com/everstacklabs/pricetracker/internal/config"
	"github.com/everstacklabs/pricetracker/internal/export"
	"github.com/everstacklabs/pricetracker/internal/feed"
	"github.com/everstacklabs/pricetracker/internal/merge"
	"github.com/everstacklabs/pricetracker/internal/metrics"
	"github.com/everstacklabs/pricetracker/internal/validate"
)

// ExitCode constants for CLI.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitChanges      = 2 // Changes detected (diff mode)
	ExitInvalid      = 3 // Catalog failed validation
	ExitSourceHealth = 4 // Sources produced nothing usable
)

var (
	// ErrInvalidCatalog is returned when the assembled catalog fails validation.
	ErrInvalidCatalog = errors.New("catalog failed validation")
	// ErrEmptyCatalog is returned when a run would replace a populated
	// catalog with an empty one.
	ErrEmptyCatalog = errors.New("no models normalized")
)

// Pipeline orchestrates the normalize workflow and its collaborators.
type Pipeline struct {
	cfg     *config.Config
	now     func() time.Time
	metrics *metrics.Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a new Pipeline.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Metrics exposes the run's recorder.
func (p *Pipeline) Metrics() *metrics.Recorder {
	return p.metrics
}

// SourceReport is the outcome of one adapter.
type SourceReport struct {
	Name     string
	Models   int
	Skipped  int
	Rejected int
	// Err is set when the document had the wrong shape.
	Err error
	// BelowThreshold is set when the adapter produced fewer models than
	// it expects from a healthy feed.
	BelowThreshold bool
}

// Report is the outcome of a normalize run.
type Report struct {
	Catalog    *catalog.Catalog
	Previous   *catalog.Catalog
	ChangeSet  *changelog.ChangeSet
	Validation *validate.Result
	Sources    []SourceReport
	// Written lists the files the run produced, empty on dry runs.
	Written []string
}

// Healthy reports whether every source produced a usable result.
func (r *Report) Healthy() bool {
	for _, s := range r.Sources {
		if s.Err != nil || s.BelowThreshold {
			return false
		}
	}
	return true
}

// Normalize turns the raw feed documents into the published catalog. Any
// missing or unparsable input aborts the run before a file is written.
func (p *Pipeline) Normalize(ctx context.Context) (*Report, error) {
	now := p.now()

	adapters, docs, err := p.loadInputs()
	if err != nil {
		return nil, err
	}
	affiliates, err := p.loadAffiliates()
	if err != nil {
		return nil, err
	}

	results, reports, err := p.runAdapters(ctx, adapters, docs, now)
	if err != nil {
		return nil, err
	}

	strategy, err := merge.ParseStrategy(p.cfg.Merge.Strategy)
	if err != nil {
		return nil, err
	}
	ordered := make([]map[string]*catalog.ModelRecord, len(results))
	for i, r := range results {
		ordered[i] = r.Models
	}
	merged := strategy.All(ordered...)

	models := affiliate.Enrich(merged, affiliates, p.cfg.Sources[0])
	cat := catalog.Assemble(models, affiliate.Providers(affiliates), p.cfg.Sources, now)

	rep := &Report{Catalog: cat, Sources: reports}

	rep.Validation = validate.ValidateCatalog(cat)
	for _, w := range rep.Validation.Warnings() {
		slog.Warn("validation warning", "model", w.Model, "field", w.Field, "message", w.Message)
	}
	if rep.Validation.HasErrors() {
		return rep, fmt.Errorf("%w:\n%s", ErrInvalidCatalog, validate.FormatResult(rep.Validation))
	}

	rep.Previous = p.loadPrevious()
	if len(cat.Models) == 0 && rep.Previous != nil && len(rep.Previous.Models) > 0 {
		return rep, fmt.Errorf("%w: refusing to replace %d-model catalog", ErrEmptyCatalog, len(rep.Previous.Models))
	}
	rep.ChangeSet = changelog.Compute(rep.Previous, cat, now)

	slog.Info("catalog assembled",
		"models", cat.Metadata.TotalModels,
		"providers", len(cat.Providers),
		"changes", len(rep.ChangeSet.Changes))

	p.metrics.SetCatalogModels(cat.Metadata.TotalModels)
	s := rep.ChangeSet.Summary
	p.metrics.AddChanges(string(changelog.PriceDecrease), s.PriceDecreases)
	p.metrics.AddChanges(string(changelog.PriceIncrease), s.PriceIncreases)
	p.metrics.AddChanges(string(changelog.NewModel), s.NewModels)
	p.metrics.AddChanges(string(changelog.RemovedModel), s.RemovedModels)

	if p.cfg.DryRun {
		slog.Info("dry run, nothing written", "output", p.cfg.OutputPath)
		return rep, nil
	}

	written, err := p.write(rep, now)
	rep.Written = written
	if err != nil {
		return rep, err
	}
	return rep, nil
}

// loadInputs resolves the adapters and reads their raw documents, in
// priority order.
func (p *Pipeline) loadInputs() ([]adapter.Adapter, []*feed.Document, error) {
	adapters, err := adapter.Resolve(p.cfg.Sources)
	if err != nil {
		return nil, nil, err
	}
	docs := make([]*feed.Document, len(adapters))
	for i, a := range adapters {
		doc, err := feed.Load(p.cfg.RawPath(a.Name()))
		if err != nil {
			return nil, nil, err
		}
		docs[i] = doc
	}
	return adapters, docs, nil
}

// loadAffiliates reads the affiliate config. A missing file means no
// enrichment.
func (p *Pipeline) loadAffiliates() (*affiliate.Config, error) {
	if p.cfg.AffiliatesPath == "" {
		return &affiliate.Config{Providers: map[string]affiliate.Entry{}}, nil
	}
	cfg, err := affiliate.Load(p.cfg.AffiliatesPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no affiliate config", "path", p.cfg.AffiliatesPath)
		return &affiliate.Config{Providers: map[string]affiliate.Entry{}}, nil
	}
	return cfg, err
}

// loadPrevious reads the catalog of the last run, or nil if there is none.
func (p *Pipeline) loadPrevious() *catalog.Catalog {
	prev, err := catalog.Load(p.cfg.OutputPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("previous catalog unreadable, treating as empty", "path", p.cfg.OutputPath, "error", err)
		}
		return nil
	}
	return prev
}

// runAdapters normalizes every document concurrently. Each adapter reads
// only its own document and returns a fresh map.
func (p *Pipeline) runAdapters(ctx context.Context, adapters []adapter.Adapter, docs []*feed.Document, now time.Time) ([]*adapter.Result, []SourceReport, error) {
	results := make([]*adapter.Result, len(adapters))
	reports := make([]SourceReport, len(adapters))

	g, ctx := errgroup.WithContext(ctx)
	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.Normalize(docs[i], now)
			if res == nil {
				res = adapter.NewResult(a.Name())
			}
			rep := SourceReport{
				Name:     a.Name(),
				Models:   len(res.Models),
				Skipped:  res.Skipped,
				Rejected: res.Rejected,
				Err:      err,
			}
			if err != nil {
				slog.Warn("source unusable, continuing without it", "source", a.Name(), "error", err)
				res = adapter.NewResult(a.Name())
				rep.Models = 0
			}
			if t, ok := a.(adapter.Thresholder); ok && err == nil && rep.Models < t.MinExpectedModels() {
				rep.BelowThreshold = true
				slog.Warn("source below expected model count",
					"source", a.Name(),
					"models", rep.Models,
					"min_expected", t.MinExpectedModels())
			}
			results[i] = res
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, r := range reports {
		p.metrics.ObserveSource(r.Name, r.Models, r.Skipped, r.Rejected)
	}
	return results, reports, nil
}

// write persists the catalog, its manifest, the dated snapshot, the
// changelog and the optional parquet export. Each file is replaced
// atomically.
func (p *Pipeline) write(rep *Report, now time.Time) ([]string, error) {
	var written []string

	if err := catalog.Write(p.cfg.OutputPath, rep.Catalog); err != nil {
		return written, fmt.Errorf("writing catalog: %w", err)
	}
	written = append(written, p.cfg.OutputPath)

	if p.cfg.ManifestPath != "" {
		if err := catalog.WriteManifest(p.cfg.ManifestPath, rep.Catalog); err != nil {
			return written, fmt.Errorf("writing manifest: %w", err)
		}
		written = append(written, p.cfg.ManifestPath)
	}

	if p.cfg.HistoryDir != "" {
		path := p.cfg.HistoryPath(now)
		if err := catalog.Write(path, rep.Catalog); err != nil {
			return written, fmt.Errorf("writing history snapshot: %w", err)
		}
		written = append(written, path)
	}

	if p.cfg.ChangelogDir != "" {
		if err := changelog.Write(p.cfg.ChangelogDir, rep.ChangeSet); err != nil {
			return written, err
		}
		written = append(written, p.latestChangelog())
	}

	if p.cfg.Export.ParquetPath != "" {
		if err := export.WriteParquet(p.cfg.Export.ParquetPath, rep.Catalog); err != nil {
			return written, fmt.Errorf("exporting parquet: %w", err)
		}
		written = append(written, p.cfg.Export.ParquetPath)
	}

	slog.Info("catalog written", "path", p.cfg.OutputPath, "files", len(written))
	return written, nil
}

// FinishRun records the run duration and writes the metrics textfile, if
// one is configured.
func (p *Pipeline) FinishRun(start time.Time) error {
	end := p.now()
	p.metrics.ObserveRun(end.Sub(start), end)
	if p.cfg.Metrics.Textfile == "" {
		return nil
	}
	return p.metrics.WriteTextfile(p.cfg.Metrics.Textfile)
}

// Diff computes the changelog between two catalog files.
func Diff(prevPath, curPath string, now time.Time) (*changelog.ChangeSet, error) {
	prev, err := catalog.Load(prevPath)
	if err != nil {
		return nil, err
	}
	cur, err := catalog.Load(curPath)
	if err != nil {
		return nil, err
	}
	return changelog.Compute(prev, cur, now), nil
}

func (p *Pipeline) latestChangelog() string {
	return filepath.Join(p.cfg.ChangelogDir, changelog.LatestFile)
}
