package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/everstacklabs/pricetracker/internal/fetch"
	"github.com/everstacklabs/pricetracker/internal/httpclient"
)

// feedSources resolves the configured sources to downloadable feeds. A
// configured URL overrides the built-in one.
func (p *Pipeline) feedSources() ([]fetch.Source, error) {
	known := make(map[string]fetch.Source, len(fetch.DefaultSources))
	for _, s := range fetch.DefaultSources {
		known[s.Name] = s
	}

	out := make([]fetch.Source, 0, len(p.cfg.Sources))
	for _, name := range p.cfg.Sources {
		src, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("no feed known for source %s", name)
		}
		if fc, ok := p.cfg.Feeds[name]; ok && fc.URL != "" {
			src.URL = fc.URL
		}
		out = append(out, src)
	}
	return out, nil
}

// Fetch downloads every configured feed into raw_dir. Any failed download
// aborts the run, leaving the previous raw files in place.
func (p *Pipeline) Fetch(ctx context.Context, client *httpclient.Client) ([]string, error) {
	sources, err := p.feedSources()
	if err != nil {
		return nil, err
	}
	now := p.now()

	paths := make([]string, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			doc, err := fetch.Fetch(ctx, client, src, now)
			if err != nil {
				return err
			}
			path, err := fetch.Save(p.cfg.RawDir, src.Name, doc)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("feeds fetched", "sources", len(paths), "dir", p.cfg.RawDir)
	return paths, nil
}
