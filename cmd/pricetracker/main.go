package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/everstacklabs/pricetracker/internal/adapter/sources/litellm"    // register LiteLLM adapter
	_ "github.com/everstacklabs/pricetracker/internal/adapter/sources/openrouter" // register OpenRouter adapter
	"github.com/everstacklabs/pricetracker/internal/cache"
	"github.com/everstacklabs/pricetracker/internal/catalog"
	"github.com/everstacklabs/pricetracker/internal/changelog"
	"github.com/everstacklabs/pricetracker/internal/config"
	"github.com/everstacklabs/pricetracker/internal/httpclient"
	"github.com/everstacklabs/pricetracker/internal/logging"
	"github.com/everstacklabs/pricetracker/internal/pipeline"
	"github.com/everstacklabs/pricetracker/internal/validate"
)

var cfgFile string

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:           "pricetracker",
		Short:         "LLM price catalog builder",
		Long:          "Fetches upstream model pricing feeds, merges them into one catalog and publishes the snapshot.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Compute everything but write and publish nothing")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Bypass the HTTP cache")

	rootCmd.AddCommand(
		fetchCmd(),
		normalizeCmd(),
		runCmd(),
		diffCmd(),
		validateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ee *exitError
	switch {
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, pipeline.ErrInvalidCatalog):
		return pipeline.ExitInvalid
	case errors.Is(err, pipeline.ErrEmptyCatalog):
		return pipeline.ExitSourceHealth
	default:
		return pipeline.ExitFailure
	}
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the raw upstream feeds into raw_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			p := pipeline.New(cfg)
			paths, err := p.Fetch(cmd.Context(), newClient(cfg))
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Println(path)
			}
			return nil
		},
	}
}

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Build the catalog from the raw feeds: normalize → merge → enrich → write",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			start := time.Now()
			p := pipeline.New(cfg)
			rep, err := p.Normalize(cmd.Context())
			if err != nil {
				return err
			}
			logReport(rep)

			if summary, _ := cmd.Flags().GetBool("summary"); summary {
				fmt.Println(changelog.RenderSummary(rep.ChangeSet))
			}
			return p.FinishRun(start)
		},
	}

	cmd.Flags().Bool("summary", false, "Print the changelog summary as markdown")

	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Full pipeline: fetch → normalize → changelog → export → publish",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			start := time.Now()
			p := pipeline.New(cfg)

			if skip, _ := cmd.Flags().GetBool("skip-fetch"); !skip {
				if _, err := p.Fetch(cmd.Context(), newClient(cfg)); err != nil {
					return err
				}
			}

			rep, err := p.Normalize(cmd.Context())
			if err != nil {
				return err
			}
			logReport(rep)

			res, err := p.Publish(cmd.Context(), rep)
			if err != nil {
				return fmt.Errorf("publishing: %w", err)
			}
			switch {
			case res.PR != nil:
				slog.Info("run complete", "pr", res.PR.Number, "draft", res.PR.Draft, "url", res.PR.URL)
			case res.Commit != "":
				slog.Info("run complete", "branch", res.Branch, "commit", res.Commit)
			default:
				slog.Info("run complete", "uploaded", len(res.Uploaded))
			}

			return p.FinishRun(start)
		},
	}

	cmd.Flags().Bool("skip-fetch", false, "Normalize the raw files already in raw_dir")

	return cmd
}

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <previous.json> <current.json>",
		Short: "Show the changelog between two catalogs (exit 2 on changes)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := pipeline.Diff(args[0], args[1], time.Now())
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				data, err := json.MarshalIndent(cs, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				fmt.Println(changelog.RenderSummary(cs))
			}

			if cs.HasChanges() {
				return &exitError{code: pipeline.ExitChanges}
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the changeset as JSON")

	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a published catalog (CI check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath, _ := cmd.Flags().GetString("catalog-path")
			if catalogPath == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				catalogPath = cfg.OutputPath
			}

			cat, err := catalog.Load(catalogPath)
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}

			result := validate.ValidateCatalog(cat)
			fmt.Println(validate.FormatResult(result))

			if result.HasErrors() {
				return &exitError{code: pipeline.ExitFailure}
			}
			return nil
		},
	}

	cmd.Flags().String("catalog-path", "", "Path to prices.json (default: output_path from config)")

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.NoCache, _ = cmd.Flags().GetBool("no-cache")
	}
	return cfg, nil
}

// setup loads config and installs the logger. The returned func closes the
// log file.
func setup(cmd *cobra.Command) (*config.Config, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	_, closeLog, err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("configuring logging: %w", err)
	}
	return cfg, func() { _ = closeLog() }, nil
}

func newClient(cfg *config.Config) *httpclient.Client {
	// Set up cache
	var fileCache *cache.FileCache
	if !cfg.NoCache {
		fc, err := cache.New(cfg.CacheDir, cfg.CacheTTLDuration())
		if err != nil {
			slog.Warn("failed to create cache, continuing without", "error", err)
		} else {
			fileCache = fc
		}
	}

	opts := []httpclient.Option{
		httpclient.WithRateLimit(cfg.RateLimit),
		httpclient.WithRetries(cfg.Retries, 2*time.Second),
	}
	if fileCache != nil {
		opts = append(opts, httpclient.WithCache(fileCache))
	}
	if cfg.NoCache {
		opts = append(opts, httpclient.WithNoCache())
	}
	return httpclient.New(opts...)
}

func logReport(rep *pipeline.Report) {
	for _, s := range rep.Sources {
		slog.Info("source summary",
			"source", s.Name,
			"models", s.Models,
			"skipped", s.Skipped,
			"rejected", s.Rejected,
			"below_threshold", s.BelowThreshold)
	}
	s := rep.ChangeSet.Summary
	slog.Info("changes",
		"price_decreases", s.PriceDecreases,
		"price_increases", s.PriceIncreases,
		"new_models", s.NewModels,
		"removed_models", s.RemovedModels,
		"needs_review", rep.ChangeSet.NeedsReview())
}
