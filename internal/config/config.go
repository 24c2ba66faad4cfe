package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/everstacklabs/pricetracker/internal/merge"
)

// Config holds all configuration for pricetracker.
type Config struct {
	DataDir        string                `mapstructure:"data_dir"`
	RawDir         string                `mapstructure:"raw_dir"`
	OutputPath     string                `mapstructure:"output_path"`
	ManifestPath   string                `mapstructure:"manifest_path"`
	ChangelogDir   string                `mapstructure:"changelog_dir"`
	HistoryDir     string                `mapstructure:"history_dir"`
	AffiliatesPath string                `mapstructure:"affiliates_path"`
	Sources        []string              `mapstructure:"sources"`
	Merge          MergeConfig           `mapstructure:"merge"`
	Feeds          map[string]FeedConfig `mapstructure:"feeds"`
	CacheDir       string                `mapstructure:"cache_dir"`
	CacheTTL       string                `mapstructure:"cache_ttl"`
	NoCache        bool                  `mapstructure:"no_cache"`
	RateLimit      float64               `mapstructure:"rate_limit"`
	Retries        int                   `mapstructure:"retries"`
	DryRun         bool                  `mapstructure:"dry_run"`
	Log            LogConfig             `mapstructure:"log"`
	Metrics        MetricsConfig         `mapstructure:"metrics"`
	Export         ExportConfig          `mapstructure:"export"`
	Publish        PublishConfig         `mapstructure:"publish"`
}

// MergeConfig selects how overlapping records are reconciled.
type MergeConfig struct {
	Strategy string `mapstructure:"strategy"`
}

// FeedConfig locates one upstream feed.
type FeedConfig struct {
	URL string `mapstructure:"url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MetricsConfig holds the node exporter textfile path. Empty disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// ExportConfig holds analytics export settings. Empty disables it.
type ExportConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// PublishConfig groups the publish targets.
type PublishConfig struct {
	Git    GitConfig    `mapstructure:"git"`
	GitHub GitHubConfig `mapstructure:"github"`
	S3     S3Config     `mapstructure:"s3"`
}

// GitConfig controls committing the data dir.
type GitConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	RepoPath string `mapstructure:"repo_path"`
}

// GitHubConfig holds GitHub-related settings.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	BaseBranch string `mapstructure:"base_branch"`
}

// S3Config holds the bucket mirror settings.
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("data_dir", "data")
	v.SetDefault("raw_dir", "data/raw")
	v.SetDefault("output_path", "data/current/prices.json")
	v.SetDefault("manifest_path", "data/current/manifest.yaml")
	v.SetDefault("changelog_dir", "data/changelog")
	v.SetDefault("history_dir", "data/history")
	v.SetDefault("affiliates_path", "data/affiliates.json")
	v.SetDefault("sources", []string{"openrouter", "litellm"})
	v.SetDefault("merge.strategy", string(merge.StrategyPrimary))
	v.SetDefault("feeds.openrouter.url", "https://openrouter.ai/api/v1/models")
	v.SetDefault("feeds.litellm.url", "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("no_cache", false)
	v.SetDefault("rate_limit", 2.0)
	v.SetDefault("retries", 3)
	v.SetDefault("dry_run", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("export.parquet_path", "")
	v.SetDefault("publish.git.enabled", false)
	v.SetDefault("publish.git.repo_path", ".")
	v.SetDefault("publish.github.token", "")
	v.SetDefault("publish.github.owner", "")
	v.SetDefault("publish.github.repo", "")
	v.SetDefault("publish.github.base_branch", "main")
	v.SetDefault("publish.s3.enabled", false)
	v.SetDefault("publish.s3.bucket", "")
	v.SetDefault("publish.s3.region", "us-east-1")
	v.SetDefault("publish.s3.endpoint", "")
	v.SetDefault("publish.s3.path_style", false)
	v.SetDefault("publish.s3.prefix", "")
	v.SetDefault("publish.s3.access_key_id", "")
	v.SetDefault("publish.s3.secret_access_key", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pricetracker")
	}

	// Environment variables: PRICETRACKER_PUBLISH_S3_BUCKET -> publish.s3.bucket
	v.SetEnvPrefix("PRICETRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("publish.github.token", "PRICETRACKER_PUBLISH_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("publish.s3.access_key_id", "PRICETRACKER_PUBLISH_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("publish.s3.secret_access_key", "PRICETRACKER_PUBLISH_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("sources: at least one source is required")
	}
	if _, err := merge.ParseStrategy(c.Merge.Strategy); err != nil {
		return fmt.Errorf("merge.strategy: %w", err)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("cache_ttl: %w", err)
	}
	if c.Publish.S3.Enabled && c.Publish.S3.Bucket == "" {
		return fmt.Errorf("publish.s3.bucket is required when publish.s3.enabled is set")
	}
	return nil
}

// CacheTTLDuration returns cache_ttl parsed. Load has already validated it.
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// RawPath is where the raw document for a source is stored.
func (c *Config) RawPath(source string) string {
	return filepath.Join(c.RawDir, source+".json")
}

// HistoryPath is the dated snapshot path for a run at t:
// history_dir/YYYY/MM/DD.json.
func (c *Config) HistoryPath(t time.Time) string {
	t = t.UTC()
	return filepath.Join(c.HistoryDir, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// GitHubEnabled reports whether a PR can be opened after pushing.
func (c *Config) GitHubEnabled() bool {
	gh := c.Publish.GitHub
	return gh.Token != "" && gh.Owner != "" && gh.Repo != ""
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pricetracker-cache")
	}
	return filepath.Join(home, ".cache", "pricetracker")
}
