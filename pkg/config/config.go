package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Browser BrowserConfig `toml:"browser"`
	Crawler CrawlerConfig `toml:"crawler"`
	Miner   MinerConfig   `toml:"miner"`
	Post    PostConfig    `toml:"post"`
	Feed    FeedConfig    `toml:"feed"`
	Storage StorageConfig `toml:"storage"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type BrowserConfig struct {
	Headless        bool   `toml:"headless"`
	ExecPath        string `toml:"exec_path"`
	UserAgent       string `toml:"user_agent"`
	PageLoadTimeout string `toml:"page_load_timeout"`
}

type CrawlerConfig struct {
	URLs          []string `toml:"urls"`
	SeedsFile     string   `toml:"seeds_file"`
	OutDir        string   `toml:"out_dir"`
	OutFile       string   `toml:"out_file"`
	LockWait      string   `toml:"lock_wait"`
	TableTimeout  string   `toml:"table_timeout"`
	MaxClicks     int      `toml:"max_clicks"`
	RespectRobots bool     `toml:"respect_robots"`
	Domain        string   `toml:"domain"`
	ExcludeMarker string   `toml:"exclude_marker"`
}

type MinerConfig struct {
	InFile     string  `toml:"in_file"`
	OutDir     string  `toml:"out_dir"`
	OutFile    string  `toml:"out_file"`
	Workers    int     `toml:"workers"`
	FlushEvery int     `toml:"flush_every"`
	RateLimit  float64 `toml:"rate_limit"`
}

type PostConfig struct {
	InFile     string `toml:"in_file"`
	OutDir     string `toml:"out_dir"`
	OutFile    string `toml:"out_file"`
	FailsFile  string `toml:"fails_file"`
	TargetCity string `toml:"target_city"`
}

type FeedConfig struct {
	InFile   string `toml:"in_file"`
	OutFile  string `toml:"out_file"`
	FeedName string `toml:"feed_name"`
}

type StorageConfig struct {
	DSN string `toml:"dsn"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var cfg Config
	cfg.Logging.Format = "text"
	cfg.Logging.Level = "info"

	cfg.Browser.Headless = true
	cfg.Browser.PageLoadTimeout = "60s"

	cfg.Crawler.OutDir = "."
	cfg.Crawler.LockWait = "30s"
	cfg.Crawler.TableTimeout = "45s"
	cfg.Crawler.MaxClicks = 10_000
	cfg.Crawler.Domain = "oefb.at"
	cfg.Crawler.ExcludeMarker = "verein"

	cfg.Miner.InFile = "oefb_links_gesamt.csv"
	cfg.Miner.OutDir = "."
	cfg.Miner.Workers = 10
	cfg.Miner.FlushEvery = 25

	cfg.Post.InFile = "results/game_miner/spiel_infos.csv"
	cfg.Post.OutDir = "results/post_processing"
	cfg.Post.TargetCity = "Wien"

	cfg.Feed.InFile = "results/martiballtermine_wien.csv"
	cfg.Feed.OutFile = "results/martiball_spiele.json"
	cfg.Feed.FeedName = "martiballtermine_wien"
	return &cfg
}

// Load reads a TOML config on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *BrowserConfig) GetPageLoadTimeout() time.Duration {
	return parseDuration(c.PageLoadTimeout, 60*time.Second)
}

func (c *CrawlerConfig) GetLockWait() time.Duration {
	return parseDuration(c.LockWait, 30*time.Second)
}

func (c *CrawlerConfig) GetTableTimeout() time.Duration {
	return parseDuration(c.TableTimeout, 45*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
