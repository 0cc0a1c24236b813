package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
)

const (
	DefaultPath          = "repo2text.toml"
	defaultGitHubAPIURL  = "https://api.github.com"
	defaultMaxFileSize   = "10 MB"
	defaultHistoryPath   = ".repo2text/history.db"
	defaultServiceName   = "repo2text"
	defaultWatchDebounce = 500 * time.Millisecond
)

// Load reads a TOML config file, applies environment overrides and defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	return finalize(&cfg)
}

// Default returns the configuration used when no config file exists.
func Default() (*Config, error) {
	return finalize(&Config{})
}

func finalize(cfg *Config) (*Config, error) {
	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)
	normalizeResolver(cfg)
	normalizeLocal(cfg)

	if err := validateResolver(cfg); err != nil {
		return nil, err
	}
	if err := validateGitHub(cfg); err != nil {
		return nil, err
	}
	if err := validateLocal(cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(cfg); err != nil {
		return nil, err
	}
	if err := validateHistory(cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(cfg); err != nil {
		return nil, err
	}

	size, _ := humanize.ParseBytes(cfg.Local.MaxFileSize)
	cfg.Local.MaxFileSizeBytes = int64(size)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Resolver.Extensions) == 0 {
		cfg.Resolver.Extensions = []string{".cs"}
	}
	if cfg.Resolver.IgnoredNamespaces == nil {
		cfg.Resolver.IgnoredNamespaces = []string{
			"System", "Microsoft", "Windows", "Octokit", "SharpToken", "ReSharper", "JetBrains",
		}
	}
	if cfg.Resolver.Concurrency == 0 {
		cfg.Resolver.Concurrency = 1
	}

	if strings.TrimSpace(cfg.GitHub.APIURL) == "" {
		cfg.GitHub.APIURL = defaultGitHubAPIURL
	}
	if cfg.GitHub.RequestsPerSecond == 0 {
		cfg.GitHub.RequestsPerSecond = 10
	}
	if cfg.GitHub.Burst == 0 {
		cfg.GitHub.Burst = 5
	}
	if cfg.GitHub.CacheSize == 0 {
		cfg.GitHub.CacheSize = 1024
	}
	if cfg.GitHub.CacheTTL == 0 {
		cfg.GitHub.CacheTTL = 30 * time.Minute
	}
	if cfg.GitHub.Timeout == 0 {
		cfg.GitHub.Timeout = 30 * time.Second
	}

	if strings.TrimSpace(cfg.Local.MaxFileSize) == "" {
		cfg.Local.MaxFileSize = defaultMaxFileSize
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = defaultHistoryPath
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = defaultServiceName
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultWatchDebounce
	}
	if cfg.Watch.ExcludeDirs == nil {
		cfg.Watch.ExcludeDirs = []string{".git", "bin", "obj", "node_modules"}
	}
}

func normalizeResolver(cfg *Config) {
	exts := make([]string, 0, len(cfg.Resolver.Extensions))
	seen := make(map[string]bool, len(cfg.Resolver.Extensions))
	for _, ext := range cfg.Resolver.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	cfg.Resolver.Extensions = exts

	names := cfg.Resolver.IgnoredNamespaces[:0]
	for _, name := range cfg.Resolver.IgnoredNamespaces {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	cfg.Resolver.IgnoredNamespaces = names
}

func normalizeLocal(cfg *Config) {
	patterns := make([]string, 0, len(cfg.Local.Exclude))
	for _, p := range cfg.Local.Exclude {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	cfg.Local.Exclude = patterns
	cfg.Local.MaxFileSize = strings.TrimSpace(cfg.Local.MaxFileSize)
}
