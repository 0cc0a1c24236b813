package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
)

func validateResolver(cfg *Config) error {
	if len(cfg.Resolver.Extensions) == 0 {
		return fmt.Errorf("resolver.extensions must contain at least one extension")
	}
	if cfg.Resolver.Concurrency < 1 {
		return fmt.Errorf("resolver.concurrency must be >= 1, got %d", cfg.Resolver.Concurrency)
	}
	for i, name := range cfg.Resolver.IgnoredNamespaces {
		if strings.Contains(name, ".") {
			return fmt.Errorf("resolver.ignored_namespaces[%d] must be a single root segment, got %q", i, name)
		}
	}
	return nil
}

func validateGitHub(cfg *Config) error {
	u, err := url.Parse(strings.TrimSpace(cfg.GitHub.APIURL))
	if err != nil {
		return fmt.Errorf("github.api_url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("github.api_url must use http or https, got %q", cfg.GitHub.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("github.api_url must include a host")
	}
	if cfg.GitHub.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second must be >= 0")
	}
	if cfg.GitHub.Burst < 1 {
		return fmt.Errorf("github.burst must be >= 1, got %d", cfg.GitHub.Burst)
	}
	if cfg.GitHub.CacheSize < 0 {
		return fmt.Errorf("github.cache_size must be >= 0")
	}
	if cfg.GitHub.CacheTTL < 0 {
		return fmt.Errorf("github.cache_ttl must be >= 0")
	}
	if cfg.GitHub.Timeout <= 0 {
		return fmt.Errorf("github.timeout must be > 0")
	}
	return nil
}

func validateLocal(cfg *Config) error {
	size, err := humanize.ParseBytes(cfg.Local.MaxFileSize)
	if err != nil {
		return fmt.Errorf("local.max_file_size %q is invalid: %w", cfg.Local.MaxFileSize, err)
	}
	if size == 0 {
		return fmt.Errorf("local.max_file_size must be greater than zero")
	}
	for i, pattern := range cfg.Local.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("local.exclude[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	for i, pattern := range cfg.Output.SecretPatterns {
		if strings.TrimSpace(pattern.Name) == "" {
			return fmt.Errorf("output.secret_patterns[%d] needs a name", i)
		}
		if _, err := regexp.Compile(pattern.Regex); err != nil {
			return fmt.Errorf("output.secret_patterns[%d] %q has an invalid regex: %w", i, pattern.Name, err)
		}
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0")
	}
	for i, dir := range cfg.Watch.ExcludeDirs {
		if _, err := glob.Compile(dir); err != nil {
			return fmt.Errorf("watch.exclude_dirs[%d] %q is not a valid glob: %w", i, dir, err)
		}
	}
	return nil
}
