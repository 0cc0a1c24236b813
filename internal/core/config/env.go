package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: REPO2TEXT_[SECTION]_[KEY] (e.g., REPO2TEXT_GITHUB_TOKEN).
func ApplyEnvOverrides(cfg *Config) {
	// Resolver
	setEnvList(&cfg.Resolver.Extensions, "REPO2TEXT_RESOLVER_EXTENSIONS")
	setEnvList(&cfg.Resolver.IgnoredNamespaces, "REPO2TEXT_RESOLVER_IGNORED_NAMESPACES")
	setEnvInt(&cfg.Resolver.Concurrency, "REPO2TEXT_RESOLVER_CONCURRENCY")

	// GitHub
	if cfg.GitHub.Token == "" {
		setEnvString(&cfg.GitHub.Token, "GITHUB_TOKEN")
	}
	setEnvString(&cfg.GitHub.Token, "REPO2TEXT_GITHUB_TOKEN")
	setEnvString(&cfg.GitHub.APIURL, "REPO2TEXT_GITHUB_API_URL")
	setEnvFloat64(&cfg.GitHub.RequestsPerSecond, "REPO2TEXT_GITHUB_REQUESTS_PER_SECOND")
	setEnvInt(&cfg.GitHub.Burst, "REPO2TEXT_GITHUB_BURST")
	setEnvInt(&cfg.GitHub.CacheSize, "REPO2TEXT_GITHUB_CACHE_SIZE")
	setEnvDuration(&cfg.GitHub.CacheTTL, "REPO2TEXT_GITHUB_CACHE_TTL")
	setEnvDuration(&cfg.GitHub.Timeout, "REPO2TEXT_GITHUB_TIMEOUT")

	// Local
	setEnvBoolPtr(&cfg.Local.RespectGitignore, "REPO2TEXT_LOCAL_RESPECT_GITIGNORE")
	setEnvBool(&cfg.Local.SkipVendor, "REPO2TEXT_LOCAL_SKIP_VENDOR")
	setEnvString(&cfg.Local.MaxFileSize, "REPO2TEXT_LOCAL_MAX_FILE_SIZE")

	// Output
	setEnvString(&cfg.Output.Path, "REPO2TEXT_OUTPUT_PATH")
	setEnvBoolPtr(&cfg.Output.SkipBinary, "REPO2TEXT_OUTPUT_SKIP_BINARY")
	setEnvBool(&cfg.Output.RedactSecrets, "REPO2TEXT_OUTPUT_REDACT_SECRETS")

	// History
	setEnvBool(&cfg.History.Enabled, "REPO2TEXT_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "REPO2TEXT_HISTORY_PATH")
	setEnvString(&cfg.History.ProjectKey, "REPO2TEXT_HISTORY_PROJECT_KEY")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "REPO2TEXT_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "REPO2TEXT_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "REPO2TEXT_OBSERVABILITY_SERVICE_NAME")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "REPO2TEXT_WATCH_DEBOUNCE")
	setEnvList(&cfg.Watch.ExcludeDirs, "REPO2TEXT_WATCH_EXCLUDE_DIRS")
}

// Values are never logged; tokens flow through here.
func logOverride(key string) {
	slog.Debug("applying env override", "key", key)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		logOverride(key)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	items := make([]string, 0)
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	logOverride(key)
	*target = items
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			logOverride(key)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			logOverride(key)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			logOverride(key)
			*target = d
		}
	}
}
