package config

import "time"

// Config is the decoded form of repo2text.toml.
type Config struct {
	Resolver      Resolver      `toml:"resolver"`
	GitHub        GitHub        `toml:"github"`
	Local         Local         `toml:"local"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Watch         Watch         `toml:"watch"`
}

type Resolver struct {
	Extensions        []string `toml:"extensions"`
	IgnoredNamespaces []string `toml:"ignored_namespaces"`
	Concurrency       int      `toml:"concurrency"`
}

type GitHub struct {
	APIURL            string        `toml:"api_url"`
	Token             string        `toml:"token"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Burst             int           `toml:"burst"`
	CacheSize         int           `toml:"cache_size"`
	CacheTTL          time.Duration `toml:"cache_ttl"`
	Timeout           time.Duration `toml:"timeout"`
}

type Local struct {
	RespectGitignore *bool    `toml:"respect_gitignore"`
	Exclude          []string `toml:"exclude"`
	SkipVendor       bool     `toml:"skip_vendor"`
	MaxFileSize      string   `toml:"max_file_size"`

	// MaxFileSizeBytes is derived from MaxFileSize during Load.
	MaxFileSizeBytes int64 `toml:"-"`
}

type Output struct {
	Path       string `toml:"path"`
	SkipBinary *bool  `toml:"skip_binary"`
	// RedactSecrets masks detected credentials in rendered content.
	RedactSecrets  bool            `toml:"redact_secrets"`
	SecretPatterns []SecretPattern `toml:"secret_patterns"`
}

type SecretPattern struct {
	Name     string `toml:"name"`
	Regex    string `toml:"regex"`
	Severity string `toml:"severity"`
}

type History struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	ProjectKey string `toml:"project_key"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	ExcludeDirs []string      `toml:"exclude_dirs"`
}

func (l Local) GitignoreEnabled() bool {
	if l.RespectGitignore == nil {
		return true
	}
	return *l.RespectGitignore
}

func (o Output) BinaryPlaceholders() bool {
	if o.SkipBinary == nil {
		return true
	}
	return *o.SkipBinary
}
