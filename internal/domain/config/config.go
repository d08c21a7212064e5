// Package config holds plugmirror's settings, their defaults, and the
// user-facing errors reported when they are wrong.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// Defaults mirror the Jenkins update site.
const (
	DefaultDomain     = "https://updates.jenkins-ci.org"
	DefaultRoot       = DefaultDomain + "/download/plugins/"
	DefaultHasher     = "nix-prefetch-url"
	DefaultCachePath  = ".plugmirror-cache.yaml"
	DefaultOutput     = "plugins.nix"
	DefaultRedisKey   = "plugmirror:cache"
	DefaultSQLitePath = ".plugmirror-cache.db"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Backends lists the accepted cache backends.
var Backends = []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}

// Config is the complete run configuration.
type Config struct {
	Repository  RepositoryConfig `yaml:"repository" toml:"repository"`
	Selection   string           `yaml:"selection" toml:"selection"`
	Hasher      HasherConfig     `yaml:"hasher" toml:"hasher"`
	Cache       CacheConfig      `yaml:"cache" toml:"cache"`
	Manifest    ManifestConfig   `yaml:"manifest" toml:"manifest"`
	HTTP        HTTPConfig       `yaml:"http" toml:"http"`
	Log         LogConfig        `yaml:"log" toml:"log"`
	MetricsFile string           `yaml:"metrics_file,omitempty" toml:"metrics_file,omitempty"`
}

// RepositoryConfig locates the plugin index.
type RepositoryConfig struct {
	// Domain is joined with root-relative artifact links.
	Domain string `yaml:"domain" toml:"domain"`
	// Root is the index page listing one subdirectory per plugin.
	Root string `yaml:"root" toml:"root"`
	// Extension is the artifact file suffix.
	Extension string `yaml:"extension" toml:"extension"`
	// SkipVersion is the floating version directory that is never resolved.
	SkipVersion string `yaml:"skip_version" toml:"skip_version"`
}

// HasherConfig describes the external hashing command. The artifact URL is
// appended as the last argument.
type HasherConfig struct {
	Command string   `yaml:"command" toml:"command"`
	Args    []string `yaml:"args,omitempty" toml:"args,omitempty"`
	Timeout string   `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// CacheConfig selects and locates the hash cache.
type CacheConfig struct {
	Backend   string `yaml:"backend" toml:"backend"`
	Path      string `yaml:"path,omitempty" toml:"path,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty" toml:"redis_addr,omitempty"`
	RedisDB   int    `yaml:"redis_db,omitempty" toml:"redis_db,omitempty"`
	RedisKey  string `yaml:"redis_key,omitempty" toml:"redis_key,omitempty"`
}

// FilePath returns the file holding the cache of the file and sqlite
// backends: Path when set, otherwise the backend's default. Other backends
// have no file and get "".
func (c CacheConfig) FilePath() string {
	switch c.Backend {
	case BackendFile, "":
		if c.Path == "" {
			return DefaultCachePath
		}
	case BackendSQLite:
		if c.Path == "" {
			return DefaultSQLitePath
		}
	default:
		return ""
	}
	return c.Path
}

// ManifestConfig controls the generated file.
type ManifestConfig struct {
	Output     string `yaml:"output" toml:"output"`
	Builder    string `yaml:"builder" toml:"builder"`
	Fetcher    string `yaml:"fetcher" toml:"fetcher"`
	HeaderFile string `yaml:"header_file,omitempty" toml:"header_file,omitempty"`
	FooterFile string `yaml:"footer_file,omitempty" toml:"footer_file,omitempty"`
}

// HTTPConfig tunes page fetching. An empty timeout means none.
type HTTPConfig struct {
	Timeout   string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	UserAgent string `yaml:"user_agent" toml:"user_agent"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	JSON  bool   `yaml:"json" toml:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Repository: RepositoryConfig{
			Domain:      DefaultDomain,
			Root:        DefaultRoot,
			Extension:   mirror.DefaultExtension,
			SkipVersion: mirror.DefaultSkipVersion,
		},
		Selection: string(mirror.PolicyPageOrder),
		Hasher: HasherConfig{
			Command: DefaultHasher,
		},
		Cache: CacheConfig{
			Backend:  BackendFile,
			RedisKey: DefaultRedisKey,
		},
		Manifest: ManifestConfig{
			Output:  DefaultOutput,
			Builder: "mkJenkinsPlugin",
			Fetcher: "fetchurl",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Policy returns the parsed selection policy.
func (c *Config) Policy() mirror.Policy {
	p, err := mirror.ParsePolicy(c.Selection)
	if err != nil {
		return mirror.PolicyPageOrder
	}
	return p
}

// HasherTimeout returns the per-artifact hashing timeout, zero for none.
func (c *Config) HasherTimeout() time.Duration {
	return parseDurationOrZero(c.Hasher.Timeout)
}

// HTTPTimeout returns the page fetch timeout, zero for none.
func (c *Config) HTTPTimeout() time.Duration {
	return parseDurationOrZero(c.HTTP.Timeout)
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() ports.Level {
	level, _ := ports.ParseLevel(c.Log.Level)
	return level
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	errs := NewErrorList()

	checkURL := func(field, value string) {
		u, err := url.Parse(value)
		if value == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs.AddValidation(field, fmt.Sprintf("%q is not an http(s) URL", value),
				"Use an absolute URL such as "+DefaultRoot)
		}
	}
	checkURL("repository.domain", c.Repository.Domain)
	checkURL("repository.root", c.Repository.Root)

	if c.Repository.Extension == "" {
		errs.AddValidation("repository.extension", "artifact extension is empty", "Set it to the plugin file suffix, e.g. .hpi")
	}
	if _, err := mirror.ParsePolicy(c.Selection); err != nil {
		errs.AddValidation("selection", err.Error(), "Use page-order, highest, or all.")
	}
	if c.Hasher.Command == "" {
		errs.AddValidation("hasher.command", "hashing command is empty", "Set it to "+DefaultHasher)
	}
	if !slices.Contains(Backends, c.Cache.Backend) {
		errs.AddValidation("cache.backend", fmt.Sprintf("unknown cache backend %q", c.Cache.Backend),
			fmt.Sprintf("Use one of %v.", Backends))
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		errs.AddValidation("cache.redis_addr", "redis address is empty", "Set cache.redis_addr, e.g. localhost:6379.")
	}
	if c.Manifest.Output == "" {
		errs.AddValidation("manifest.output", "manifest output path is empty", "Set it to "+DefaultOutput)
	}
	checkDuration := func(field, value string) {
		if value == "" {
			return
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			errs.AddValidation(field, fmt.Sprintf("%q is not a valid duration", value), "Use a Go duration such as 30s or 5m.")
		}
	}
	checkDuration("hasher.timeout", c.Hasher.Timeout)
	checkDuration("http.timeout", c.HTTP.Timeout)
	if _, err := ports.ParseLevel(c.Log.Level); err != nil {
		errs.AddValidation("log.level", err.Error(), "Use debug, info, warn, or error.")
	}

	return errs.AsError()
}

func parseDurationOrZero(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
