// Package config loads typelens settings from defaults, an optional
// typelens.toml and TYPELENS_ environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/phobologic/typelens/internal/normalize"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = "typelens.toml"

// EnvPrefix prefixes environment overrides, e.g. TYPELENS_LOG_LEVEL.
const EnvPrefix = "TYPELENS"

// Config is the complete typelens configuration.
type Config struct {
	Jobs               int         `mapstructure:"jobs"`
	MaxDepth           int         `mapstructure:"max_depth"`
	MaxFileSize        int64       `mapstructure:"max_file_size"`
	ExcludeNodeModules bool        `mapstructure:"exclude_node_modules"`
	RespectGitignore   bool        `mapstructure:"respect_gitignore"`
	AllowSyntaxErrors  bool        `mapstructure:"allow_syntax_errors"`
	Log                LogConfig   `mapstructure:"log"`
	Hover              HoverConfig `mapstructure:"hover"`
	Watch              WatchConfig `mapstructure:"watch"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type HoverConfig struct {
	CacheSize int `mapstructure:"cache_size"` // open documents kept in memory
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("jobs", 0) // 0 = GOMAXPROCS
	v.SetDefault("max_depth", normalize.DefaultMaxDepth)
	v.SetDefault("max_file_size", 0) // 0 = no limit
	v.SetDefault("exclude_node_modules", false)
	v.SetDefault("respect_gitignore", true)
	v.SetDefault("allow_syntax_errors", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("hover.cache_size", 100)

	v.SetDefault("watch.debounce", "500ms")
}

// New returns a viper instance with defaults and environment binding. When
// path is empty the nearest typelens.toml above the working directory is
// used, if any. An explicit path must exist.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path == "" {
		path = findProjectConfig()
		if path == "" {
			return v, nil
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return v, nil
}

// Load unmarshals and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return errors.Newf("jobs must be >= 0, got %d", c.Jobs)
	}
	if c.MaxDepth < 1 {
		return errors.Newf("max_depth must be >= 1, got %d", c.MaxDepth)
	}
	if c.MaxFileSize < 0 {
		return errors.Newf("max_file_size must be >= 0, got %d", c.MaxFileSize)
	}
	if c.Hover.CacheSize < 1 {
		return errors.Newf("hover.cache_size must be >= 1, got %d", c.Hover.CacheSize)
	}
	if c.Watch.Debounce < 0 {
		return errors.Newf("watch.debounce must be >= 0, got %s", c.Watch.Debounce)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	return nil
}

// findProjectConfig walks up from the working directory looking for
// typelens.toml.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Default is the commented configuration written by `typelens init`.
const Default = `# Worker count for batch runs. 0 uses every available CPU.
jobs = 0

# Type nesting depth after which a type is reported as "Other".
max_depth = 256

# Files larger than this many bytes are skipped. 0 disables the limit.
max_file_size = 0

exclude_node_modules = false
respect_gitignore = true

# Index the parsable part of files with syntax errors instead of skipping them.
allow_syntax_errors = false

[log]
level = "info"
json = false

[hover]
cache_size = 100

[watch]
debounce = "500ms"`
