// Package config handles configuration loading and validation for arelcop.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/imyousuf/arelcop/internal/hierarchy"
	"github.com/imyousuf/arelcop/internal/rules"
)

const (
	// DefaultConfigFile is the default configuration file name (without extension).
	DefaultConfigFile = ".arelcop"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
	// LegacyReservedMethodsEnv is the environment variable RuboCop reads
	// reserved finder names from. It is honored as a fallback.
	LegacyReservedMethodsEnv = "RUBOCOP_RAILS_FIND_BY_RESERVED_METHODS"
)

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "yaml"}

// Config holds all configuration for arelcop.
type Config struct {
	// Paths are the files and directories inspected when none are given
	// on the command line.
	Paths []string `mapstructure:"paths" yaml:"paths" toml:"paths"`
	// Exclude lists gitignore-style patterns of files to skip.
	Exclude []string `mapstructure:"exclude" yaml:"exclude" toml:"exclude"`
	// DisabledRules names rules that are not run.
	DisabledRules []string `mapstructure:"disabled_rules" yaml:"disabled_rules" toml:"disabled_rules"`
	// AllowedMethods are dynamic finder names that are never reported.
	AllowedMethods []string `mapstructure:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	// AllowedReceivers are receiver sources whose dynamic finders are never reported.
	AllowedReceivers []string `mapstructure:"allowed_receivers" yaml:"allowed_receivers" toml:"allowed_receivers"`
	// ReservedMethods are dynamic finder names defined by the application.
	ReservedMethods []string `mapstructure:"reserved_methods" yaml:"reserved_methods" toml:"reserved_methods"`
	// RecordBases are the superclasses that mark a class as a model.
	RecordBases []string `mapstructure:"record_bases" yaml:"record_bases" toml:"record_bases"`
	// RelationExcludedKeys are has_many options kept in the options hash.
	RelationExcludedKeys []string `mapstructure:"relation_excluded_keys" yaml:"relation_excluded_keys" toml:"relation_excluded_keys"`
	// Jobs is the number of files processed in parallel (0 means one per CPU).
	Jobs int `mapstructure:"jobs" yaml:"jobs" toml:"jobs"`
	// MaxPasses bounds the number of fix passes per file.
	MaxPasses int `mapstructure:"max_passes" yaml:"max_passes" toml:"max_passes"`
	// Format is the report format (text, json or yaml).
	Format string `mapstructure:"format" yaml:"format" toml:"format"`
	// Cache contains result cache configuration.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache" toml:"cache"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-" toml:"-"`
}

// CacheConfig holds result cache configuration.
type CacheConfig struct {
	// Enabled turns the lint result cache on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	// Dir is the cache directory.
	Dir string `mapstructure:"dir" yaml:"dir" toml:"dir"`
}

// Load loads configuration from file, environment variables, and defaults.
// A config file set with the --config flag (stored in the global viper)
// takes precedence over the default search path.
func Load() (*Config, error) {
	return LoadFile(viper.GetViper().GetString("config_file"))
}

// LoadFile loads configuration from the given file, or from .arelcop.* in
// the current directory when configFile is empty.
func LoadFile(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigFile)
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ARELCOP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("reserved_methods", "ARELCOP_RESERVED_METHODS", LegacyReservedMethodsEnv); err != nil {
		return nil, fmt.Errorf("binding environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.normalize()
	cfg.File = v.ConfigFileUsed()

	return &cfg, nil
}

// Default returns the built-in configuration, ignoring files and the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	cfg.normalize()
	return &cfg
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	known := rules.Names()
	for _, name := range c.DisabledRules {
		if !slices.Contains(known, name) {
			return fmt.Errorf("disabled_rules: unknown rule %q (known: %s)", name, strings.Join(known, ", "))
		}
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.MaxPasses < 1 {
		return fmt.Errorf("max_passes must be at least 1, got %d", c.MaxPasses)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("format must be one of %s, got %q", strings.Join(Formats, ", "), c.Format)
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when the cache is enabled")
	}
	return nil
}

// RuleConfig returns the configuration the rules consult.
func (c *Config) RuleConfig() *rules.Config {
	return &rules.Config{
		AllowedMethods:   c.AllowedMethods,
		AllowedReceivers: c.AllowedReceivers,
		ReservedMethods:  c.ReservedMethods,
		ExcludedKeys:     c.RelationExcludedKeys,
	}
}

// Resolver returns the class hierarchy resolver for the configured bases.
func (c *Config) Resolver() *hierarchy.Resolver {
	return hierarchy.New(c.RecordBases...)
}

// normalize trims list entries that came from comma-separated environment
// values and drops empty ones.
func (c *Config) normalize() {
	for _, list := range []*[]string{
		&c.Paths, &c.Exclude, &c.DisabledRules, &c.AllowedMethods,
		&c.AllowedReceivers, &c.ReservedMethods, &c.RecordBases,
	} {
		*list = cleanList(*list)
	}
	if c.RelationExcludedKeys != nil {
		c.RelationExcludedKeys = cleanList(c.RelationExcludedKeys)
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// DefaultCacheDir returns the per-user cache directory.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "arelcop")
	}
	return filepath.Join(dir, "arelcop")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("paths", []string{"."})

	v.SetDefault("exclude", []string{
		".git/",
		"vendor/",
		"node_modules/",
		"tmp/",
		"log/",
		"db/schema.rb",
	})

	v.SetDefault("disabled_rules", []string{})
	v.SetDefault("allowed_methods", []string{})
	v.SetDefault("allowed_receivers", []string{})
	v.SetDefault("reserved_methods", []string{})
	v.SetDefault("record_bases", hierarchy.DefaultBases)
	v.SetDefault("relation_excluded_keys", rules.DefaultExcludedKeys)

	v.SetDefault("jobs", 0)
	v.SetDefault("max_passes", 10)
	v.SetDefault("format", "text")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", DefaultCacheDir())
}
