// Package config provides configuration management for synthdom using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration file is YAML (.synthdom.yml by default). Every key can
// be overridden through an environment variable with the SYNTHDOM_ prefix,
// dots replaced by underscores: SYNTHDOM_WATCH_DEBOUNCE=250ms.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/fixture"
	"github.com/conneroisu/synthdom/internal/history"
	"github.com/conneroisu/synthdom/internal/logging"
	"github.com/conneroisu/synthdom/internal/memo"
	"github.com/conneroisu/synthdom/internal/render"
	"github.com/conneroisu/synthdom/internal/snapshot"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "SYNTHDOM"

// FileName is the default configuration file name, without extension.
const FileName = ".synthdom"

// MaxDebounce bounds watch.debounce.
const MaxDebounce = 10 * time.Second

type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
	History  HistoryConfig  `yaml:"history" mapstructure:"history"`
	Snapshot SnapshotConfig `yaml:"snapshot" mapstructure:"snapshot"`
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type CacheConfig struct {
	// Size bounds each identity-keyed cache.
	Size int `yaml:"size" mapstructure:"size"`
}

type WatchConfig struct {
	Paths      []string      `yaml:"paths" mapstructure:"paths"`
	Extensions []string      `yaml:"extensions" mapstructure:"extensions"`
	Debounce   time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

type HistoryConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
}

type SnapshotConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	Compression string `yaml:"compression" mapstructure:"compression"`
}

type RenderConfig struct {
	ErrorClass string `yaml:"error_class" mapstructure:"error_class"`
	Annotate   bool   `yaml:"annotate" mapstructure:"annotate"`
}

// SetDefaults registers the default value of every key on v. Keys must be
// known to viper for environment overrides to apply.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cache.size", memo.DefaultSize)
	v.SetDefault("watch.paths", []string{"./fixtures"})
	v.SetDefault("watch.extensions", fixture.Extensions)
	v.SetDefault("watch.debounce", 100*time.Millisecond)
	v.SetDefault("history.limit", history.DefaultLimit)
	v.SetDefault("snapshot.path", ".synthdom/state.sdom")
	v.SetDefault("snapshot.compression", snapshot.CompressionZstd.String())
	v.SetDefault("render.error_class", render.DefaultErrorClass)
	v.SetDefault("render.annotate", false)
}

// Init prepares v to read configFile, or .synthdom.yml in the working
// directory when configFile is empty, with SYNTHDOM_ environment overrides.
func Init(v *viper.Viper, configFile string) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(FileName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load builds the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "decode configuration")
	}

	// Slice values from environment variables arrive as one string.
	if raw := v.GetString("watch.paths"); len(config.Watch.Paths) == 1 && raw == config.Watch.Paths[0] {
		config.Watch.Paths = splitList(raw)
	}
	if raw := v.GetString("watch.extensions"); len(config.Watch.Extensions) == 1 && raw == config.Watch.Extensions[0] {
		config.Watch.Extensions = splitList(raw)
	}

	config.Log.Level = strings.ToLower(strings.TrimSpace(config.Log.Level))
	config.Log.Format = strings.ToLower(strings.TrimSpace(config.Log.Format))

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func splitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
}

// validateConfig validates configuration values
func validateConfig(config *Config) error {
	if _, ok := logging.ParseLevel(config.Log.Level); !ok {
		return invalid("log.level", fmt.Sprintf("unknown level %q", config.Log.Level))
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return invalid("log.format", fmt.Sprintf("unknown format %q (supported: text, json)", config.Log.Format))
	}

	if config.Cache.Size < 0 {
		return invalid("cache.size", "must not be negative")
	}

	if len(config.Watch.Paths) == 0 {
		return invalid("watch.paths", "at least one path is required")
	}
	for _, path := range config.Watch.Paths {
		if strings.TrimSpace(path) == "" {
			return invalid("watch.paths", "empty path")
		}
	}
	for _, ext := range config.Watch.Extensions {
		if !fixture.Supported("x" + ext) {
			return invalid("watch.extensions", fmt.Sprintf("unsupported extension %q", ext))
		}
	}
	if config.Watch.Debounce < 0 || config.Watch.Debounce > MaxDebounce {
		return invalid("watch.debounce", fmt.Sprintf("must be between 0 and %s", MaxDebounce))
	}

	if config.History.Limit < 0 {
		return invalid("history.limit", "must not be negative")
	}

	if _, err := snapshot.ParseCompression(config.Snapshot.Compression); err != nil {
		return invalid("snapshot.compression", err.Error())
	}

	if config.Render.ErrorClass == "" || strings.ContainsAny(config.Render.ErrorClass, " \t\n\"'<>") {
		return invalid("render.error_class", fmt.Sprintf("invalid class name %q", config.Render.ErrorClass))
	}

	return nil
}

func invalid(key, message string) error {
	return errors.NewConfigError(errors.ErrCodeConfigInvalid, key+": "+message).WithContext("key", key)
}

// LoggerConfig returns the logger configuration writing to output.
func (c *Config) LoggerConfig(output io.Writer) *logging.LoggerConfig {
	level, _ := logging.ParseLevel(c.Log.Level)
	return &logging.LoggerConfig{
		Level:  level,
		Format: c.Log.Format,
		Output: output,
	}
}

// SnapshotCompression returns the configured snapshot compression.
func (c *Config) SnapshotCompression() snapshot.Compression {
	compression, _ := snapshot.ParseCompression(c.Snapshot.Compression)
	return compression
}

// RendererConfig returns the renderer configuration.
func (c *Config) RendererConfig(logger logging.Logger) render.Config {
	return render.Config{
		ErrorClass: c.Render.ErrorClass,
		Annotate:   c.Render.Annotate,
		Logger:     logger,
	}
}
