// Package config provides configuration types and defaults for genesis.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/magnusknutas/genesis/genesis"
	"github.com/magnusknutas/genesis/internal/log"
)

// Config holds all configuration options for genesis.
type Config struct {
	Grammar  string       `mapstructure:"grammar" yaml:"grammar"` // "bracket" (default) or "registration"
	Theme    ThemeConfig  `mapstructure:"theme" yaml:"theme"`
	Output   OutputConfig `mapstructure:"output" yaml:"output"`
	Cache    CacheConfig  `mapstructure:"cache" yaml:"cache"`
	Watch    WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Debug    bool         `mapstructure:"debug" yaml:"debug"`
	LogFile  string       `mapstructure:"log_file" yaml:"log_file"`   // "-" logs to stderr
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"` // lowest level written with debug on
}

// ThemeConfig selects and customizes the colour theme.
type ThemeConfig struct {
	// Preset is "light" (default) or "dark".
	Preset string `mapstructure:"preset" yaml:"preset"`
	// File is an optional YAML theme that replaces the preset.
	File string `mapstructure:"file" yaml:"file,omitempty"`
	// Rules overrides individual categories, e.g.
	//   rules:
	//     "atom.marker.active": "#FF0000 bold"
	Rules map[string]string `mapstructure:"rules" yaml:"rules,omitempty"`
}

// OutputConfig controls the highlight command.
type OutputConfig struct {
	// Formatter is lipgloss (default), terminal256, terminal16m, html or json.
	Formatter string `mapstructure:"formatter" yaml:"formatter"`
}

// CacheConfig controls the line cache.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	MaxLineLength int           `mapstructure:"max_line_length" yaml:"max_line_length"`
}

// WatchConfig controls `highlight --watch`.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Formatters accepted by OutputConfig.Formatter.
var Formatters = []string{"lipgloss", "terminal256", "terminal16m", "html", "json"}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Grammar: genesis.VariantBracket.String(),
		Theme:   ThemeConfig{Preset: "light"},
		Output:  OutputConfig{Formatter: "lipgloss"},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           10 * time.Minute,
			MaxLineLength: 4096,
		},
		Watch:    WatchConfig{Debounce: 200 * time.Millisecond},
		LogLevel: "debug",
	}
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := genesis.ParseVariant(c.Grammar); err != nil {
		errs = append(errs, fmt.Errorf("grammar: %w", err))
	}
	if _, err := genesis.PresetTheme(c.Theme.Preset); err != nil {
		errs = append(errs, fmt.Errorf("theme.preset: %w", err))
	}
	for token := range c.Theme.Rules {
		if _, err := genesis.ParseCategory(token); err != nil {
			errs = append(errs, fmt.Errorf("theme.rules: %w", err))
		}
	}
	if !validFormatter(c.Output.Formatter) {
		errs = append(errs, fmt.Errorf("output.formatter: unknown formatter %q (use one of %v)", c.Output.Formatter, Formatters))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl: must not be negative"))
	}
	if c.Cache.MaxLineLength < 0 {
		errs = append(errs, fmt.Errorf("cache.max_line_length: must not be negative"))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must not be negative"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

func validFormatter(name string) bool {
	for _, f := range Formatters {
		if f == name {
			return true
		}
	}
	return false
}

// Variant returns the configured grammar variant.
func (c Config) Variant() (genesis.Variant, error) {
	return genesis.ParseVariant(c.Grammar)
}

// ResolveTheme loads the preset or theme file and applies rule overrides.
func (c Config) ResolveTheme() (genesis.Theme, error) {
	var theme genesis.Theme
	if c.Theme.File != "" {
		f, err := os.Open(c.Theme.File) //nolint:gosec // G304: user-chosen theme path
		if err != nil {
			return genesis.Theme{}, fmt.Errorf("opening theme file: %w", err)
		}
		defer func() { _ = f.Close() }()

		theme, err = genesis.LoadTheme(f)
		if err != nil {
			return genesis.Theme{}, fmt.Errorf("loading %s: %w", c.Theme.File, err)
		}
		log.Debug(log.CatConfig, "loaded theme file", "path", c.Theme.File, "name", theme.Name)
	} else {
		var err error
		theme, err = genesis.PresetTheme(c.Theme.Preset)
		if err != nil {
			return genesis.Theme{}, err
		}
	}

	if len(c.Theme.Rules) == 0 {
		return theme, nil
	}
	return theme.WithOverrides(c.Theme.Rules)
}

// WriteDefaultConfig writes the defaults as YAML to path, creating parent
// directories as needed. An existing file is left alone.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	log.Info(log.CatConfig, "wrote default config", "path", path)
	return nil
}
