// Package config handles gcp-marker configuration: built-in defaults, an
// optional YAML file, then GCPMARK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gcp-marker/internal/export"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GCPMARK_"

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "gcpmark.yaml"

// Config is the top-level configuration.
type Config struct {
	ImageDir    string        `yaml:"image_dir"`
	Catalog     CatalogConfig `yaml:"catalog"`
	Display     DisplayConfig `yaml:"display"`
	Export      ExportConfig  `yaml:"export"`
	SessionPath string        `yaml:"session"`
	LogLevel    string        `yaml:"log_level"` // debug | info | warn | error
}

// CatalogConfig locates the GCP catalog.
type CatalogConfig struct {
	Path           string `yaml:"path"`
	LabelColumn    string `yaml:"label_column"`    // "" = auto-detect
	FilenameColumn string `yaml:"filename_column"` // "" = auto-detect
}

// DisplayConfig controls how photos are shown.
type DisplayConfig struct {
	Scale     float64 `yaml:"scale"`     // Display pixels per image pixel at zoom 1
	MaxWidth  int     `yaml:"max_width"` // 0 = unbounded
	MaxHeight int     `yaml:"max_height"`
	Resampler string  `yaml:"resampler"` // area | bilinear | nearest
}

// ExportConfig controls the output table.
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // csv | parquet
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Display.Scale <= 0 {
		c.Display.Scale = 0.25
	}
	if c.Display.Resampler == "" {
		c.Display.Resampler = "area"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
	if c.Export.Format == "" {
		c.Export.Format = string(export.FormatCSV)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load reads path (or DefaultFile if path is "" and it exists), applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	c := &Config{}

	file := path
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}
	}

	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyEnv overrides fields from GCPMARK_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"IMAGE_DIR":       &c.ImageDir,
		"CATALOG":         &c.Catalog.Path,
		"LABEL_COLUMN":    &c.Catalog.LabelColumn,
		"FILENAME_COLUMN": &c.Catalog.FilenameColumn,
		"RESAMPLER":       &c.Display.Resampler,
		"EXPORT_DIR":      &c.Export.Dir,
		"FORMAT":          &c.Export.Format,
		"SESSION":         &c.SessionPath,
		"LOG_LEVEL":       &c.LogLevel,
	}
	for key, dst := range str {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_WIDTH":  &c.Display.MaxWidth,
		"MAX_HEIGHT": &c.Display.MaxHeight,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "SCALE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSCALE: %w", EnvPrefix, err)
		}
		c.Display.Scale = f
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Display.Scale <= 0 || c.Display.Scale > 4 {
		errs = append(errs, fmt.Errorf("display scale %v out of range (0, 4]", c.Display.Scale))
	}
	if c.Display.MaxWidth < 0 || c.Display.MaxHeight < 0 {
		errs = append(errs, errors.New("display limits must not be negative"))
	}
	switch c.Display.Resampler {
	case "area", "bilinear", "nearest":
	default:
		errs = append(errs, fmt.Errorf("unknown resampler %q (supported: area, bilinear, nearest)", c.Display.Resampler))
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ExportFormat returns the validated export format.
func (c *Config) ExportFormat() export.Format {
	f, _ := export.ParseFormat(c.Export.Format)
	return f
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger builds the process logger: text on stderr at the configured level.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
