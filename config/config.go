// Package config loads the tabview configuration file (YAML). Values missing
// from the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/razeghi71/tabview/loader"
	"github.com/razeghi71/tabview/logger"
)

// Config is the root of the configuration file.
type Config struct {
	Server Server       `yaml:"server"`
	Log    Log          `yaml:"log"`
	View   View         `yaml:"view"`
	Loader LoaderConfig `yaml:"loader"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// Log configures the logger package.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// View bounds row paging.
type View struct {
	DefaultPageSize int `yaml:"defaultPageSize"`
	MaxPageSize     int `yaml:"maxPageSize"`
}

// LoaderConfig mirrors loader.Options in file form.
type LoaderConfig struct {
	Delimiter  string   `yaml:"delimiter"`
	TrimSpace  bool     `yaml:"trimSpace"`
	NullValues []string `yaml:"nullValues"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: logger.FormatJSON,
		},
		View: View{
			DefaultPageSize: 100,
			MaxPageSize:     10000,
		},
		Loader: LoaderConfig{
			Delimiter:  ",",
			TrimSpace:  true,
			NullValues: []string{"null"},
		},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != logger.FormatJSON && c.Log.Format != logger.FormatText {
		errs = append(errs, fmt.Errorf("log.format must be %q or %q, got %q", logger.FormatJSON, logger.FormatText, c.Log.Format))
	}
	if c.View.DefaultPageSize <= 0 {
		errs = append(errs, errors.New("view.defaultPageSize must be positive"))
	}
	if c.View.MaxPageSize <= 0 {
		errs = append(errs, errors.New("view.maxPageSize must be positive"))
	}
	if c.View.DefaultPageSize > c.View.MaxPageSize {
		errs = append(errs, fmt.Errorf("view.defaultPageSize (%d) exceeds view.maxPageSize (%d)", c.View.DefaultPageSize, c.View.MaxPageSize))
	}
	if utf8.RuneCountInString(c.Loader.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("loader.delimiter must be a single character, got %q", c.Loader.Delimiter))
	}

	return errors.Join(errs...)
}

// LoaderOptions converts the loader section.
func (c *Config) LoaderOptions() loader.Options {
	delim, _ := utf8.DecodeRuneInString(c.Loader.Delimiter)
	if delim == utf8.RuneError {
		delim = ','
	}
	return loader.Options{
		Delimiter:  delim,
		TrimSpace:  c.Loader.TrimSpace,
		NullValues: append([]string(nil), c.Loader.NullValues...),
	}
}
