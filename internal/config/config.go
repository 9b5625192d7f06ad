// Package config loads the kanvas runtime configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config is the root configuration document.
type Config struct {
	Server     Server     `yaml:"server"`
	Store      Store      `yaml:"store"`
	Catalog    Catalog    `yaml:"catalog"`
	Compiler   Compiler   `yaml:"compiler"`
	Log        Log        `yaml:"log"`
	Encryption Encryption `yaml:"encryption"`
	Privacy    Privacy    `yaml:"privacy"`
}

type Server struct {
	Addr        string `yaml:"addr"`
	MetricsPath string `yaml:"metrics_path"`
}

type Store struct {
	Backend string `yaml:"backend"`
	// Path is the directory of the file backend.
	Path   string `yaml:"path"`
	Redis  Redis  `yaml:"redis"`
	Badger Badger `yaml:"badger"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Lock enables the distributed workspace lock.
	Lock bool `yaml:"lock"`
}

type Badger struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// Catalog points at a directory of markdown templates. Empty means the
// built-in catalog.
type Catalog struct {
	Dir string `yaml:"dir"`
}

type Compiler struct {
	Strict bool `yaml:"strict"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Encryption holds base64 AES-256 keys. Key seals new writes; Fallback keys
// are tried on read.
type Encryption struct {
	Key      string   `yaml:"key"`
	Fallback []string `yaml:"fallback"`
}

// Privacy lists regular expressions of env var and secret names whose values
// are masked before they are stored.
type Privacy struct {
	Mask []string `yaml:"mask"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:        ":8080",
			MetricsPath: "/metrics",
		},
		Store: Store{
			Backend: BackendMemory,
			Path:    ".kanvas/workspaces",
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "kanvas:",
			},
			Badger: Badger{
				Path: ".kanvas/badger",
			},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over Default. A missing file is not an error. JSON files
// are read by the YAML decoder.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields that have a closed set of values.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendBadger:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendBadger && !c.Store.Badger.InMemory && c.Store.Badger.Path == "" {
		return errors.New("badger store requires a path or in_memory")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}
