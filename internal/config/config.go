// Package config loads pagebuilder settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"pagebuilder/internal/catalog"
	"pagebuilder/internal/geometry"
	"pagebuilder/internal/history"
	"pagebuilder/internal/service"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Editor   EditorConfig   `toml:"editor"`
	Autosave AutosaveConfig `toml:"autosave"`
	Import   ImportConfig   `toml:"import"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Log      LogConfig      `toml:"log"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type EditorConfig struct {
	GridSize     float64 `toml:"grid_size"`
	HistoryLimit int     `toml:"history_limit"`
	MaxHops      int     `toml:"max_hops"`
}

type AutosaveConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
}

type ImportConfig struct {
	WatchDir string `toml:"watch_dir"`
}

// CatalogConfig selects the catalog database. The password only comes from
// the environment.
type CatalogConfig struct {
	catalog.Config
	CacheTTL  Duration `toml:"cache_ttl"`
	RedisAddr string   `toml:"redis_addr"`
	Password  string   `toml:"-"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as "30s" or "5m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultDir is ~/.config/pagebuilder.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pagebuilder")
	}
	return ".pagebuilder"
}

// DefaultDataDir is ~/.local/share/pagebuilder, where the database lives.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pagebuilder"
	}
	return filepath.Join(homeDir, ".local", "share", "pagebuilder")
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Path: filepath.Join(DefaultDataDir(), "pages.db")},
		Editor: EditorConfig{
			GridSize:     geometry.DefaultGridSize,
			HistoryLimit: history.DefaultLimit,
			MaxHops:      64,
		},
		Autosave: AutosaveConfig{Enabled: true, Schedule: service.DefaultAutosaveSchedule},
		Catalog: CatalogConfig{
			CacheTTL: Duration{5 * time.Minute},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the config file at path over the defaults and applies
// environment overrides. A missing file is not an error; an empty path
// means DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Storage.Path = getEnv("PAGEBUILDER_DB", c.Storage.Path)
	c.Log.Level = getEnv("PAGEBUILDER_LOG_LEVEL", c.Log.Level)
	c.Catalog.Password = getEnv("PAGEBUILDER_CATALOG_PASSWORD", c.Catalog.Password)
	c.Catalog.RedisAddr = getEnv("PAGEBUILDER_REDIS_ADDR", c.Catalog.RedisAddr)
	c.Import.WatchDir = getEnv("PAGEBUILDER_IMPORT_DIR", c.Import.WatchDir)
	c.Editor.HistoryLimit = getEnvAsInt("PAGEBUILDER_HISTORY_LIMIT", c.Editor.HistoryLimit)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
