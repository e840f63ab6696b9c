package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"tunesport/internal/library"
)

// EnvPrefix marks environment variables that override file settings.
const EnvPrefix = "TUNESPORT_"

// Config represents the application configuration
type Config struct {
	Library   LibraryConfig   `toml:"library"`
	Playlists PlaylistsConfig `toml:"playlists"`
	Export    ExportConfig    `toml:"export"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
	Watch     WatchConfig     `toml:"watch"`
}

// LibraryConfig points at the exported library file
type LibraryConfig struct {
	Path string `toml:"path"`
}

// PlaylistsConfig controls which playlists survive resolution
type PlaylistsConfig struct {
	IgnoreEmpty         bool     `toml:"ignore_empty"`
	IgnoreNonMusic      bool     `toml:"ignore_non_music"`
	IgnoreDistinguished bool     `toml:"ignore_distinguished"`
	IgnoreMaster        bool     `toml:"ignore_master"`
	IgnoreNames         []string `toml:"ignore_names"`
	SortTracks          bool     `toml:"sort_tracks"`
}

// PathMapping rewrites a location prefix, e.g. a Mac music folder to a NAS mount
type PathMapping struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// ExportConfig contains settings shared by the exporters
type ExportConfig struct {
	M3UDir          string        `toml:"m3u_dir"`
	CopyDir         string        `toml:"copy_dir"`
	CopyConcurrency int           `toml:"copy_concurrency"`
	ASCIINames      bool          `toml:"ascii_names"`
	PathMappings    []PathMapping `toml:"path_mappings"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// WatchConfig controls the library file watcher
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Path: "./Library.xml",
		},
		Playlists: PlaylistsConfig{
			IgnoreEmpty:         true,
			IgnoreNonMusic:      true,
			IgnoreDistinguished: true,
			IgnoreMaster:        true,
			IgnoreNames:         []string{},
			SortTracks:          true,
		},
		Export: ExportConfig{
			M3UDir:          "./playlists",
			CopyDir:         "./music",
			CopyConcurrency: 4,
			ASCIINames:      false,
			PathMappings:    []PathMapping{},
		},
		Database: DatabaseConfig{
			Path: "./tunesport.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}

// LoadConfig loads configuration from a TOML file, then applies .env and
// TUNESPORT_* overrides. A missing file is created with the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
	} else if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// .env is optional
	envFile := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LIBRARY":    &c.Library.Path,
		"M3U_DIR":    &c.Export.M3UDir,
		"COPY_DIR":   &c.Export.CopyDir,
		"DATABASE":   &c.Database.Path,
		"LOG_LEVEL":  &c.Logging.Level,
		"LOG_FORMAT": &c.Logging.Format,
		"LOG_FILE":   &c.Logging.File,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"COPY_CONCURRENCY":  &c.Export.CopyConcurrency,
		"WATCH_DEBOUNCE_MS": &c.Watch.DebounceMS,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "IGNORE_NAMES"); ok {
		c.Playlists.IgnoreNames = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# tunesport configuration
# Paths are relative to the working directory. Any string setting can be
# overridden with a TUNESPORT_* environment variable or a .env file.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Library.Path == "" {
		return fmt.Errorf("library path cannot be empty")
	}

	if c.Export.CopyConcurrency < 1 {
		return fmt.Errorf("copy concurrency must be at least 1")
	}
	for i, m := range c.Export.PathMappings {
		if m.From == "" {
			return fmt.Errorf("path mapping %d has an empty prefix", i)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch debounce must not be negative")
	}

	return nil
}

// PlaylistOptions converts the [playlists] section for the parser
func (c *Config) PlaylistOptions() library.Options {
	return library.Options{
		IgnoreEmptyPlaylists:         c.Playlists.IgnoreEmpty,
		IgnoreNonMusicPlaylists:      c.Playlists.IgnoreNonMusic,
		IgnoreDistinguishedPlaylists: c.Playlists.IgnoreDistinguished,
		IgnoreMasterPlaylist:         c.Playlists.IgnoreMaster,
		IgnorePlaylistNames:          append([]string(nil), c.Playlists.IgnoreNames...),
		KeepPlaylistOrder:            !c.Playlists.SortTracks,
	}
}
