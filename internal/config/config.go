// Package config loads modelq configuration.
//
// Sources are layered, lowest to highest precedence:
// defaults, modelq.yaml, MODELQ_* environment variables, then CLI flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/roach88/modelq/internal/store"
)

// Default values.
const (
	DefaultDatabase = ".modelq/modelq.db"
	DefaultLogLevel = "info"
	DefaultOutput   = "text"

	// EnvPrefix prefixes every environment override: MODELQ_METAMODEL -> metamodel.
	EnvPrefix = "MODELQ_"
)

// ConfigFileNames are looked up in the working directory when no config
// file is given explicitly.
var ConfigFileNames = []string{"modelq.yaml", "modelq.yml"}

// Config holds all modelq configuration options.
type Config struct {
	Metamodel   string   `koanf:"metamodel"`
	SearchPaths []string `koanf:"search_paths"`
	Database    string   `koanf:"database"`
	LogLevel    string   `koanf:"log_level"`
	Output      string   `koanf:"output"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// flagKeys maps CLI flag names to config keys where they differ.
var flagKeys = map[string]string{
	"format":      "output",
	"search-path": "search_paths",
}

// Load loads configuration from cfgFile (or a modelq.yaml in the working
// directory), MODELQ_* environment variables and the explicitly set flags.
// flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"database":     DefaultDatabase,
		"log_level":    DefaultLogLevel,
		"output":       DefaultOutput,
		"search_paths": []string{},
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	fromFile := koanf.New(".")
	if used != "" {
		if err := fromFile.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
		if err := k.Merge(fromFile); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: MODELQ_SEARCH_PATHS -> search_paths
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	cfg.SearchPaths = splitPathLists(cfg.SearchPaths)

	// Paths in a config file are relative to the file.
	if used != "" {
		base := filepath.Dir(used)
		setByFile := func(key, flag string) bool {
			return fromFile.Exists(key) && !isFlagSet(flags, flag) &&
				os.Getenv(EnvPrefix+strings.ToUpper(key)) == ""
		}
		if setByFile("metamodel", "metamodel") {
			cfg.Metamodel = resolvePathRelativeTo(cfg.Metamodel, base)
		}
		if setByFile("search_paths", "search-path") {
			for i, p := range cfg.SearchPaths {
				cfg.SearchPaths[i] = resolvePathRelativeTo(p, base)
			}
		}
		if setByFile("database", "database") && cfg.Database != store.MemoryPath {
			cfg.Database = resolvePathRelativeTo(cfg.Database, base)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json", "table":
	default:
		return fmt.Errorf("invalid output format %q: must be text, json or table", c.Output)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// splitPathLists expands entries holding an OS path list ("a:b" from
// MODELQ_SEARCH_PATHS) and drops empty ones.
func splitPathLists(paths []string) []string {
	out := []string{}
	for _, p := range paths {
		for _, part := range filepath.SplitList(p) {
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// findConfigFile returns the explicit path, else the first of
// ConfigFileNames present in the working directory, else "".
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func isFlagSet(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
