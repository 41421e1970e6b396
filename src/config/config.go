package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first file found wins.
var DefaultConfigPaths = []string{
	"stack-backup.yaml",
	"stack-backup.yml",
	"/etc/stack-backup/config.yaml",
}

// envPrefix namespaces the environment overrides, e.g.
// STACKBACKUP_BACKUP_ROOT, STACKBACKUP_MAX_BACKUPS.
const envPrefix = "STACKBACKUP_"

// Config is the process-wide configuration. Precedence: environment over
// file over defaults.
type Config struct {
	BackupRoot   string        `koanf:"backup_root"`
	ComposeDir   string        `koanf:"compose_dir"`
	RepoDir      string        `koanf:"repo_dir"`
	MaxBackups   int           `koanf:"max_backups"`
	ExportImages bool          `koanf:"export_images"`
	LogLevel     string        `koanf:"log_level"`
	PollInterval time.Duration `koanf:"poll_interval"`

	DatabaseReadyTimeout    time.Duration `koanf:"database_ready_timeout"`
	ApplicationReadyTimeout time.Duration `koanf:"application_ready_timeout"`
	ReachabilityTimeout     time.Duration `koanf:"reachability_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BackupRoot:   "./backups",
		ComposeDir:   ".",
		RepoDir:      ".",
		MaxBackups:   10,
		ExportImages: false,
		LogLevel:     "info",
		PollInterval: time.Second,

		DatabaseReadyTimeout:    60 * time.Second,
		ApplicationReadyTimeout: 180 * time.Second,
		ReachabilityTimeout:     120 * time.Second,
	}
}

// Load builds the layered configuration. An explicit path must exist; an
// empty path searches DefaultConfigPaths and tolerates finding nothing.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engines cannot work with.
func (c Config) Validate() error {
	if c.BackupRoot == "" {
		return errors.New("backup_root must not be empty")
	}
	if c.MaxBackups <= 0 {
		return fmt.Errorf("max_backups must be > 0, got %d", c.MaxBackups)
	}
	for name, d := range map[string]time.Duration{
		"poll_interval":             c.PollInterval,
		"database_ready_timeout":    c.DatabaseReadyTimeout,
		"application_ready_timeout": c.ApplicationReadyTimeout,
		"reachability_timeout":      c.ReachabilityTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0, got %s", name, d)
		}
	}
	return nil
}

func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
