package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stack-backup/src/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stack-backup.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackupRoot != "./backups" || cfg.MaxBackups != 10 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.DatabaseReadyTimeout != 60*time.Second || cfg.ApplicationReadyTimeout != 180*time.Second {
		t.Fatalf("unexpected timeout defaults %+v", cfg)
	}
	if cfg.ExportImages {
		t.Fatal("image export should be off by default")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
backup_root: /srv/backups
max_backups: 5
export_images: true
reachability_timeout: 30s
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BackupRoot != "/srv/backups" || cfg.MaxBackups != 5 || !cfg.ExportImages {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ReachabilityTimeout != 30*time.Second {
		t.Fatalf("reachability_timeout = %s, want 30s", cfg.ReachabilityTimeout)
	}
	// Untouched keys keep their defaults.
	if cfg.LogLevel != "info" {
		t.Fatalf("log_level = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	path := writeConfig(t, "max_backups: 5\n")
	t.Setenv("STACKBACKUP_MAX_BACKUPS", "3")
	t.Setenv("STACKBACKUP_POLL_INTERVAL", "250ms")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxBackups != 3 {
		t.Fatalf("max_backups = %d, want 3 from environment", cfg.MaxBackups)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("poll_interval = %s, want 250ms", cfg.PollInterval)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("explicit missing config file should fail")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	for name, content := range map[string]string{
		"zero retention":   "max_backups: 0\n",
		"empty root":       "backup_root: \"\"\n",
		"negative timeout": "database_ready_timeout: -1s\n",
	} {
		if _, err := config.Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
