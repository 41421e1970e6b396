package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stack-backup/src/backupstore"
	"stack-backup/src/config"
	"stack-backup/src/dbadmin"
	"stack-backup/src/dockerapi"
	"stack-backup/src/logging"
	"stack-backup/src/safety"
)

// addGlobalFlags adds the persistent configuration and safety flags.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Path to a config file (default: search stack-backup.yaml)")
	cmd.PersistentFlags().String("backup-root", "", "Override the backup root directory")
	cmd.PersistentFlags().String("log-level", "", "Override the log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("dry-run", false, "Show planned actions without making changes")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Assume 'yes' to prompts and run non-interactively")
	cmd.PersistentFlags().Bool("force", false, "Force potentially dangerous operations")
}

// getSafetyOptions reads the global flags into a safety.Options struct.
func getSafetyOptions(cmd *cobra.Command) safety.Options {
	dry, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
	yes, _ := cmd.Root().PersistentFlags().GetBool("yes")
	force, _ := cmd.Root().PersistentFlags().GetBool("force")
	return safety.Options{DryRun: dry, Yes: yes, Force: force}
}

// loadConfig builds the effective configuration: file and environment
// layers, then flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if root, _ := cmd.Root().PersistentFlags().GetString("backup-root"); root != "" {
		cfg.BackupRoot = root
	}
	if level, _ := cmd.Root().PersistentFlags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

// openStore prepares what the store-only commands need.
func openStore(cmd *cobra.Command) (*backupstore.Store, config.Config, zerolog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, zerolog.Nop(), err
	}
	store, err := backupstore.Open(cfg.BackupRoot)
	if err != nil {
		return nil, config.Config{}, zerolog.Nop(), err
	}
	return store, cfg, logging.New(cmd.ErrOrStderr(), cfg.LogLevel), nil
}

// newDockerClient builds the container-engine client. Every command goes
// through this one constructor.
var newDockerClient = func() dockerapi.Client { return dockerapi.NewReal() }

// SetDockerClientForTest allows tests to stub the container-engine client.
// The returned function restores the previous constructor.
func SetDockerClientForTest(fn func() dockerapi.Client) func() {
	prev := newDockerClient
	newDockerClient = fn
	return func() {
		newDockerClient = prev
	}
}

// openRuntime additionally wires the container-engine and database clients.
func openRuntime(cmd *cobra.Command) (*backupstore.Store, config.Config, zerolog.Logger, dockerapi.Client, dbadmin.Admin, error) {
	store, cfg, log, err := openStore(cmd)
	if err != nil {
		return nil, config.Config{}, zerolog.Nop(), nil, nil, err
	}
	docker := newDockerClient()
	return store, cfg, log, docker, dbadmin.NewMariaDB(docker), nil
}
