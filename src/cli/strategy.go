package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stack-backup/src/backup"
	"stack-backup/src/capture"
	"stack-backup/src/gitapi"
	"stack-backup/src/healthcheck"
	"stack-backup/src/restore"
	"stack-backup/src/strategy"
)

func newStrategyCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "strategy <" + strings.Join(strategy.UseCases, "|") + "> [args]",
		Short: "Run a pre-composed backup/restore sequence for a use case",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, log, docker, db, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			backupMgr := &backup.Manager{
				Store:  store,
				Docker: docker,
				DB:     db,
				Log:    log,
				Capture: capture.Options{
					ComposeDir:   cfg.ComposeDir,
					ExportImages: cfg.ExportImages,
				},
			}
			restoreMgr := &restore.Manager{
				Store:      store,
				Docker:     docker,
				DB:         db,
				Health:     healthcheck.NewHTTP(),
				Log:        log,
				ComposeDir: cfg.ComposeDir,
				Timeouts: restore.Timeouts{
					DatabaseReady:    cfg.DatabaseReadyTimeout,
					ApplicationReady: cfg.ApplicationReadyTimeout,
					Reachability:     cfg.ReachabilityTimeout,
				},
				PollInterval: cfg.PollInterval,
			}
			runner := &strategy.Runner{
				Store:      store,
				Backup:     backupMgr,
				Restore:    restoreMgr,
				Docker:     docker,
				Git:        gitapi.NewReal(),
				Log:        log,
				Out:        stdout,
				ComposeDir: cfg.ComposeDir,
				RepoDir:    cfg.RepoDir,
				MaxBackups: cfg.MaxBackups,
			}
			return runner.Run(cmd.Context(), args[0], args[1:])
		},
	}
}
