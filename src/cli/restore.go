package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stack-backup/src/healthcheck"
	"stack-backup/src/restore"
	"stack-backup/src/safety"
)

func newRestoreCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Tear down the running stack and restore a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			store, cfg, log, docker, db, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			// Fail before any teardown when the backup does not exist.
			if _, err := store.Load(name); err != nil {
				return err
			}

			opts := getSafetyOptions(cmd)
			if opts.DryRun {
				fmt.Fprintf(stdout, "dry-run: would tear down the stack and restore %s\n", name)
				return nil
			}
			ok, err := safety.Confirm(opts, os.Stdin, stdout,
				fmt.Sprintf("Tear down the running stack and restore %q?", name))
			if err != nil || !ok {
				return err
			}

			mgr := &restore.Manager{
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
			result, err := mgr.Restore(cmd.Context(), name)
			if err != nil {
				if len(result.Completed) > 0 {
					fmt.Fprintf(stderr, "completed steps before failure: %v\n", result.Completed)
				}
				return err
			}

			if len(result.Warnings) > 0 {
				for _, w := range result.Warnings {
					fmt.Fprintf(stdout, "warning: %s\n", w)
				}
				fmt.Fprintf(stdout, "Restored %s with %d warning(s)\n", name, len(result.Warnings))
				return nil
			}
			fmt.Fprintf(stdout, "Restored %s\n", name)
			return nil
		},
	}
}
