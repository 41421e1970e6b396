package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stack-backup/src/backup"
	"stack-backup/src/backupstore"
	"stack-backup/src/capture"
)

func newCreateCmd(stdout, stderr io.Writer) *cobra.Command {
	var tagStrs []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a backup of the running stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := make([]backupstore.Tag, 0, len(tagStrs))
			for _, s := range tagStrs {
				t, err := backupstore.ParseTag(s)
				if err != nil {
					return err
				}
				tags = append(tags, t)
			}

			store, cfg, log, docker, db, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			mgr := &backup.Manager{
				Store:  store,
				Docker: docker,
				DB:     db,
				Log:    log,
				Capture: capture.Options{
					ComposeDir:   cfg.ComposeDir,
					ExportImages: cfg.ExportImages,
				},
			}
			meta, err := mgr.Create(cmd.Context(), tags)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Created %s (%s, %d artifacts)\n", meta.Name, meta.SetupType, len(meta.Artifacts))
			if len(meta.Tags) > 0 {
				strs := make([]string, len(meta.Tags))
				for i, t := range meta.Tags {
					strs[i] = string(t)
				}
				fmt.Fprintf(stdout, "Tags: %s\n", strings.Join(strs, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&tagStrs, "tag", nil,
		"Tag the new backup (default|baseline|production|milestone:<label>); repeatable")
	return cmd
}
