package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stack-backup/src/backupstore"
	"stack-backup/src/retention"
	"stack-backup/src/safety"
)

func newRotateCmd(stdout, stderr io.Writer) *cobra.Command {
	var max int
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Delete old unprotected backups beyond the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, log, err := openStore(cmd)
			if err != nil {
				return err
			}
			if max == 0 {
				max = cfg.MaxBackups
			}
			candidates, err := retention.Plan(store, max)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSETUP\tCREATED\tACTION")
			for _, e := range candidates {
				fmt.Fprintf(tw, "%s\t%s\t%s\tdelete\n", e.Name, e.SetupType, formatCreated(e))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Fprintln(stdout, "Nothing to rotate")
				return nil
			}

			opts := getSafetyOptions(cmd)
			if opts.DryRun {
				return nil
			}
			ok, err := safety.Confirm(opts, os.Stdin, stdout,
				fmt.Sprintf("Delete %d backup(s)?", len(candidates)))
			if err != nil || !ok {
				return err
			}
			for _, e := range candidates {
				if err := store.Remove(e.Name); err != nil {
					return err
				}
				log.Info().Str("name", e.Name).Msg("removed backup")
			}
			fmt.Fprintf(stdout, "Removed %d backup(s)\n", len(candidates))
			return nil
		},
	}
	cmd.Flags().IntVar(&max, "max", 0, "Number of backups to retain (default: configured max_backups)")
	return cmd
}

func formatCreated(e backupstore.Entry) string {
	if e.Incomplete || e.CreatedAt.IsZero() {
		return "-"
	}
	return e.CreatedAt.Format(time.DateTime)
}

func formatTags(tags []backupstore.Tag) string {
	if len(tags) == 0 {
		return "-"
	}
	strs := make([]string, len(tags))
	for i, t := range tags {
		strs[i] = string(t)
	}
	return strings.Join(strs, ",")
}
