package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stack-backup/src/backupstore"
	"stack-backup/src/manifest"
	"stack-backup/src/topology"
)

func newStatusCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backup inventory, pointers, and the running topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSETUP\tCREATED\tSIZE\tTAGS\tSTATUS")
			for _, e := range entries {
				status := "valid"
				if e.Incomplete {
					status = "incomplete"
				} else if vr, err := manifest.Verify(store.Dir(e.Name)); err != nil || !vr.Valid {
					status = "invalid"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Name, e.SetupType, formatCreated(e), formatSize(e.SizeBytes), formatTags(e.Tags), status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			for _, p := range []struct {
				label   string
				pointer backupstore.Pointer
			}{
				{"latest default", backupstore.PointerDefault},
				{"latest baseline", backupstore.PointerBaseline},
			} {
				target, err := store.PointerTarget(p.pointer)
				if err != nil {
					return err
				}
				if target == "" {
					target = "-"
				}
				fmt.Fprintf(stdout, "%s: %s\n", p.label, target)
			}

			// Best effort: the inventory is useful even with no engine around.
			running := "none"
			if topo, err := topology.Detect(cmd.Context(), newDockerClient()); err == nil {
				running = string(topo.Setup)
			}
			fmt.Fprintf(stdout, "running topology: %s\n", running)
			return nil
		},
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
