package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stack-backup/src/backupstore"
)

func newTagCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <name> <tag>",
		Short: "Add a protection tag to an existing backup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := backupstore.ParseTag(args[1])
			if err != nil {
				return err
			}
			store, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			if err := store.AddTag(args[0], tag); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Tagged %s with %s\n", args[0], tag)
			return nil
		},
	}
}
