package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stack-backup/src/backupstore"
	"stack-backup/src/manifest"
	"stack-backup/src/topology"
)

type verifyResult struct {
	Name      string                `json:"name"`
	SetupType topology.SetupType    `json:"setup_type,omitempty"`
	Status    string                `json:"status"`
	Files     []manifest.FileResult `json:"files,omitempty"`
}

func newVerifyCmd(stdout, stderr io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "verify [name]",
		Short: "Verify artifact checksums for one backup or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}

			var targets []backupstore.Entry
			if len(args) == 1 {
				m, err := store.Load(args[0])
				if err != nil {
					return err
				}
				targets = append(targets, backupstore.Entry{Metadata: m})
			} else {
				targets, err = store.List()
				if err != nil {
					return err
				}
			}

			results := make([]verifyResult, 0, len(targets))
			for _, e := range targets {
				r := verifyResult{Name: e.Name, SetupType: e.SetupType}
				vr, err := manifest.Verify(store.Dir(e.Name))
				switch {
				case err != nil:
					r.Status = "no-manifest"
				case vr.Valid:
					r.Status = "ok"
					r.Files = vr.Files
				default:
					r.Status = "mismatch"
					r.Files = vr.Files
				}
				results = append(results, r)
			}

			switch output {
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			default:
				tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSETUP\tSTATUS")
				for _, r := range results {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.SetupType, r.Status)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				for _, r := range results {
					for _, f := range r.Files {
						if f.Status == manifest.StatusOK {
							fmt.Fprintf(stdout, "- %s: ok\n", f.Name)
							continue
						}
						fmt.Fprintf(stdout, "- %s: %s (expected %s, got %s)\n", f.Name, f.Status, f.Expected, f.Actual)
					}
				}
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}
