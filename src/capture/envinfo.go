package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"stack-backup/src/dbadmin"
	"stack-backup/src/dockerapi"
	"stack-backup/src/topology"
)

// EnvFile is the advisory environment snapshot inside a backup directory.
// It exists for human diagnosis only; restore never reads it.
const EnvFile = "environment.txt"

// WriteEnvironment records engine version, the running container table, and
// the database table count at capture time.
func WriteEnvironment(ctx context.Context, docker dockerapi.Client, db dbadmin.Admin, topo topology.Topology, dir string, now time.Time) error {
	f, err := os.Create(filepath.Join(dir, EnvFile))
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "captured at: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(f, "setup type:  %s\n", topo.Setup)

	if version, err := docker.Version(ctx); err == nil {
		fmt.Fprintf(f, "engine:      %s\n", version)
	} else {
		fmt.Fprintf(f, "engine:      unavailable (%v)\n", err)
	}
	if count, err := db.TableCount(ctx, topo); err == nil {
		fmt.Fprintf(f, "tables:      %d\n", count)
	} else {
		fmt.Fprintf(f, "tables:      unavailable (%v)\n", err)
	}

	containers, err := docker.ListContainers(ctx)
	if err != nil {
		fmt.Fprintf(f, "\ncontainers unavailable: %v\n", err)
		return nil
	}
	fmt.Fprintln(f)
	tw := tabwriter.NewWriter(f, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tIMAGE\tSTATE")
	for _, c := range containers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Image, c.State)
	}
	return tw.Flush()
}
