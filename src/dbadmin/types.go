package dbadmin

import (
	"context"

	"stack-backup/src/topology"
)

// Admin is the narrow database-administration interface: logical dump,
// drop-and-replay restore, readiness probe, and a schema-size count used
// for diagnostics. One production implementation drives the database
// client inside the container; the fake is an in-memory store.
type Admin interface {
	// Ping reports whether the database accepts connections.
	Ping(ctx context.Context, topo topology.Topology) error

	// Dump writes a full logical dump (schema + data) to hostPath.
	Dump(ctx context.Context, topo topology.Topology, hostPath string) error

	// Restore drops the logical database if present and replays the dump
	// at hostPath.
	Restore(ctx context.Context, topo topology.Topology, hostPath string) error

	// TableCount returns the number of tables in the logical database.
	TableCount(ctx context.Context, topo topology.Topology) (int, error)
}
