package dbadmin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"stack-backup/src/dockerapi"
	"stack-backup/src/topology"
)

const dumpScratch = "/tmp/stack-backup-dump.sql"

// MariaDB drives the mariadb client inside the database container through
// the container runtime. Dumps and restores go through an in-container
// scratch file that is removed afterwards, success or not.
type MariaDB struct {
	Docker dockerapi.Client
}

func NewMariaDB(docker dockerapi.Client) *MariaDB {
	return &MariaDB{Docker: docker}
}

func (m *MariaDB) Ping(ctx context.Context, topo topology.Topology) error {
	db := topo.Container(topology.RoleDatabase)
	_, err := m.Docker.Exec(ctx, db, []string{
		"mariadb-admin", "ping",
		"--user=" + topo.Database.User,
		"--password=" + topo.Database.Password,
		"--silent",
	})
	return err
}

func (m *MariaDB) Dump(ctx context.Context, topo topology.Topology, hostPath string) error {
	db := topo.Container(topology.RoleDatabase)
	dump := fmt.Sprintf(
		"mariadb-dump --user=%s --password=%s --single-transaction --routines --triggers --databases %s > %s",
		topo.Database.User, topo.Database.Password, topo.Database.Name, dumpScratch,
	)
	defer m.Docker.Exec(ctx, db, []string{"rm", "-f", dumpScratch})
	if _, err := m.Docker.Exec(ctx, db, []string{"sh", "-c", dump}); err != nil {
		return fmt.Errorf("dump database %s: %w", topo.Database.Name, err)
	}
	if err := m.Docker.CopyFrom(ctx, db, dumpScratch, hostPath); err != nil {
		return fmt.Errorf("copy dump out of %s: %w", db, err)
	}
	return nil
}

func (m *MariaDB) Restore(ctx context.Context, topo topology.Topology, hostPath string) error {
	db := topo.Container(topology.RoleDatabase)
	if err := m.Docker.CopyTo(ctx, hostPath, db, dumpScratch); err != nil {
		return fmt.Errorf("copy dump into %s: %w", db, err)
	}
	defer m.Docker.Exec(ctx, db, []string{"rm", "-f", dumpScratch})

	drop := fmt.Sprintf("DROP DATABASE IF EXISTS %s", topo.Database.Name)
	if _, err := m.Docker.Exec(ctx, db, []string{
		"mariadb",
		"--user=" + topo.Database.User,
		"--password=" + topo.Database.Password,
		"-e", drop,
	}); err != nil {
		return fmt.Errorf("drop database %s: %w", topo.Database.Name, err)
	}
	// The dump was taken with --databases, so it recreates the database.
	replay := fmt.Sprintf(
		"mariadb --user=%s --password=%s < %s",
		topo.Database.User, topo.Database.Password, dumpScratch,
	)
	if _, err := m.Docker.Exec(ctx, db, []string{"sh", "-c", replay}); err != nil {
		return fmt.Errorf("replay dump into %s: %w", topo.Database.Name, err)
	}
	return nil
}

func (m *MariaDB) TableCount(ctx context.Context, topo topology.Topology) (int, error) {
	db := topo.Container(topology.RoleDatabase)
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = '%s'",
		topo.Database.Name,
	)
	out, err := m.Docker.Exec(ctx, db, []string{
		"mariadb",
		"--user=" + topo.Database.User,
		"--password=" + topo.Database.Password,
		"-N", "-B", "-e", query,
	})
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("parse table count %q: %w", strings.TrimSpace(string(out)), err)
	}
	return n, nil
}
