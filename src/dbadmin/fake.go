package dbadmin

import (
	"context"
	"fmt"
	"os"

	"stack-backup/src/topology"
)

// FakeAdmin is an in-memory database for unit tests. The "database" is just
// the dump content it would produce; Restore replaces it from a file.
type FakeAdmin struct {
	// Contents holds the current dump content per setup type. Dump writes
	// it out; Restore overwrites it.
	Contents map[topology.SetupType]string
	// Tables is the table count reported per setup type.
	Tables map[topology.SetupType]int

	// PingFailures makes the first N pings fail, simulating startup.
	PingFailures int
	DumpErr      error
	RestoreErr   error

	PingCalls    int
	RestoredFrom []string
}

func NewFakeAdmin() *FakeAdmin {
	return &FakeAdmin{
		Contents: map[topology.SetupType]string{},
		Tables:   map[topology.SetupType]int{},
	}
}

func (f *FakeAdmin) Ping(ctx context.Context, topo topology.Topology) error {
	f.PingCalls++
	if f.PingCalls <= f.PingFailures {
		return fmt.Errorf("fake db: not ready (attempt %d)", f.PingCalls)
	}
	return nil
}

func (f *FakeAdmin) Dump(ctx context.Context, topo topology.Topology, hostPath string) error {
	if f.DumpErr != nil {
		return f.DumpErr
	}
	content, ok := f.Contents[topo.Setup]
	if !ok {
		content = "-- fake dump of " + topo.Database.Name + " (" + string(topo.Setup) + ")\n"
	}
	return os.WriteFile(hostPath, []byte(content), 0o644)
}

func (f *FakeAdmin) Restore(ctx context.Context, topo topology.Topology, hostPath string) error {
	if f.RestoreErr != nil {
		return f.RestoreErr
	}
	content, err := os.ReadFile(hostPath)
	if err != nil {
		return err
	}
	f.Contents[topo.Setup] = string(content)
	f.RestoredFrom = append(f.RestoredFrom, hostPath)
	return nil
}

func (f *FakeAdmin) TableCount(ctx context.Context, topo topology.Topology) (int, error) {
	return f.Tables[topo.Setup], nil
}
