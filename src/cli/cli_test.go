package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stack-backup/src/backupstore"
	"stack-backup/src/cli"
	"stack-backup/src/dockerapi"
	"stack-backup/src/manifest"
	"stack-backup/src/topology"
)

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cli.NewRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// seedBackup writes a complete backup with real artifacts and a manifest.
func seedBackup(t *testing.T, root string, createdAt time.Time, tags ...backupstore.Tag) string {
	t.Helper()
	s, err := backupstore.Open(root)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	name, err := s.AllocateName(createdAt)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	dir := s.Dir(name)
	files := []string{"database.sql", "config.php"}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("content of "+f+"\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
	if err := manifest.Write(dir, files); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	meta := backupstore.Metadata{
		Name:      name,
		SetupType: topology.SetupFresh,
		Database:  "moodle",
		Tags:      tags,
		CreatedAt: createdAt,
	}
	if err := s.SaveMetadata(meta); err != nil {
		t.Fatalf("save metadata: %v", err)
	}
	return name
}

func TestVerify_Table(t *testing.T) {
	root := t.TempDir()
	good := seedBackup(t, root, baseTime)
	bad := seedBackup(t, root, baseTime.Add(time.Minute))
	if err := os.WriteFile(filepath.Join(root, bad, "database.sql"), []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	stdout, _, err := runCLI(t, "verify", "--backup-root", root)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	for _, want := range []string{"NAME", good, bad, "ok", "mismatch"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stdout, "- database.sql: mismatch") {
		t.Errorf("missing per-file mismatch detail:\n%s", stdout)
	}
}

func TestVerify_JSON(t *testing.T) {
	root := t.TempDir()
	name := seedBackup(t, root, baseTime)

	stdout, _, err := runCLI(t, "verify", name, "--backup-root", root, "-o", "json")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	var results []struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(stdout), &results); err != nil {
		t.Fatalf("bad json output %q: %v", stdout, err)
	}
	if len(results) != 1 || results[0].Name != name || results[0].Status != "ok" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestVerify_UnknownBackup(t *testing.T) {
	_, _, err := runCLI(t, "verify", "backup_20990101_000000", "--backup-root", t.TempDir())
	if !errors.Is(err, backupstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTag_AddsProtection(t *testing.T) {
	root := t.TempDir()
	name := seedBackup(t, root, baseTime)

	stdout, _, err := runCLI(t, "tag", name, "milestone:release1", "--backup-root", root)
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	if !strings.Contains(stdout, "Tagged "+name) {
		t.Fatalf("unexpected output %q", stdout)
	}

	s, err := backupstore.Open(root)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	m, err := s.Load(name)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !m.Protected() {
		t.Fatal("tagged backup should be protected")
	}
}

func TestTag_RejectsUnknownTag(t *testing.T) {
	root := t.TempDir()
	name := seedBackup(t, root, baseTime)
	if _, _, err := runCLI(t, "tag", name, "favorite", "--backup-root", root); err == nil {
		t.Fatal("unknown tag should be rejected")
	}
}

func TestRotate_DryRunDeletesNothing(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 3; i++ {
		seedBackup(t, root, baseTime.Add(time.Duration(i)*time.Minute))
	}

	stdout, _, err := runCLI(t, "rotate", "--max", "1", "--dry-run", "--backup-root", root)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if got := strings.Count(stdout, "delete"); got != 2 {
		t.Fatalf("expected 2 delete rows, got %d:\n%s", got, stdout)
	}

	s, _ := backupstore.Open(root)
	entries, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("dry run deleted backups: %d remain", len(entries))
	}
}

func TestRotate_YesApplies(t *testing.T) {
	root := t.TempDir()
	keep := seedBackup(t, root, baseTime.Add(time.Hour))
	for i := 0; i < 2; i++ {
		seedBackup(t, root, baseTime.Add(time.Duration(i)*time.Minute))
	}

	stdout, _, err := runCLI(t, "rotate", "--max", "1", "-y", "--backup-root", root)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if !strings.Contains(stdout, "Removed 2 backup(s)") {
		t.Fatalf("unexpected output %q", stdout)
	}

	s, _ := backupstore.Open(root)
	entries, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != keep {
		t.Fatalf("expected only %s to remain, got %+v", keep, entries)
	}
}

func TestRotate_NothingToDo(t *testing.T) {
	root := t.TempDir()
	seedBackup(t, root, baseTime)

	stdout, _, err := runCLI(t, "rotate", "--max", "5", "--backup-root", root)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if !strings.Contains(stdout, "Nothing to rotate") {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestStatus_InventoryAndPointers(t *testing.T) {
	root := t.TempDir()
	name := seedBackup(t, root, baseTime, backupstore.TagDefault)

	stdout, _, err := runCLI(t, "status", "--backup-root", root)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{
		"NAME", name, "valid",
		"latest default: " + name,
		"latest baseline: -",
		"running topology:",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestStatus_ReportsRunningTopology(t *testing.T) {
	fake := dockerapi.NewFake()
	fake.Containers = []dockerapi.Container{
		{Name: "moodle-mariadb-fresh", State: "running"},
		{Name: "moodle-app-fresh", State: "running"},
	}
	restoreClient := cli.SetDockerClientForTest(func() dockerapi.Client { return fake })
	defer restoreClient()

	root := t.TempDir()
	seedBackup(t, root, baseTime)

	stdout, _, err := runCLI(t, "status", "--backup-root", root)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "running topology: fresh") {
		t.Fatalf("running topology not reported:\n%s", stdout)
	}
}

func TestStatus_FlagsIncompleteBackup(t *testing.T) {
	root := t.TempDir()
	seedBackup(t, root, baseTime)
	if err := os.Mkdir(filepath.Join(root, "backup_20250301_110000"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	stdout, _, err := runCLI(t, "status", "--backup-root", root)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "incomplete") {
		t.Fatalf("incomplete backup not flagged:\n%s", stdout)
	}
}
