package strategy_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stack-backup/src/backup"
	"stack-backup/src/backupstore"
	"stack-backup/src/capture"
	"stack-backup/src/dbadmin"
	"stack-backup/src/dockerapi"
	"stack-backup/src/gitapi"
	"stack-backup/src/healthcheck"
	"stack-backup/src/restore"
	"stack-backup/src/strategy"
	"stack-backup/src/topology"
)

const freshCompose = `services:
  mariadb:
    image: docker.io/bitnami/mariadb:10.6
    container_name: moodle-mariadb-fresh
  moodle:
    image: docker.io/bitnami/moodle:4.1
    container_name: moodle-app-fresh
`

type fixture struct {
	store  *backupstore.Store
	docker *dockerapi.FakeClient
	git    *gitapi.FakeClient
	out    *bytes.Buffer
	runner *strategy.Runner

	composeDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	topo, _ := topology.BySetup(topology.SetupFresh)
	app := topo.Container(topology.RoleApplication)

	fake := dockerapi.NewFake()
	fake.Containers = []dockerapi.Container{
		{Name: topo.Container(topology.RoleDatabase), State: "running"},
		{Name: app, State: "running"},
	}
	fake.AddDir(app, topo.Paths.AppTree)
	fake.AddDir(app, topo.Paths.DataDir)
	fake.SetFile(app, topo.Paths.ConfigFile, []byte("<?php\n"))

	composeDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(composeDir, topo.ComposeFile), []byte(freshCompose), 0o644); err != nil {
		t.Fatalf("write compose file: %v", err)
	}

	store, err := backupstore.Open(filepath.Join(t.TempDir(), "backups"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	db := dbadmin.NewFakeAdmin()

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	backupMgr := &backup.Manager{
		Store:   store,
		Docker:  fake,
		DB:      db,
		Capture: capture.Options{ComposeDir: composeDir},
		Log:     zerolog.Nop(),
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	}
	restoreMgr := &restore.Manager{
		Store:        store,
		Docker:       fake,
		DB:           db,
		Health:       &healthcheck.FakeProber{},
		Log:          zerolog.Nop(),
		ComposeDir:   composeDir,
		Timeouts:     restore.DefaultTimeouts(),
		PollInterval: time.Millisecond,
	}

	git := gitapi.NewFake()
	out := &bytes.Buffer{}
	return &fixture{
		store:      store,
		docker:     fake,
		git:        git,
		out:        out,
		composeDir: composeDir,
		runner: &strategy.Runner{
			Store:      store,
			Backup:     backupMgr,
			Restore:    restoreMgr,
			Docker:     fake,
			Git:        git,
			Log:        zerolog.Nop(),
			Out:        out,
			ComposeDir: composeDir,
			RepoDir:    t.TempDir(),
			MaxBackups: 10,
		},
	}
}

func onlyBackup(t *testing.T, s *backupstore.Store) backupstore.Metadata {
	t.Helper()
	entries, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one backup, got %d", len(entries))
	}
	return entries[0].Metadata
}

func TestRun_Development(t *testing.T) {
	f := newFixture(t)
	if err := f.runner.Run(context.Background(), "development", nil); err != nil {
		t.Fatalf("development: %v", err)
	}
	meta := onlyBackup(t, f.store)
	if !strings.Contains(f.out.String(), "created "+meta.Name) {
		t.Fatalf("unexpected output %q", f.out.String())
	}
}

func TestRun_Milestone(t *testing.T) {
	f := newFixture(t)
	if err := f.runner.Run(context.Background(), "milestone", []string{"release1"}); err != nil {
		t.Fatalf("milestone: %v", err)
	}
	meta := onlyBackup(t, f.store)
	if !meta.HasTag(backupstore.MilestoneTag("release1")) {
		t.Fatalf("milestone tag missing: %v", meta.Tags)
	}
	if !meta.Protected() {
		t.Fatal("milestone backup should be protected")
	}
	if len(f.git.Tags) != 1 || f.git.Tags[0] != "backup/"+meta.Name {
		t.Fatalf("git tags = %v, want backup/%s", f.git.Tags, meta.Name)
	}
}

func TestRun_MilestoneNeedsLabel(t *testing.T) {
	f := newFixture(t)
	if err := f.runner.Run(context.Background(), "milestone", nil); err == nil {
		t.Fatal("milestone without a label should fail")
	}
}

func TestRun_ProductionPair(t *testing.T) {
	f := newFixture(t)
	if err := f.runner.Run(context.Background(), "production", nil); err != nil {
		t.Fatalf("production: %v", err)
	}
	entries, err := f.store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected a backup pair, got %d", len(entries))
	}
	for _, e := range entries {
		if !e.HasTag(backupstore.TagProduction) {
			t.Errorf("%s missing production tag", e.Name)
		}
	}
	// entries are newest-first, so the secondary is first.
	secondary, primary := entries[0].Name, entries[1].Name
	note, err := os.ReadFile(filepath.Join(f.store.Dir(secondary), "redundancy.txt"))
	if err != nil {
		t.Fatalf("redundancy note missing: %v", err)
	}
	if !strings.Contains(string(note), primary) {
		t.Fatalf("redundancy note %q does not reference %s", note, primary)
	}
}

func TestRun_TestingReprovisionsAndBaselines(t *testing.T) {
	f := newFixture(t)
	if err := f.runner.Run(context.Background(), "testing", nil); err != nil {
		t.Fatalf("testing: %v", err)
	}
	live := filepath.Join(f.composeDir, "docker-compose.fresh.yml")
	if len(f.docker.ComposeDowns) != 1 || f.docker.ComposeDowns[0] != live {
		t.Fatalf("reprovision teardown = %v, want %s", f.docker.ComposeDowns, live)
	}
	if len(f.docker.ComposeUps) != 1 || f.docker.ComposeUps[0] != live {
		t.Fatalf("reprovision start = %v, want %s", f.docker.ComposeUps, live)
	}
	meta := onlyBackup(t, f.store)
	if !meta.HasTag(backupstore.TagBaseline) {
		t.Fatalf("baseline tag missing: %v", meta.Tags)
	}
	target, err := f.store.PointerTarget(backupstore.PointerBaseline)
	if err != nil {
		t.Fatalf("pointer: %v", err)
	}
	if target != meta.Name {
		t.Fatalf("baseline pointer = %q, want %q", target, meta.Name)
	}
}

func TestRun_TeamRecordsInVersionControl(t *testing.T) {
	f := newFixture(t)
	if err := f.runner.Run(context.Background(), "team", nil); err != nil {
		t.Fatalf("team: %v", err)
	}
	meta := onlyBackup(t, f.store)
	if len(f.git.Commits) != 1 || !strings.Contains(f.git.Commits[0], meta.Name) {
		t.Fatalf("commits = %v, want a record of %s", f.git.Commits, meta.Name)
	}
	if len(f.git.Tags) != 1 || f.git.Tags[0] != "team/"+meta.Name {
		t.Fatalf("tags = %v, want team/%s", f.git.Tags, meta.Name)
	}
}

func TestRun_Automated(t *testing.T) {
	f := newFixture(t)
	if err := f.runner.Run(context.Background(), "automated", nil); err != nil {
		t.Fatalf("automated: %v", err)
	}
	meta := onlyBackup(t, f.store)
	want := "created " + meta.Name + ", rotated out 0, verified"
	if !strings.Contains(f.out.String(), want) {
		t.Fatalf("output %q missing %q", f.out.String(), want)
	}
}

func TestRun_UnknownUseCase(t *testing.T) {
	f := newFixture(t)
	if err := f.runner.Run(context.Background(), "bogus", nil); err == nil {
		t.Fatal("unknown use case should fail")
	}
}
