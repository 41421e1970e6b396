package retention_test

import (
	"path/filepath"
	"testing"
	"time"

	"stack-backup/src/backupstore"
	"stack-backup/src/retention"
	"stack-backup/src/topology"
)

var baseTime = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func seedStore(t *testing.T, n int, protect map[int]backupstore.Tag) (*backupstore.Store, []string) {
	t.Helper()
	s, err := backupstore.Open(filepath.Join(t.TempDir(), "backups"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		created := baseTime.Add(time.Duration(i) * time.Minute)
		name, err := s.AllocateName(created)
		if err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
		meta := backupstore.Metadata{
			Name:      name,
			SetupType: topology.SetupFresh,
			CreatedAt: created,
		}
		if tag, ok := protect[i]; ok {
			meta.Tags = []backupstore.Tag{tag}
		}
		if err := s.SaveMetadata(meta); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		names[i] = name
	}
	return s, names
}

func TestRotate_RemovesOverflowOldestFirst(t *testing.T) {
	s, names := seedStore(t, 12, nil)

	removed, err := retention.Rotate(s, 10)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	// The two oldest fall outside the window.
	if len(removed) != 2 {
		t.Fatalf("removed %d backups, want 2: %v", len(removed), removed)
	}
	want := map[string]bool{names[0]: true, names[1]: true}
	for _, name := range removed {
		if !want[name] {
			t.Errorf("unexpectedly removed %s", name)
		}
	}
	entries, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("%d backups remain, want 10", len(entries))
	}
}

func TestRotate_ProtectedBackupSurvivesAndCounts(t *testing.T) {
	s, names := seedStore(t, 12, map[int]backupstore.Tag{
		0: backupstore.MilestoneTag("release1"),
	})

	removed, err := retention.Rotate(s, 10)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	// The protected oldest backup stays and still occupies a slot, so only
	// the other overflow backup goes.
	if len(removed) != 1 || removed[0] != names[1] {
		t.Fatalf("removed %v, want only %s", removed, names[1])
	}
	if _, err := s.Load(names[0]); err != nil {
		t.Fatalf("protected backup gone: %v", err)
	}
}

func TestPlan_UnderLimitIsNoOp(t *testing.T) {
	s, _ := seedStore(t, 3, nil)

	candidates, err := retention.Plan(s, 10)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("unexpected candidates %v", candidates)
	}
}

func TestPlan_RejectsNonPositiveLimit(t *testing.T) {
	s, _ := seedStore(t, 1, nil)
	if _, err := retention.Plan(s, 0); err == nil {
		t.Fatal("limit 0 should be rejected")
	}
}
