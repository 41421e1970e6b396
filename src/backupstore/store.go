package backupstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// NamePrefix starts every backup directory name.
const NamePrefix = "backup"

// ErrNotFound is returned when a named backup does not exist.
var ErrNotFound = errors.New("backup not found")

const metadataFile = "metadata.json"

// Marker files generated from tags for operators browsing the directory.
// They are write-only: rotation and everything else reads metadata.json.
const (
	markerDefault   = "default_setup.txt"
	markerMilestone = "milestone.txt"
	markerBaseline  = "test_baseline.txt"
)

// Pointer names a root-level reference resolvable to one backup name.
type Pointer string

const (
	PointerDefault  Pointer = "latest_default.txt"
	PointerBaseline Pointer = "latest_baseline.txt"
)

// Store is the directory tree holding all backups. At most one process is
// assumed to mutate a store at a time; no locking is provided.
type Store struct {
	Root string
}

// Open ensures the backup root exists and returns the store.
func Open(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("backup root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create backup root: %w", err)
	}
	return &Store{Root: root}, nil
}

// Dir returns the directory for a backup name.
func (s *Store) Dir(name string) string {
	return filepath.Join(s.Root, name)
}

// AllocateName claims a fresh backup directory named after the timestamp.
// When a second-resolution name collides, a counter suffix keeps names
// unique; a directory name is never reused.
func (s *Store) AllocateName(now time.Time) (string, error) {
	base := fmt.Sprintf("%s_%s", NamePrefix, now.Format("20060102_150405"))
	name := base
	for i := 2; ; i++ {
		err := os.Mkdir(s.Dir(name), 0o755)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("allocate backup dir: %w", err)
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

// SaveMetadata writes the metadata record, regenerates tag markers, and
// updates the default/baseline pointers. Setting the default tag clears it
// from every other backup (exactly one default at a time).
func (s *Store) SaveMetadata(m Metadata) error {
	if m.Name == "" {
		return errors.New("metadata has no name")
	}
	if m.HasTag(TagDefault) {
		if err := s.clearDefault(m.Name); err != nil {
			return err
		}
	}
	if err := writeJSON(filepath.Join(s.Dir(m.Name), metadataFile), m); err != nil {
		return err
	}
	if err := s.syncMarkers(m); err != nil {
		return err
	}
	if m.HasTag(TagDefault) {
		if err := s.SetPointer(PointerDefault, m.Name); err != nil {
			return err
		}
	}
	if m.HasTag(TagBaseline) {
		if err := s.SetPointer(PointerBaseline, m.Name); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a backup's metadata. A missing directory is ErrNotFound; a
// directory without a readable record is reported as incomplete.
func (s *Store) Load(name string) (Metadata, error) {
	if _, err := os.Stat(s.Dir(name)); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	var m Metadata
	raw, err := os.ReadFile(filepath.Join(s.Dir(name), metadataFile))
	if err != nil {
		return Metadata{}, fmt.Errorf("backup %s is incomplete: %w", name, err)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("backup %s metadata: %w", name, err)
	}
	return m, nil
}

// List discovers every backup directory, newest first. Directories without
// a metadata record sort last and are flagged incomplete.
func (s *Store) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, d := range dirents {
		if !d.IsDir() || !strings.HasPrefix(d.Name(), NamePrefix+"_") {
			continue
		}
		e := Entry{SizeBytes: dirSize(s.Dir(d.Name()))}
		m, err := s.Load(d.Name())
		if err != nil {
			e.Metadata = Metadata{Name: d.Name()}
			e.Incomplete = true
		} else {
			e.Metadata = m
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Incomplete != b.Incomplete {
			return b.Incomplete
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Name > b.Name
	})
	return entries, nil
}

// AddTag appends a tag to an existing backup. Tagging is append-only; the
// only mutation of other backups is clearing a superseded default.
func (s *Store) AddTag(name string, tag Tag) error {
	m, err := s.Load(name)
	if err != nil {
		return err
	}
	if m.HasTag(tag) {
		return nil
	}
	m.Tags = append(m.Tags, tag)
	return s.SaveMetadata(m)
}

// Remove deletes a backup directory. It never touches pointers or external
// replicas.
func (s *Store) Remove(name string) error {
	if _, err := os.Stat(s.Dir(name)); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return os.RemoveAll(s.Dir(name))
}

// SetPointer points a root-level reference at a backup name.
func (s *Store) SetPointer(p Pointer, name string) error {
	return os.WriteFile(filepath.Join(s.Root, string(p)), []byte(name+"\n"), 0o644)
}

// PointerTarget resolves a pointer; empty when the pointer was never set.
func (s *Store) PointerTarget(p Pointer) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.Root, string(p)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *Store) clearDefault(except string) error {
	entries, err := s.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Incomplete || e.Name == except || !e.HasTag(TagDefault) {
			continue
		}
		kept := e.Tags[:0]
		for _, t := range e.Tags {
			if t != TagDefault {
				kept = append(kept, t)
			}
		}
		e.Metadata.Tags = kept
		if err := s.SaveMetadata(e.Metadata); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) syncMarkers(m Metadata) error {
	dir := s.Dir(m.Name)
	want := map[string]string{}
	if m.HasTag(TagDefault) {
		want[markerDefault] = fmt.Sprintf("default setup: %s\n", m.Name)
	}
	if m.HasTag(TagBaseline) {
		want[markerBaseline] = fmt.Sprintf("test baseline: %s\n", m.Name)
	}
	for _, t := range m.Tags {
		if label, ok := t.IsMilestone(); ok {
			want[markerMilestone] = fmt.Sprintf("milestone: %s\nbackup: %s\n", label, m.Name)
		}
	}
	for _, marker := range []string{markerDefault, markerMilestone, markerBaseline} {
		path := filepath.Join(dir, marker)
		content, keep := want[marker]
		if !keep {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
