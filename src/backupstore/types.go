package backupstore

import (
	"fmt"
	"strings"
	"time"

	"stack-backup/src/topology"
)

// Kind classifies a captured artifact.
type Kind string

const (
	KindDatabaseDump  Kind = "database-dump"
	KindFilesystemTar Kind = "filesystem-tar"
	KindConfigCopy    Kind = "config-copy"
	KindImageExport   Kind = "image-export"
)

// Tag marks a backup. Any tag makes the backup protected: exempt from
// rotation deletion.
type Tag string

const (
	TagDefault    Tag = "default"
	TagBaseline   Tag = "baseline"
	TagProduction Tag = "production"

	milestonePrefix = "milestone:"
)

// MilestoneTag builds a milestone tag for a label.
func MilestoneTag(label string) Tag {
	return Tag(milestonePrefix + label)
}

// IsMilestone reports whether the tag is a milestone tag and returns its label.
func (t Tag) IsMilestone() (string, bool) {
	if strings.HasPrefix(string(t), milestonePrefix) {
		return strings.TrimPrefix(string(t), milestonePrefix), true
	}
	return "", false
}

// ParseTag validates user input into a Tag.
func ParseTag(s string) (Tag, error) {
	t := Tag(strings.TrimSpace(s))
	switch t {
	case TagDefault, TagBaseline, TagProduction:
		return t, nil
	}
	if label, ok := t.IsMilestone(); ok {
		if label == "" {
			return "", fmt.Errorf("milestone tag needs a label, e.g. milestone:release1")
		}
		return t, nil
	}
	return "", fmt.Errorf("unknown tag %q (want default, baseline, production, or milestone:<label>)", s)
}

// Artifact is one captured unit of state inside a backup.
type Artifact struct {
	Kind      Kind   `json:"kind"`
	Path      string `json:"path"` // relative to the backup directory
	Checksum  string `json:"checksum"`
	SizeBytes int64  `json:"size_bytes"`
}

// Metadata is the durable record written as metadata.json in every backup
// directory. It is the source of truth; tag marker files are generated
// from it, never read back.
type Metadata struct {
	Name       string                   `json:"name"`
	SetupType  topology.SetupType       `json:"setup_type"`
	Containers map[topology.Role]string `json:"containers"`
	Database   string                   `json:"database"`
	TableCount int                      `json:"table_count"`
	Artifacts  []Artifact               `json:"artifacts"`
	Tags       []Tag                    `json:"tags,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

// Protected reports whether any tag exempts the backup from rotation.
func (m Metadata) Protected() bool {
	return len(m.Tags) > 0
}

// HasTag reports whether the backup carries the exact tag.
func (m Metadata) HasTag(t Tag) bool {
	for _, have := range m.Tags {
		if have == t {
			return true
		}
	}
	return false
}

// Artifact returns the first artifact of the given kind, if any.
func (m Metadata) Artifact(k Kind) (Artifact, bool) {
	for _, a := range m.Artifacts {
		if a.Kind == k {
			return a, true
		}
	}
	return Artifact{}, false
}

// Entry is one backup as discovered on disk. Incomplete marks a directory
// that exists but has no readable metadata record (an aborted capture).
type Entry struct {
	Metadata
	Incomplete bool
	SizeBytes  int64
}
