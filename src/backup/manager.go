package backup

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"stack-backup/src/backupstore"
	"stack-backup/src/capture"
	"stack-backup/src/dbadmin"
	"stack-backup/src/dockerapi"
	"stack-backup/src/manifest"
	"stack-backup/src/topology"
)

// Manager orchestrates probe, capture, and manifest into one named backup.
type Manager struct {
	Store   *backupstore.Store
	Docker  dockerapi.Client
	DB      dbadmin.Admin
	Capture capture.Options
	Log     zerolog.Logger

	// Now is replaceable for tests; time.Now when nil.
	Now func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Create produces a new backup of the running topology. Strictly ordered:
// probe -> allocate name -> capture -> manifest -> metadata. On a capture
// failure the directory stays on disk without a manifest, so verification
// and listing flag it as incomplete rather than silently dropping it.
func (m *Manager) Create(ctx context.Context, tags []backupstore.Tag) (backupstore.Metadata, error) {
	topo, err := topology.Detect(ctx, m.Docker)
	if err != nil {
		return backupstore.Metadata{}, err
	}

	now := m.now()
	name, err := m.Store.AllocateName(now)
	if err != nil {
		return backupstore.Metadata{}, err
	}
	dir := m.Store.Dir(name)
	m.Log.Info().Str("name", name).Str("setup", string(topo.Setup)).Msg("creating backup")

	capturer := &capture.Capturer{Docker: m.Docker, DB: m.DB, Log: m.Log}
	artifacts, err := capturer.Run(ctx, topo, dir, m.Capture)
	if err != nil {
		return backupstore.Metadata{}, err
	}

	// Advisory only; a failure here never fails the backup.
	if err := capture.WriteEnvironment(ctx, m.Docker, m.DB, topo, dir, now); err != nil {
		m.Log.Warn().Err(err).Msg("environment snapshot failed")
	}

	files := make([]string, 0, len(artifacts))
	for i := range artifacts {
		sum, size, err := manifest.Checksum(filepath.Join(dir, artifacts[i].Path))
		if err != nil {
			return backupstore.Metadata{}, &capture.Error{Step: "manifest", Err: err}
		}
		artifacts[i].Checksum = sum
		artifacts[i].SizeBytes = size
		files = append(files, artifacts[i].Path)
	}
	if err := manifest.Write(dir, files); err != nil {
		return backupstore.Metadata{}, &capture.Error{Step: "manifest", Err: err}
	}

	tableCount, err := m.DB.TableCount(ctx, topo)
	if err != nil {
		m.Log.Warn().Err(err).Msg("table count unavailable")
	}

	meta := backupstore.Metadata{
		Name:       name,
		SetupType:  topo.Setup,
		Containers: topo.Containers,
		Database:   topo.Database.Name,
		TableCount: tableCount,
		Artifacts:  artifacts,
		Tags:       tags,
		CreatedAt:  now,
	}
	if err := m.Store.SaveMetadata(meta); err != nil {
		return backupstore.Metadata{}, err
	}
	m.Log.Info().Str("name", name).Int("artifacts", len(artifacts)).Msg("backup complete")
	return meta, nil
}
