package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"stack-backup/src/backupstore"
	"stack-backup/src/composefile"
	"stack-backup/src/dbadmin"
	"stack-backup/src/dockerapi"
	"stack-backup/src/topology"
)

// File names inside a backup directory.
const (
	DumpFile      = "database.sql"
	AppTarFile    = "moodle_html.tar.gz"
	DataTarFile   = "moodledata.tar.gz"
	PluginTarFile = "plugins.tar.gz"
	ConfigFile    = "config.php"
	ImagesFile    = "images.tar"
)

// Error reports which capture step failed. Any step failing aborts the
// whole capture.
type Error struct {
	Step string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("capture step %s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options tune a capture run.
type Options struct {
	// ComposeDir is the host directory holding the live compose files.
	ComposeDir string
	// ExportImages bundles the topology's container images into the backup.
	ExportImages bool
}

// Capturer produces a full point-in-time snapshot of a topology's state
// into a backup directory. Pure I/O; ordering and metadata are the backup
// manager's concern.
type Capturer struct {
	Docker dockerapi.Client
	DB     dbadmin.Admin
	Log    zerolog.Logger
}

// Run captures, in order: database dump, application tree, data directory,
// plugin overlay (when present), configuration, compose definition, and
// optionally the container images. It returns the artifact list with kinds
// and relative paths; checksums are filled in by the manifest.
func (c *Capturer) Run(ctx context.Context, topo topology.Topology, dir string, opts Options) ([]backupstore.Artifact, error) {
	app := topo.Container(topology.RoleApplication)
	var artifacts []backupstore.Artifact

	c.Log.Info().Str("setup", string(topo.Setup)).Msg("dumping database")
	if err := c.DB.Dump(ctx, topo, filepath.Join(dir, DumpFile)); err != nil {
		return nil, &Error{Step: "database-dump", Err: err}
	}
	artifacts = append(artifacts, backupstore.Artifact{Kind: backupstore.KindDatabaseDump, Path: DumpFile})

	c.Log.Info().Str("dir", topo.Paths.AppTree).Msg("archiving application tree")
	if err := c.archiveDir(ctx, app, topo.Paths.AppTree, filepath.Join(dir, AppTarFile)); err != nil {
		return nil, &Error{Step: "application-tree", Err: err}
	}
	artifacts = append(artifacts, backupstore.Artifact{Kind: backupstore.KindFilesystemTar, Path: AppTarFile})

	c.Log.Info().Str("dir", topo.Paths.DataDir).Msg("archiving data directory")
	if err := c.archiveDir(ctx, app, topo.Paths.DataDir, filepath.Join(dir, DataTarFile)); err != nil {
		return nil, &Error{Step: "data-directory", Err: err}
	}
	artifacts = append(artifacts, backupstore.Artifact{Kind: backupstore.KindFilesystemTar, Path: DataTarFile})

	if c.dirExists(ctx, app, topo.Paths.PluginDir) {
		c.Log.Info().Str("dir", topo.Paths.PluginDir).Msg("archiving plugin overlay")
		if err := c.archiveDir(ctx, app, topo.Paths.PluginDir, filepath.Join(dir, PluginTarFile)); err != nil {
			return nil, &Error{Step: "plugin-overlay", Err: err}
		}
		artifacts = append(artifacts, backupstore.Artifact{Kind: backupstore.KindFilesystemTar, Path: PluginTarFile})
	} else {
		c.Log.Debug().Str("dir", topo.Paths.PluginDir).Msg("no plugin overlay, skipping")
	}

	if err := c.Docker.CopyFrom(ctx, app, topo.Paths.ConfigFile, filepath.Join(dir, ConfigFile)); err != nil {
		return nil, &Error{Step: "config-copy", Err: err}
	}
	artifacts = append(artifacts, backupstore.Artifact{Kind: backupstore.KindConfigCopy, Path: ConfigFile})

	if err := c.copyComposeFile(topo, dir, opts); err != nil {
		return nil, &Error{Step: "compose-copy", Err: err}
	}
	artifacts = append(artifacts, backupstore.Artifact{Kind: backupstore.KindConfigCopy, Path: topo.ComposeFile})

	if opts.ExportImages {
		compose, err := composefile.Parse(filepath.Join(dir, topo.ComposeFile))
		if err != nil {
			return nil, &Error{Step: "image-export", Err: err}
		}
		images := compose.Images()
		if len(images) == 0 {
			return nil, &Error{Step: "image-export", Err: fmt.Errorf("no images in %s", topo.ComposeFile)}
		}
		c.Log.Info().Strs("images", images).Msg("exporting container images")
		if err := c.Docker.SaveImages(ctx, filepath.Join(dir, ImagesFile), images...); err != nil {
			return nil, &Error{Step: "image-export", Err: err}
		}
		artifacts = append(artifacts, backupstore.Artifact{Kind: backupstore.KindImageExport, Path: ImagesFile})
	}

	return artifacts, nil
}

// archiveDir tars a container directory through an in-container scratch
// file. The scratch is removed after copy-out, success or not.
func (c *Capturer) archiveDir(ctx context.Context, container, srcDir, hostPath string) error {
	scratch := "/tmp/stack-backup-" + filepath.Base(hostPath)
	defer c.Docker.Exec(ctx, container, []string{"rm", "-f", scratch})
	pack := fmt.Sprintf("tar -czf %s -C %s .", scratch, srcDir)
	if _, err := c.Docker.Exec(ctx, container, []string{"sh", "-c", pack}); err != nil {
		return fmt.Errorf("archive %s: %w", srcDir, err)
	}
	if err := c.Docker.CopyFrom(ctx, container, scratch, hostPath); err != nil {
		return fmt.Errorf("copy archive of %s: %w", srcDir, err)
	}
	return nil
}

func (c *Capturer) dirExists(ctx context.Context, container, dir string) bool {
	_, err := c.Docker.Exec(ctx, container, []string{"test", "-d", dir})
	return err == nil
}

func (c *Capturer) copyComposeFile(topo topology.Topology, dir string, opts Options) error {
	src := filepath.Join(opts.ComposeDir, topo.ComposeFile)
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, topo.ComposeFile), content, 0o644)
}

