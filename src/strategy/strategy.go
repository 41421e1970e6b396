package strategy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"stack-backup/src/backup"
	"stack-backup/src/backupstore"
	"stack-backup/src/dockerapi"
	"stack-backup/src/gitapi"
	"stack-backup/src/manifest"
	"stack-backup/src/restore"
	"stack-backup/src/retention"
	"stack-backup/src/topology"
)

// UseCases lists the recognized strategy names.
var UseCases = []string{"development", "milestone", "production", "testing", "team", "automated"}

// Runner maps a named use case to a fixed sequence of backup, restore, and
// rotation calls. It performs no I/O of its own beyond small note files and
// delegation.
type Runner struct {
	Store   *backupstore.Store
	Backup  *backup.Manager
	Restore *restore.Manager
	Docker  dockerapi.Client
	Git     gitapi.Client
	Log     zerolog.Logger
	Out     io.Writer

	ComposeDir string
	RepoDir    string
	MaxBackups int
}

// Run executes the named use case.
func (r *Runner) Run(ctx context.Context, useCase string, args []string) error {
	switch useCase {
	case "development":
		return r.development(ctx)
	case "milestone":
		if len(args) != 1 || args[0] == "" {
			return fmt.Errorf("milestone strategy needs a label, e.g. strategy milestone release1")
		}
		return r.milestone(ctx, args[0])
	case "production":
		return r.production(ctx)
	case "testing":
		return r.testing(ctx)
	case "team":
		return r.team(ctx)
	case "automated":
		return r.automated(ctx)
	default:
		return fmt.Errorf("unknown strategy %q (want one of %v)", useCase, UseCases)
	}
}

// development: quick capture, then rotate so dev machines do not fill up.
func (r *Runner) development(ctx context.Context) error {
	meta, err := r.Backup.Create(ctx, nil)
	if err != nil {
		return err
	}
	removed, err := retention.Rotate(r.Store, r.MaxBackups)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "created %s, rotated out %d\n", meta.Name, len(removed))
	return nil
}

// milestone: tagged capture plus a version-control tag referencing it.
func (r *Runner) milestone(ctx context.Context, label string) error {
	meta, err := r.Backup.Create(ctx, []backupstore.Tag{backupstore.MilestoneTag(label)})
	if err != nil {
		return err
	}
	tag := "backup/" + meta.Name
	msg := fmt.Sprintf("milestone %s: backup %s", label, meta.Name)
	if err := r.Git.Tag(ctx, r.RepoDir, tag, msg); err != nil {
		return fmt.Errorf("record milestone tag: %w", err)
	}
	fmt.Fprintf(r.Out, "created %s (milestone %s), tagged %s\n", meta.Name, label, tag)
	return nil
}

// production: two captures in immediate succession, verify both, and note
// the redundancy in the secondary.
func (r *Runner) production(ctx context.Context) error {
	primary, err := r.Backup.Create(ctx, []backupstore.Tag{backupstore.TagProduction})
	if err != nil {
		return err
	}
	secondary, err := r.Backup.Create(ctx, []backupstore.Tag{backupstore.TagProduction})
	if err != nil {
		return err
	}
	for _, name := range []string{primary.Name, secondary.Name} {
		result, err := manifest.Verify(r.Store.Dir(name))
		if err != nil {
			return err
		}
		if !result.Valid {
			fmt.Fprintf(r.Out, "warning: %s has %d mismatched artifacts\n", name, len(result.Mismatches()))
		}
	}
	note := fmt.Sprintf("redundant copy of %s\n", primary.Name)
	if err := os.WriteFile(filepath.Join(r.Store.Dir(secondary.Name), "redundancy.txt"), []byte(note), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "created %s and %s (production pair)\n", primary.Name, secondary.Name)
	return nil
}

// testing: reprovision the running topology from scratch, then capture the
// clean state as the new baseline.
func (r *Runner) testing(ctx context.Context) error {
	topo, err := topology.Detect(ctx, r.Docker)
	if err != nil {
		return err
	}
	file := filepath.Join(r.ComposeDir, topo.ComposeFile)
	r.Log.Info().Str("setup", string(topo.Setup)).Msg("reprovisioning environment")
	if err := r.Docker.ComposeDown(ctx, file, true); err != nil {
		return fmt.Errorf("reprovision teardown: %w", err)
	}
	if err := r.Docker.ComposeUp(ctx, file); err != nil {
		return fmt.Errorf("reprovision start: %w", err)
	}
	if err := r.Restore.AwaitStack(ctx, topo); err != nil {
		return fmt.Errorf("reprovisioned stack not ready: %w", err)
	}
	meta, err := r.Backup.Create(ctx, []backupstore.Tag{backupstore.TagBaseline})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "created baseline %s\n", meta.Name)
	return nil
}

// team: capture, then record the backup name in version control so a
// teammate can find it.
func (r *Runner) team(ctx context.Context) error {
	meta, err := r.Backup.Create(ctx, nil)
	if err != nil {
		return err
	}
	msg := "record stack backup " + meta.Name
	if err := r.Git.Commit(ctx, r.RepoDir, msg); err != nil {
		return fmt.Errorf("record team backup: %w", err)
	}
	tag := "team/" + meta.Name
	if err := r.Git.Tag(ctx, r.RepoDir, tag, msg); err != nil {
		return fmt.Errorf("record team tag: %w", err)
	}
	fmt.Fprintf(r.Out, "created %s, tagged %s\n", meta.Name, tag)
	return nil
}

// automated: unattended capture, rotate, and verify of the new backup.
// Verification problems are warnings; only capture failures are fatal.
func (r *Runner) automated(ctx context.Context) error {
	meta, err := r.Backup.Create(ctx, nil)
	if err != nil {
		return err
	}
	removed, err := retention.Rotate(r.Store, r.MaxBackups)
	if err != nil {
		return err
	}
	result, err := manifest.Verify(r.Store.Dir(meta.Name))
	if err != nil {
		return err
	}
	for _, f := range result.Mismatches() {
		fmt.Fprintf(r.Out, "warning: %s: %s %s\n", meta.Name, f.Name, f.Status)
	}
	fmt.Fprintf(r.Out, "created %s, rotated out %d, verified\n", meta.Name, len(removed))
	return nil
}
