package restore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"stack-backup/src/backupstore"
	"stack-backup/src/capture"
	"stack-backup/src/dbadmin"
	"stack-backup/src/dockerapi"
	"stack-backup/src/healthcheck"
	"stack-backup/src/topology"
)

// Step names one stage of the restore state machine.
type Step string

const (
	StepLocate          Step = "locate"
	StepTeardown        Step = "teardown"
	StepLoadImages      Step = "load-images"
	StepStartInfra      Step = "start-infrastructure"
	StepWaitDatabase    Step = "wait-database"
	StepRestoreDatabase Step = "restore-database"
	StepWaitApplication Step = "wait-application"
	StepRestoreFiles    Step = "restore-files"
	StepRestoreConfig   Step = "restore-config"
	StepVerify          Step = "verify"
)

// StepError is a fatal failure of one restore step. The environment is left
// in whatever partial state the step reached; there is no rollback.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("restore step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Timeouts bound the readiness-polling steps.
type Timeouts struct {
	DatabaseReady    time.Duration
	ApplicationReady time.Duration
	Reachability     time.Duration
}

// DefaultTimeouts returns the stock bounds.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		DatabaseReady:    60 * time.Second,
		ApplicationReady: 180 * time.Second,
		Reachability:     120 * time.Second,
	}
}

// Result reports a finished or aborted restore.
type Result struct {
	Name      string
	Setup     topology.SetupType
	Completed []Step
	Warnings  []string
}

// Manager replays a backup into a live environment in a fixed dependency
// order. No step is retried; the first failure terminates the restore.
type Manager struct {
	Store  *backupstore.Store
	Docker dockerapi.Client
	DB     dbadmin.Admin
	Health healthcheck.Prober
	Log    zerolog.Logger

	// ComposeDir holds the live compose files, used only to tear down
	// topologies other than the restore target.
	ComposeDir   string
	Timeouts     Timeouts
	PollInterval time.Duration
}

// Restore replays the named backup. An unknown name fails before anything
// is torn down. A failed reachability check degrades to a warning: the
// data-level restore already succeeded.
func (m *Manager) Restore(ctx context.Context, name string) (Result, error) {
	meta, err := m.Store.Load(name)
	if err != nil {
		return Result{Name: name}, err
	}
	topo, ok := topology.BySetup(meta.SetupType)
	if !ok {
		return Result{Name: name}, &StepError{Step: StepLocate, Err: fmt.Errorf("unknown setup type %q", meta.SetupType)}
	}
	dir := m.Store.Dir(name)
	result := Result{Name: name, Setup: topo.Setup, Completed: []Step{StepLocate}}

	steps := []struct {
		step Step
		run  func(context.Context) error
	}{
		{StepTeardown, func(ctx context.Context) error { return m.teardown(ctx, topo, dir) }},
		{StepLoadImages, func(ctx context.Context) error { return m.loadImages(ctx, dir) }},
		{StepStartInfra, func(ctx context.Context) error {
			return m.Docker.ComposeUp(ctx, filepath.Join(dir, topo.ComposeFile))
		}},
		{StepWaitDatabase, func(ctx context.Context) error {
			return m.waitFor(ctx, m.Timeouts.DatabaseReady, "database ready", func(ctx context.Context) error {
				return m.DB.Ping(ctx, topo)
			})
		}},
		{StepRestoreDatabase, func(ctx context.Context) error {
			return m.DB.Restore(ctx, topo, filepath.Join(dir, capture.DumpFile))
		}},
		{StepWaitApplication, func(ctx context.Context) error {
			return m.waitFor(ctx, m.Timeouts.ApplicationReady, "application ready", func(ctx context.Context) error {
				app := topo.Container(topology.RoleApplication)
				_, err := m.Docker.Exec(ctx, app, []string{"test", "-f", topo.Paths.ConfigFile})
				return err
			})
		}},
		{StepRestoreFiles, func(ctx context.Context) error { return m.restoreFiles(ctx, topo, dir) }},
		{StepRestoreConfig, func(ctx context.Context) error { return m.restoreConfig(ctx, topo, dir) }},
	}
	for _, s := range steps {
		m.Log.Info().Str("step", string(s.step)).Msg("restore step")
		if err := s.run(ctx); err != nil {
			return result, &StepError{Step: s.step, Err: err}
		}
		result.Completed = append(result.Completed, s.step)
	}

	if err := m.waitFor(ctx, m.Timeouts.Reachability, "application reachable", func(ctx context.Context) error {
		return m.Health.Check(ctx, topo.AppURL)
	}); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("application not reachable at %s: %v", topo.AppURL, err))
	}
	result.Completed = append(result.Completed, StepVerify)
	m.Log.Info().Str("name", name).Int("warnings", len(result.Warnings)).Msg("restore complete")
	return result, nil
}

// AwaitStack blocks until the topology's database and application are
// ready, within the configured timeouts. The testing strategy uses it
// after a reprovision.
func (m *Manager) AwaitStack(ctx context.Context, topo topology.Topology) error {
	if err := m.waitFor(ctx, m.Timeouts.DatabaseReady, "database ready", func(ctx context.Context) error {
		return m.DB.Ping(ctx, topo)
	}); err != nil {
		return err
	}
	return m.waitFor(ctx, m.Timeouts.ApplicationReady, "application ready", func(ctx context.Context) error {
		app := topo.Container(topology.RoleApplication)
		_, err := m.Docker.Exec(ctx, app, []string{"test", "-f", topo.Paths.ConfigFile})
		return err
	})
}

// teardown stops every known topology, not just the target, so stale
// containers and volumes from another variant cannot collide with the
// restored stack. The target's bundled compose file must tear down
// cleanly; other variants are best effort.
func (m *Manager) teardown(ctx context.Context, target topology.Topology, dir string) error {
	for _, t := range topology.Known() {
		if t.Setup == target.Setup {
			continue
		}
		file := filepath.Join(m.ComposeDir, t.ComposeFile)
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := m.Docker.ComposeDown(ctx, file, true); err != nil {
			m.Log.Debug().Err(err).Str("setup", string(t.Setup)).Msg("teardown of other topology failed")
		}
	}
	return m.Docker.ComposeDown(ctx, filepath.Join(dir, target.ComposeFile), true)
}

func (m *Manager) loadImages(ctx context.Context, dir string) error {
	tar := filepath.Join(dir, capture.ImagesFile)
	if _, err := os.Stat(tar); err != nil {
		// No bundled images: rely on the locally cached ones.
		return nil
	}
	return m.Docker.LoadImages(ctx, tar)
}

func (m *Manager) restoreFiles(ctx context.Context, topo topology.Topology, dir string) error {
	app := topo.Container(topology.RoleApplication)
	trees := []struct {
		tar string
		dst string
	}{
		{capture.AppTarFile, topo.Paths.AppTree},
		{capture.DataTarFile, topo.Paths.DataDir},
		{capture.PluginTarFile, topo.Paths.PluginDir},
	}
	for _, t := range trees {
		hostTar := filepath.Join(dir, t.tar)
		if _, err := os.Stat(hostTar); err != nil {
			// Plugin overlay is optional; it may not have been captured.
			continue
		}
		if err := m.extractTree(ctx, app, hostTar, t.dst); err != nil {
			return err
		}
	}
	chown := fmt.Sprintf("chown -R %s %s %s", topo.Owner, topo.Paths.AppTree, topo.Paths.DataDir)
	if _, err := m.Docker.Exec(ctx, app, []string{"sh", "-c", chown}); err != nil {
		return fmt.Errorf("reapply ownership: %w", err)
	}
	return nil
}

// extractTree replaces a container directory wholesale: remove, recreate,
// extract. The in-container scratch tar is removed afterwards either way.
func (m *Manager) extractTree(ctx context.Context, container, hostTar, dst string) error {
	scratch := "/tmp/stack-backup-" + filepath.Base(hostTar)
	if err := m.Docker.CopyTo(ctx, hostTar, container, scratch); err != nil {
		return fmt.Errorf("copy archive into %s: %w", container, err)
	}
	defer m.Docker.Exec(ctx, container, []string{"rm", "-f", scratch})
	unpack := fmt.Sprintf("rm -rf %s && mkdir -p %s && tar -xzf %s -C %s", dst, dst, scratch, dst)
	if _, err := m.Docker.Exec(ctx, container, []string{"sh", "-c", unpack}); err != nil {
		return fmt.Errorf("extract into %s: %w", dst, err)
	}
	return nil
}

func (m *Manager) restoreConfig(ctx context.Context, topo topology.Topology, dir string) error {
	app := topo.Container(topology.RoleApplication)
	if err := m.Docker.CopyTo(ctx, filepath.Join(dir, capture.ConfigFile), app, topo.Paths.ConfigFile); err != nil {
		return fmt.Errorf("copy config: %w", err)
	}
	chown := fmt.Sprintf("chown %s %s", topo.Owner, topo.Paths.ConfigFile)
	if _, err := m.Docker.Exec(ctx, app, []string{"sh", "-c", chown}); err != nil {
		return fmt.Errorf("config ownership: %w", err)
	}
	return nil
}

// waitFor polls on a fixed interval up to the timeout, then fails
// deterministically. No unbounded waiting.
func (m *Manager) waitFor(ctx context.Context, timeout time.Duration, what string, probe func(context.Context) error) error {
	interval := m.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(timeout)
	for {
		err := probe(ctx)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s: timed out after %s: %w", what, timeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
