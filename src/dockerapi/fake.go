package dockerapi

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// FakeClient is an in-memory engine for unit tests. It holds a per-container
// file table and understands the handful of exec shapes the capturer and
// restorer issue (tar, rm, test, mkdir, chown); everything else is recorded
// and succeeds.
type FakeClient struct {
	VersionStr string
	Containers []Container

	// Files maps container -> path -> content.
	Files map[string]map[string][]byte
	// Dirs maps container -> directory paths that exist.
	Dirs map[string]map[string]bool

	ExecLog      [][]string
	ComposeUps   []string
	ComposeDowns []string
	SavedImages  [][]string
	LoadedTars   []string

	// ExecErr, when set, is consulted before emulating a command.
	ExecErr func(container string, command []string) error
	// OnComposeUp, when set, runs after a ComposeUp is recorded. Tests use
	// it to simulate containers coming online.
	OnComposeUp func(composeFile string)
}

func NewFake() *FakeClient {
	return &FakeClient{
		Files: map[string]map[string][]byte{},
		Dirs:  map[string]map[string]bool{},
	}
}

// AddDir registers a directory with one synthetic file so tar archives of it
// have deterministic content.
func (f *FakeClient) AddDir(container, dir string) {
	if f.Dirs[container] == nil {
		f.Dirs[container] = map[string]bool{}
	}
	f.Dirs[container][dir] = true
}

func (f *FakeClient) SetFile(container, path string, content []byte) {
	if f.Files[container] == nil {
		f.Files[container] = map[string][]byte{}
	}
	f.Files[container][path] = content
}

func (f *FakeClient) Version(ctx context.Context) (string, error) {
	if f.VersionStr == "" {
		return "0.0.0-fake", nil
	}
	return f.VersionStr, nil
}

func (f *FakeClient) ListContainers(ctx context.Context) ([]Container, error) {
	out := make([]Container, len(f.Containers))
	copy(out, f.Containers)
	return out, nil
}

func (f *FakeClient) Exec(ctx context.Context, container string, command []string) ([]byte, error) {
	f.ExecLog = append(f.ExecLog, append([]string{container}, command...))
	if f.ExecErr != nil {
		if err := f.ExecErr(container, command); err != nil {
			return nil, err
		}
	}
	if len(command) == 3 && command[0] == "sh" && command[1] == "-c" {
		for _, part := range strings.Split(command[2], "&&") {
			if err := f.apply(container, strings.Fields(strings.TrimSpace(part))); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	if err := f.apply(container, command); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *FakeClient) apply(container string, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "tar":
		return f.applyTar(container, fields)
	case "rm":
		for _, p := range fields[1:] {
			if strings.HasPrefix(p, "-") {
				continue
			}
			delete(f.Files[container], p)
			delete(f.Dirs[container], p)
		}
	case "test":
		if len(fields) != 3 {
			return fmt.Errorf("fake: unsupported test %v", fields)
		}
		switch fields[1] {
		case "-d":
			if !f.Dirs[container][fields[2]] {
				return fmt.Errorf("fake: no such directory: %s", fields[2])
			}
		case "-f", "-e":
			if _, ok := f.Files[container][fields[2]]; !ok {
				return fmt.Errorf("fake: no such file: %s", fields[2])
			}
		}
	case "mkdir":
		for _, p := range fields[1:] {
			if !strings.HasPrefix(p, "-") {
				f.AddDir(container, p)
			}
		}
	case "chown":
		// permission changes are invisible to the fake
	}
	return nil
}

func (f *FakeClient) applyTar(container string, fields []string) error {
	var archive, dir string
	var create bool
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "-czf":
			create = true
			i++
			archive = fields[i]
		case "-xzf":
			i++
			archive = fields[i]
		case "-C":
			i++
			dir = fields[i]
		}
	}
	if create {
		if !f.Dirs[container][dir] {
			return fmt.Errorf("fake: tar: no such directory: %s", dir)
		}
		// Deterministic archive content derived from the directory name.
		f.SetFile(container, archive, []byte("tar:"+dir+"\n"))
		return nil
	}
	if _, ok := f.Files[container][archive]; !ok {
		return fmt.Errorf("fake: tar: no such archive: %s", archive)
	}
	f.AddDir(container, dir)
	return nil
}

func (f *FakeClient) CopyFrom(ctx context.Context, container, containerPath, hostPath string) error {
	content, ok := f.Files[container][containerPath]
	if !ok {
		return fmt.Errorf("fake: %s: no such file: %s", container, containerPath)
	}
	return os.WriteFile(hostPath, content, 0o644)
}

func (f *FakeClient) CopyTo(ctx context.Context, hostPath, container, containerPath string) error {
	content, err := os.ReadFile(hostPath)
	if err != nil {
		return err
	}
	f.SetFile(container, containerPath, content)
	return nil
}

func (f *FakeClient) SaveImages(ctx context.Context, hostPath string, images ...string) error {
	sorted := append([]string(nil), images...)
	sort.Strings(sorted)
	f.SavedImages = append(f.SavedImages, sorted)
	return os.WriteFile(hostPath, []byte("images:"+strings.Join(sorted, ",")+"\n"), 0o644)
}

func (f *FakeClient) LoadImages(ctx context.Context, hostPath string) error {
	if _, err := os.Stat(hostPath); err != nil {
		return err
	}
	f.LoadedTars = append(f.LoadedTars, hostPath)
	return nil
}

func (f *FakeClient) ComposeUp(ctx context.Context, composeFile string) error {
	f.ComposeUps = append(f.ComposeUps, composeFile)
	if f.OnComposeUp != nil {
		f.OnComposeUp(composeFile)
	}
	return nil
}

func (f *FakeClient) ComposeDown(ctx context.Context, composeFile string, removeVolumes bool) error {
	f.ComposeDowns = append(f.ComposeDowns, composeFile)
	return nil
}
