package dockerapi

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RealClient shells out to the docker CLI. All engine access goes through
// this one boundary; nothing else in the tree invokes external processes
// for container work.
type RealClient struct {
	// Bin is the engine binary, "docker" when empty.
	Bin string
}

func NewReal() *RealClient {
	return &RealClient{}
}

func (r *RealClient) bin() string {
	if r.Bin != "" {
		return r.Bin
	}
	return "docker"
}

func (r *RealClient) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.bin(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s %s: %s", r.bin(), args[0], msg)
	}
	return stdout.Bytes(), nil
}

func (r *RealClient) Version(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *RealClient) ListContainers(ctx context.Context) ([]Container, error) {
	out, err := r.run(ctx, "ps", "--format", "{{.Names}}\t{{.Image}}\t{{.State}}")
	if err != nil {
		return nil, err
	}
	var containers []Container
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		c := Container{Name: fields[0]}
		if len(fields) > 1 {
			c.Image = fields[1]
		}
		if len(fields) > 2 {
			c.State = fields[2]
		}
		containers = append(containers, c)
	}
	return containers, nil
}

func (r *RealClient) Exec(ctx context.Context, container string, command []string) ([]byte, error) {
	args := append([]string{"exec", container}, command...)
	return r.run(ctx, args...)
}

func (r *RealClient) CopyFrom(ctx context.Context, container, containerPath, hostPath string) error {
	_, err := r.run(ctx, "cp", container+":"+containerPath, hostPath)
	return err
}

func (r *RealClient) CopyTo(ctx context.Context, hostPath, container, containerPath string) error {
	_, err := r.run(ctx, "cp", hostPath, container+":"+containerPath)
	return err
}

func (r *RealClient) SaveImages(ctx context.Context, hostPath string, images ...string) error {
	args := append([]string{"save", "-o", hostPath}, images...)
	_, err := r.run(ctx, args...)
	return err
}

func (r *RealClient) LoadImages(ctx context.Context, hostPath string) error {
	_, err := r.run(ctx, "load", "-i", hostPath)
	return err
}

func (r *RealClient) ComposeUp(ctx context.Context, composeFile string) error {
	_, err := r.run(ctx, "compose", "-f", composeFile, "up", "-d")
	return err
}

func (r *RealClient) ComposeDown(ctx context.Context, composeFile string, removeVolumes bool) error {
	args := []string{"compose", "-f", composeFile, "down", "--remove-orphans"}
	if removeVolumes {
		args = append(args, "--volumes")
	}
	_, err := r.run(ctx, args...)
	return err
}
