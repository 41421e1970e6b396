package gitapi

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RealClient shells out to the git CLI.
type RealClient struct{}

func NewReal() *RealClient {
	return &RealClient{}
}

func run(ctx context.Context, repoDir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoDir}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("git %s: %s", args[0], msg)
	}
	return nil
}

func (r *RealClient) Commit(ctx context.Context, repoDir, message string) error {
	return run(ctx, repoDir, "commit", "--allow-empty", "-m", message)
}

func (r *RealClient) Tag(ctx context.Context, repoDir, name, message string) error {
	return run(ctx, repoDir, "tag", "-a", name, "-m", message)
}
