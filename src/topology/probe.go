package topology

import (
	"context"
	"errors"

	"stack-backup/src/dockerapi"
)

// ErrNoEnvironment is returned when no recognizable topology is running.
var ErrNoEnvironment = errors.New("no running stack topology detected")

// Detect inspects the running containers and resolves the topology they
// belong to. Both the database and application containers must be up; a
// partial match is not a match. Read-only, no side effects.
func Detect(ctx context.Context, docker dockerapi.Client) (Topology, error) {
	containers, err := docker.ListContainers(ctx)
	if err != nil {
		return Topology{}, err
	}
	running := map[string]bool{}
	for _, c := range containers {
		running[c.Name] = true
	}
	for _, t := range known {
		if running[t.Container(RoleDatabase)] && running[t.Container(RoleApplication)] {
			return t, nil
		}
	}
	return Topology{}, ErrNoEnvironment
}
