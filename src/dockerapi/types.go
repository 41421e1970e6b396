package dockerapi

import "context"

// Container is a running container as reported by the engine.
type Container struct {
	Name  string
	Image string
	State string
}

// Client is a narrow interface over the container engine used by this tool.
// Keep it small and focused on what we actually need so it stays mockable.
type Client interface {
	// Version returns the engine version string for diagnostics.
	Version(ctx context.Context) (string, error)

	// ListContainers returns the currently running containers.
	ListContainers(ctx context.Context) ([]Container, error)

	// Exec runs a command inside a running container and returns its stdout.
	Exec(ctx context.Context, container string, command []string) ([]byte, error)

	// CopyFrom copies a file out of a container onto the host.
	CopyFrom(ctx context.Context, container, containerPath, hostPath string) error

	// CopyTo copies a host file into a container.
	CopyTo(ctx context.Context, hostPath, container, containerPath string) error

	// SaveImages exports the given images into a single tar on the host.
	SaveImages(ctx context.Context, hostPath string, images ...string) error

	// LoadImages imports images from a tar previously written by SaveImages.
	LoadImages(ctx context.Context, hostPath string) error

	// ComposeUp brings a compose definition up in detached mode.
	ComposeUp(ctx context.Context, composeFile string) error

	// ComposeDown stops a compose definition, optionally removing volumes.
	ComposeDown(ctx context.Context, composeFile string, removeVolumes bool) error
}
