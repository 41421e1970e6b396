package gitapi

import "context"

// Client is the narrow version-control interface used by the milestone and
// team strategies. Nothing else in the tool touches git.
type Client interface {
	// Commit records an empty commit carrying the message in repoDir.
	Commit(ctx context.Context, repoDir, message string) error

	// Tag creates an annotated tag in repoDir.
	Tag(ctx context.Context, repoDir, name, message string) error
}
