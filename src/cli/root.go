package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stack-backup/src/backupstore"
	"stack-backup/src/capture"
	"stack-backup/src/restore"
	"stack-backup/src/topology"
)

// Exit codes distinguish failure categories for scripting.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitProbe       = 2
	ExitCapture     = 3
	ExitRestoreStep = 4
	ExitNotFound    = 5
)

// NewRootCmd returns the root cobra command for the stack-backup CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stack-backup",
		Short:         "Snapshot, restore, rotate, and verify the state of the container stack",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newCreateCmd(stdout, stderr))
	cmd.AddCommand(newRestoreCmd(stdout, stderr))
	cmd.AddCommand(newRotateCmd(stdout, stderr))
	cmd.AddCommand(newVerifyCmd(stdout, stderr))
	cmd.AddCommand(newStatusCmd(stdout, stderr))
	cmd.AddCommand(newTagCmd(stdout, stderr))
	cmd.AddCommand(newStrategyCmd(stdout, stderr))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// Execute runs the CLI with the process stdio and maps the error taxonomy
// to exit codes.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return ExitOK
}

func exitCode(err error) int {
	var capErr *capture.Error
	var stepErr *restore.StepError
	switch {
	case errors.Is(err, topology.ErrNoEnvironment):
		return ExitProbe
	case errors.As(err, &capErr):
		return ExitCapture
	case errors.As(err, &stepErr):
		return ExitRestoreStep
	case errors.Is(err, backupstore.ErrNotFound):
		return ExitNotFound
	}
	return ExitFailure
}
