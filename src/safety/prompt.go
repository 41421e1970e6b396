package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Options carries the global safety flags.
type Options struct {
	// DryRun shows planned actions without making changes.
	DryRun bool
	// Yes answers prompts non-interactively.
	Yes bool
	// Force skips confirmation for destructive operations.
	Force bool
}

// Confirm prompts before a destructive action.
// - Dry-run declines without prompting (nothing should happen).
// - Yes or Force accept without prompting.
// The caller decides what to do with the answer.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	if opts.DryRun {
		return false, nil
	}
	if opts.Yes || opts.Force {
		return true, nil
	}
	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.TrimSpace(strings.ToLower(line))
	return answer == "y" || answer == "yes", nil
}
