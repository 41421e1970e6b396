package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStatus is the verification outcome for one manifest entry.
type FileStatus string

const (
	StatusOK       FileStatus = "ok"
	StatusMismatch FileStatus = "mismatch"
	StatusMissing  FileStatus = "missing"
)

// FileResult is the per-file verification detail. Exact mismatches are
// reported so an operator can re-capture one artifact instead of redoing
// the whole backup.
type FileResult struct {
	Name     string     `json:"name"`
	Status   FileStatus `json:"status"`
	Expected string     `json:"expected,omitempty"`
	Actual   string     `json:"actual,omitempty"`
}

// Result is the verification outcome for one backup directory.
type Result struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// Mismatches returns the entries that did not verify cleanly.
func (r Result) Mismatches() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Status != StatusOK {
			out = append(out, f)
		}
	}
	return out
}

// Verify recomputes the checksum of every file referenced by the manifest
// in dir. A backup without a manifest cannot be verified at all; that is
// an error, not a mismatch.
func Verify(dir string) (Result, error) {
	f, err := os.Open(filepath.Join(dir, ChecksumsFile))
	if err != nil {
		return Result{}, fmt.Errorf("no manifest: %w", err)
	}
	defer f.Close()

	result := Result{Valid: true}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "  ", 2)
		if len(parts) != 2 {
			return Result{}, fmt.Errorf("malformed manifest line %q", line)
		}
		want, name := parts[0], parts[1]
		fr := FileResult{Name: name, Expected: want}
		sum, _, err := Checksum(filepath.Join(dir, name))
		switch {
		case err != nil:
			fr.Status = StatusMissing
		case strings.EqualFold(sum, want):
			fr.Status = StatusOK
			fr.Actual = sum
		default:
			fr.Status = StatusMismatch
			fr.Actual = sum
		}
		if fr.Status != StatusOK {
			result.Valid = false
		}
		result.Files = append(result.Files, fr)
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return result, nil
}
