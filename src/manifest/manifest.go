package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const (
	// ChecksumsFile is the durable manifest: "<sha256>  <name>" per line.
	ChecksumsFile = "checksums.txt"
	// ListingFile is the human-readable companion with sizes.
	ListingFile = "FILES.txt"
)

// Write records checksums and sizes for the named files (relative to dir).
// It writes the durable checksum manifest plus a human-readable listing.
func Write(dir string, files []string) error {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	checks, err := os.Create(filepath.Join(dir, ChecksumsFile))
	if err != nil {
		return err
	}
	defer checks.Close()
	listing, err := os.Create(filepath.Join(dir, ListingFile))
	if err != nil {
		return err
	}
	defer listing.Close()

	var total int64
	for _, name := range sorted {
		sum, size, err := Checksum(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("checksum %s: %w", name, err)
		}
		if _, err := fmt.Fprintf(checks, "%s  %s\n", sum, name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(listing, "%-28s %12s\n", name, humanSize(size)); err != nil {
			return err
		}
		total += size
	}
	_, err = fmt.Fprintf(listing, "%-28s %12s\n", "total", humanSize(total))
	return err
}

// Checksum returns the sha256 hex digest and byte size of a file.
func Checksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
