// Package storage reports the on-disk footprint of the corpus, index snapshot, and embedding cache.
package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the size of one labelled path.
type Usage struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	Exists bool   `json:"exists"`
}

// Footprint is the per-path breakdown plus its total.
type Footprint struct {
	Entries []Usage `json:"entries"`
	Total   int64   `json:"total_bytes"`
}

// Measure sizes each labelled path. Empty paths are skipped, missing paths are
// reported with Exists=false, and directories are summed recursively.
func Measure(paths map[string]string, order ...string) (Footprint, error) {
	var fp Footprint
	for _, label := range order {
		p := paths[label]
		if p == "" {
			continue
		}
		n, ok, err := DiskUsageBytes(p)
		if err != nil {
			return Footprint{}, err
		}
		fp.Entries = append(fp.Entries, Usage{Label: label, Path: p, Bytes: n, Exists: ok})
		fp.Total += n
	}
	return fp, nil
}

// DiskUsageBytes returns the size in bytes of path, a file or a directory.
// A missing path is (0, false, nil).
func DiskUsageBytes(path string) (int64, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !info.IsDir() {
		return info.Size(), true, nil
	}
	var total int64
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	if err != nil {
		return 0, true, err
	}
	return total, true, nil
}
