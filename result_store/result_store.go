package resultstore

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// FileSpec is one local result file and the key it is stored under.
type FileSpec struct {
	Path      string
	Key       string
	SizeBytes int64
}

type ResultStore interface {
	// Create any resources needed before Upload can be ran.
	SetUp() error

	// Upload the files and return their keys.
	Upload(files []*FileSpec) ([]string, error)

	GetBucket() string
}

// KeyPrefix is the prefix every file of one run is stored under.
func KeyPrefix(runID uuid.UUID) string {
	return fmt.Sprintf("run-%s/", runID)
}

// CollectFiles lists every regular file below dir, keyed by its slash separated path relative to dir
// under the run's prefix. The result is sorted by key.
func CollectFiles(dir string, runID uuid.UUID) ([]*FileSpec, error) {
	prefix := KeyPrefix(runID)
	out := []*FileSpec{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, &FileSpec{Path: p, Key: prefix + filepath.ToSlash(rel), SizeBytes: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing results in %s failed: %w", dir, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
