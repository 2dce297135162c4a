// Package snapshot dumps a run's anchor index for later inspection.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"dealguard/internal/index"
	"dealguard/internal/order"
)

const indexFile = "index.json"

type Snapshotter interface {
	WriteSnapshot(runID string, st index.Store) error
}

// FilesystemSnapshotter writes baseDir/<runID>/index.json.
type FilesystemSnapshotter struct {
	baseDir string
}

func NewFilesystemSnapshotter(baseDir string) *FilesystemSnapshotter {
	return &FilesystemSnapshotter{baseDir: baseDir}
}

func (f *FilesystemSnapshotter) WriteSnapshot(runID string, st index.Store) error {
	if err := os.MkdirAll(filepath.Join(f.baseDir, runID), 0o755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	file := filepath.Join(f.baseDir, runID, indexFile)
	out, err := os.Create(file)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer out.Close()

	dump := make(map[string]order.Order, st.Len())
	if err := st.Range(func(key string, o order.Order) error {
		dump[key] = o
		return nil
	}); err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return errors.Wrap(err, "encode")
	}
	return nil
}

// ReadSnapshot loads the index dump of one run.
func (f *FilesystemSnapshotter) ReadSnapshot(runID string) (map[string]order.Order, error) {
	data, err := os.ReadFile(filepath.Join(f.baseDir, runID, indexFile))
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	var dump map[string]order.Order
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	return dump, nil
}
