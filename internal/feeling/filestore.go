package feeling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/memory"
)

// ErrNoSnapshot is returned by FileStore.Restore when nothing was saved yet.
var ErrNoSnapshot = errors.New("no snapshot")

// #region file-store

// FileStore persists snapshots as <key>.json with the memory store split out
// to <key>.memories.json.
type FileStore struct {
	key string
}

// NewFileStore creates a FileStore for key, a path without extension.
func NewFileStore(key string) *FileStore {
	return &FileStore{key: key}
}

// Path is the main snapshot file.
func (f *FileStore) Path() string { return f.key + ".json" }

// SidecarPath is the memory store file.
func (f *FileStore) SidecarPath() string { return f.key + ".memories.json" }

// #endregion file-store

// #region persist

// Persist writes the sidecar, then the main file, each via temp file and rename.
func (f *FileStore) Persist(_ context.Context, snap Snapshot, _ Result) error {
	if dir := filepath.Dir(f.key); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Persistence("mkdir", err)
		}
	}

	mem := snap.Memory
	if err := writeAtomic(f.SidecarPath(), mem); err != nil {
		return err
	}

	snap.Memory = memory.State{
		MaxMemories:        mem.MaxMemories,
		DecayHalfLifeHours: mem.DecayHalfLifeHours,
		Entries:            []memory.Entry{},
	}
	return writeAtomic(f.Path(), snap)
}

func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Persistence("marshal "+filepath.Base(path), err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return errs.Persistence("write "+filepath.Base(tmpPath), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.Persistence("rename "+filepath.Base(path), err)
	}
	return nil
}

// #endregion persist

// #region restore

// Restore loads the saved snapshot into sys. A missing main file yields
// ErrNoSnapshot; a missing sidecar leaves the memory store empty.
func (f *FileStore) Restore(sys *System) error {
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNoSnapshot
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := sys.DecodeSnapshot(data)
	if err != nil {
		return err
	}

	side, err := os.ReadFile(f.SidecarPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read memories: %w", err)
	default:
		var mem memory.State
		if err := json.Unmarshal(side, &mem); err != nil {
			return errs.Corrupt("memory", "decode sidecar: %v", err)
		}
		snap.Memory = mem
	}
	return sys.Load(snap)
}

// #endregion restore
