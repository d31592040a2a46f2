// Package snapshotrepo persists ledger state as a JSON snapshot file.
//
// The snapshot holds the full aggregate (accounts, transaction log,
// sequence counter). Durability point: the file is written on graceful
// shutdown; a crash loses everything after the last save. Save writes
// to a temporary file and renames it into place, so an interrupted
// save leaves the previous snapshot intact.
package snapshotrepo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Repo loads and saves ledger snapshots at a fixed path.
type Repo struct {
	path string
}

// New returns a snapshot repo for the given file path.
func New(path string) *Repo {
	return &Repo{path: path}
}

// Load reads the snapshot from disk. A missing file is a first boot,
// not an error; it yields an empty snapshot.
func (r *Repo) Load() (domain.Snapshot, error) {
	var snap domain.Snapshot

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snap, nil
		}

		return snap, fmt.Errorf("%w: read %s: %v", domain.ErrStorage, r.path, err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("%w: decode %s: %v", domain.ErrStorage, r.path, err)
	}

	return snap, nil
}

// Save writes the snapshot to disk atomically.
func (r *Repo) Save(snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", domain.ErrStorage, err)
	}

	dir := filepath.Dir(r.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", domain.ErrStorage, dir, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, tmp.Name(), err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("%w: close %s: %v", domain.ErrStorage, tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("%w: rename %s: %v", domain.ErrStorage, tmp.Name(), err)
	}

	return nil
}
