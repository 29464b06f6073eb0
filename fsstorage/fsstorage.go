// Package fsstorage is a local-filesystem Storage adapter: every entry is a
// file in one flat directory, written atomically via a temp-file-then-rename
// so that a write is either fully applied or fully absent. It is a worked
// example of the Storage port for a medium that needs printable names,
// base64-encoding the opaque entry name bytes into safe filenames.
// Implemented directly against the standard library: no dependency in the
// retrieved corpus wraps atomic local-file replace, and os.Rename already
// gives POSIX atomic-rename-into-place for free.
package fsstorage

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/outofforest/storagep2p"
)

// Store is a filesystem-backed Storage rooted at Dir. The directory must
// already exist.
type Store struct {
	dir string
}

// New constructs a Store rooted at dir. dir must already exist and be
// writable.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(name []byte) (string, error) {
	encoded := base64.RawURLEncoding.EncodeToString(name)
	if len(encoded) > 200 {
		return "", errors.New("entry name too long for filesystem adapter")
	}
	return filepath.Join(s.dir, encoded), nil
}

// List enumerates every entry name currently on disk, sorted by filename for
// deterministic iteration. Files that are not valid names for this adapter
// (e.g. ones a foreign process dropped in the directory) are silently
// skipped, the same as an undecodable header is skipped by every caller
// above this layer.
func (s *Store) List(ctx context.Context) ([][]byte, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	fileNames := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fileNames = append(fileNames, e.Name())
	}
	sort.Strings(fileNames)

	names := make([][]byte, 0, len(fileNames))
	for _, fn := range fileNames {
		raw, err := base64.RawURLEncoding.DecodeString(fn)
		if err != nil {
			continue
		}
		names = append(names, raw)
	}
	return names, nil
}

// Read returns the bytes stored under name, or a wrapped
// storagep2p.ErrNotFound if the file does not exist.
func (s *Store) Read(ctx context.Context, name []byte) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithStack(storagep2p.ErrNotFound)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Write atomically creates or replaces the file for name: the data is
// written to a temp file in the same directory and renamed into place, so a
// crash mid-write can never leave a torn file visible under the final name.
func (s *Store) Write(ctx context.Context, name, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return errors.WithStack(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Delete removes the file for name, if present. Absence is not an error.
func (s *Store) Delete(ctx context.Context, name []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}
