package database

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// JSONFileStore stores each key as its own file on disk.
//
// Layout:
//
//	data_dir/
//	  employeeDirectory.json   # value stored under "employeeDirectory"
//
// Writes go to a temp file that is renamed over the target, so a crash never
// leaves a half-written collection behind.
type JSONFileStore struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

func NewJSONFileStore(fs afero.Fs, dir string) (*JSONFileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &JSONFileStore{fs: fs, dir: dir}, nil
}

func (s *JSONFileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *JSONFileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "read %s", s.path(key))
	}
	return string(data), true, nil
}

func (s *JSONFileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(value), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

func (s *JSONFileStore) Close() error {
	return nil
}
