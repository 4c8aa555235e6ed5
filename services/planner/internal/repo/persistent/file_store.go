package persistent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"content-planner/services/planner/internal/entity"
)

// FileStore keeps each kind in <dir>/<kind file>. Writes go through a temp file
// and a rename so readers never observe a half written document.
type FileStore struct {
	dir   string
	locks map[entity.Kind]*sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	locks := make(map[entity.Kind]*sync.Mutex, len(entity.Kinds))
	for _, kind := range entity.Kinds {
		locks[kind] = &sync.Mutex{}
	}
	return &FileStore{dir: dir, locks: locks}
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Load(ctx context.Context, kind entity.Kind) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path, err := s.path(kind)
	if err != nil {
		return nil, false, err
	}
	return readFile(path)
}

func (s *FileStore) Save(ctx context.Context, kind entity.Kind, data []byte) error {
	return s.Mutate(ctx, kind, func([]byte, bool) ([]byte, error) {
		return data, nil
	})
}

func (s *FileStore) Mutate(ctx context.Context, kind entity.Kind, fn MutateFunc) error {
	path, err := s.path(kind)
	if err != nil {
		return err
	}

	lock := s.locks[kind]
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	current, exists, err := readFile(path)
	if err != nil {
		return err
	}
	next, err := fn(current, exists)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	return s.writeFile(path, next)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(kind entity.Kind) (string, error) {
	name := kind.FileName()
	if name == "" {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FileStore) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readFile(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return data, true, nil
}
