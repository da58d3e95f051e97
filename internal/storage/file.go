package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileBlob stores each key as a JSON file under a data directory. This is
// the default backend and the closest analog to browser local storage.
type FileBlob struct {
	dir string
}

func NewFileBlob(dir string) (*FileBlob, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBlob{dir: dir}, nil
}

func (f *FileBlob) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileBlob) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read blob %q: %w", key, err)
	}
	return data, nil
}

// Save writes to a temp file in the same directory and renames it into
// place, so a crash mid-write never leaves a truncated blob.
func (f *FileBlob) Save(ctx context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for blob %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write blob %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close blob %q: %w", key, err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace blob %q: %w", key, err)
	}
	return nil
}

func (f *FileBlob) Delete(ctx context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}
	return nil
}

func (f *FileBlob) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %q is not a directory", f.dir)
	}
	return nil
}
