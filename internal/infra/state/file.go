package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ozonms/fbosync/internal/core/domain"
)

// FileStore keeps the memory in a single JSON file. Saves write a temporary
// file in the same directory and rename it over the target, so a crash
// mid-save leaves the previous snapshot intact.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path, creating parent
// directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the snapshot. A missing or empty file yields an empty memory;
// a file that exists but does not parse is an error, never silently dropped.
func (s *FileStore) Load(ctx context.Context) (*domain.Memory, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.NewMemory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return domain.NewMemory(), nil
	}

	mem := domain.NewMemory()
	if err := json.Unmarshal(data, mem); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}
	return mem, nil
}

// Save atomically replaces the snapshot on disk.
func (s *FileStore) Save(ctx context.Context, mem *domain.Memory) error {
	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}
