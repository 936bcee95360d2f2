// Package images validates, stores and summarizes uploaded recipe images.
package images

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RecipeSubdir is the directory under the uploads root holding recipe images.
const RecipeSubdir = "recipe"

var (
	// ErrInvalidName is returned for names that are empty or would escape the
	// storage directory.
	ErrInvalidName = errors.New("invalid image name")
	// ErrNotFound is returned when no file exists under the name.
	ErrNotFound = errors.New("image not found")
)

// Storage manages image files in a single directory.
// Safe for concurrent use.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

// NewStorage creates the {basePath}/uploads/recipe directory.
func NewStorage(basePath string) (*Storage, error) {
	return NewStorageWithSubdir(filepath.Join(basePath, "uploads"), RecipeSubdir)
}

// NewStorageWithSubdir stores images under {basePath}/{subdir}.
func NewStorageWithSubdir(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{basePath: storagePath}, nil
}

// Save writes data under name, replacing any existing file.
func (s *Storage) Save(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a temp file first so readers never see a partial image.
	final := s.Path(name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move image file: %w", err)
	}
	return nil
}

// Get reads the file stored under name.
func (s *Storage) Get(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Exists reports whether a file is stored under name.
func (s *Storage) Exists(name string) bool {
	if validName(name) != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Delete removes the file stored under name. Missing files are not an error.
func (s *Storage) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Hash returns the hex SHA256 of the stored file, used as an ETag.
func (s *Storage) Hash(name string) (string, error) {
	data, err := s.Get(name)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// Path returns the filesystem path for name. Callers must validate name.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.basePath, name)
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) || strings.HasSuffix(name, ".tmp") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
