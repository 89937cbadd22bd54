package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStorage abstracts where uploaded documents live. The local
// implementation writes to disk; an object-store implementation can be
// swapped in without touching the services.
type FileStorage interface {
	// Save writes the content and returns the storage path relative to
	// the storage root.
	Save(ctx context.Context, subdir, fileName string, content io.Reader) (string, error)
	// Open returns a reader for a previously saved path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes a stored file. Missing files are not an error.
	Delete(ctx context.Context, path string) error
}

// LocalStorage stores files under a root directory on local disk
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Save stores content under subdir with a uuid-suffixed name so uploads
// with the same name never collide.
func (s *LocalStorage) Save(_ context.Context, subdir, fileName string, content io.Reader) (string, error) {
	cleanSubdir := filepath.Clean(subdir)
	if strings.HasPrefix(cleanSubdir, "..") || filepath.IsAbs(cleanSubdir) {
		return "", fmt.Errorf("invalid storage subdirectory %q", subdir)
	}

	dir := filepath.Join(s.root, cleanSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(filepath.Base(fileName), ext)
	storedName := fmt.Sprintf("%s_%s%s", base, uuid.New().String(), ext)

	fullPath := filepath.Join(dir, storedName)
	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, content); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filepath.Join(cleanSubdir, storedName), nil
}

func (s *LocalStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	cleanPath := filepath.Clean(path)
	if strings.HasPrefix(cleanPath, "..") || filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("invalid storage path %q", path)
	}

	f, err := os.Open(filepath.Join(s.root, cleanPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, path string) error {
	cleanPath := filepath.Clean(path)
	if strings.HasPrefix(cleanPath, "..") || filepath.IsAbs(cleanPath) {
		return fmt.Errorf("invalid storage path %q", path)
	}

	err := os.Remove(filepath.Join(s.root, cleanPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
