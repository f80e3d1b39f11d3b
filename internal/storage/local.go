package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cpa-academy/internal/domain"
)

// LocalDisk keeps blobs as files below a root directory. Keys use forward
// slashes and are mapped onto the host path separator.
type LocalDisk struct {
	root string
}

// NewLocalDisk creates the root directory if needed.
func NewLocalDisk(root string) (*LocalDisk, error) {
	if root == "" {
		return nil, errors.New("local storage root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalDisk{root: abs}, nil
}

func (s *LocalDisk) Name() string {
	return "local"
}

// FullPath maps key onto the filesystem, refusing keys that escape the root.
func (s *LocalDisk) FullPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *LocalDisk) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	fullPath, err := s.FullPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(dst, body)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if size >= 0 && written != size {
		os.Remove(fullPath)
		return fmt.Errorf("short write: wrote %d of %d bytes", written, size)
	}
	return nil
}

func (s *LocalDisk) Delete(ctx context.Context, key string) error {
	fullPath, err := s.FullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Deliver opens the file for streaming. The caller owns the returned body.
func (s *LocalDisk) Deliver(ctx context.Context, key, filename, contentType string) (*domain.Delivery, error) {
	fullPath, err := s.FullPath(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, domain.ErrBlobNotFound
	}

	if filename == "" {
		filename = filepath.Base(fullPath)
	}
	return &domain.Delivery{
		Filename:    filename,
		ContentType: contentType,
		Body:        f,
		Size:        info.Size(),
	}, nil
}
