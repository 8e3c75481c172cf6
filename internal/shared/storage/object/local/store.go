package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"doculingua-backend/internal/shared/storage/object"
	"doculingua-backend/internal/shared/util"
)

// Store implements BlobStore using the local filesystem.
type Store struct {
	baseDir string
	baseURL string
}

// New creates a new local object store rooted at baseDir. URLs are built
// by joining baseURL and the key.
func New(baseDir, baseURL string) *Store {
	return &Store{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.baseDir
}

// Put writes the reader to disk at key.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) (object.Blob, error) {
	if err := ctx.Err(); err != nil {
		return object.Blob{}, err
	}

	fullPath, clean, err := s.resolve(key)
	if err != nil {
		return object.Blob{}, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return object.Blob{}, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return object.Blob{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return object.Blob{}, fmt.Errorf("write body: %w", err)
	}

	return object.Blob{
		Key:         clean,
		URL:         s.urlFor(clean),
		SizeBytes:   written,
		ContentType: contentType,
	}, nil
}

// Get opens a stored object for reading.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, _, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a stored object. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, _, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// URL returns the public URL of key.
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := util.CleanKey(key)
	if err != nil {
		return "", err
	}
	return s.urlFor(clean), nil
}

func (s *Store) resolve(key string) (string, string, error) {
	clean, err := util.CleanKey(key)
	if err != nil {
		return "", "", fmt.Errorf("invalid storage key %q: %w", key, err)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), clean, nil
}

func (s *Store) urlFor(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}

var _ object.BlobStore = (*Store)(nil)
