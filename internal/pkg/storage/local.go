package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files below a directory that the HTTP server exposes under baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory served as static files.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Upload(ctx context.Context, data []byte, folder, ext string) (Stored, error) {
	key := objectKey(folder, ext)
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Stored{}, fmt.Errorf("failed to create folder: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return Stored{}, fmt.Errorf("failed to write %s: %w", key, err)
	}
	return Stored{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

func (s *LocalStore) Delete(ctx context.Context, publicID string) error {
	full, err := s.resolve(publicID)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// resolve keeps publicID inside the store root.
func (s *LocalStore) resolve(publicID string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(publicID))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid public id %q", publicID)
	}
	return filepath.Join(s.root, clean), nil
}
