package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	importapp "github.com/econtract/backend/internal/application/import"
	"github.com/econtract/backend/internal/domain/shared"
)

// Ensure LocalDocumentStore implements the import FileStorage port
var _ importapp.FileStorage = (*LocalDocumentStore)(nil)

// LocalDocumentStore keeps uploaded documents on the local filesystem. It
// exists for development and single-node deployments where running an
// object storage backend is overkill.
type LocalDocumentStore struct {
	root string
}

// NewLocalDocumentStore creates a store rooted at the given directory,
// creating it if necessary.
func NewLocalDocumentStore(root string) (*LocalDocumentStore, error) {
	if root == "" {
		return nil, errors.New("storage root directory is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalDocumentStore{root: root}, nil
}

// Put writes a document under the given key. The content type is ignored,
// the filesystem has no use for it.
func (s *LocalDocumentStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

// Get reads the document stored under the given key
func (s *LocalDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.NewDomainErrorf(shared.CodeNotFound, "stored document %s not found", key)
		}
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the document stored under the given key. Deleting a
// missing document is not an error.
func (s *LocalDocumentStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

// resolve maps a storage key to a path under the root, rejecting keys that
// would escape it.
func (s *LocalDocumentStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, cleaned), nil
}
