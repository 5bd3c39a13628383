package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/modus/internal/common"
	"github.com/dmitrijs2005/modus/internal/filex"
)

// DiskStore keeps blobs as plain files named by their id inside one
// directory. It backs development setups without an S3 endpoint.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory when missing and returns a store
// rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DiskStore{dir: abs}, nil
}

func (s *DiskStore) path(id string) (string, error) {
	// ids are digests; anything that could escape the directory is rejected
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid blob id %q", id)
	}
	return filepath.Join(s.dir, id), nil
}

func (s *DiskStore) Write(_ context.Context, id string, data []byte) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o660); err != nil {
		return fmt.Errorf("write blob %s: %w", id, err)
	}
	return nil
}

func (s *DiskStore) Read(_ context.Context, id string) ([]byte, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", id, err)
	}
	return data, nil
}

func (s *DiskStore) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}
