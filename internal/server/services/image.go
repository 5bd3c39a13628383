package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/modus/internal/server/blobstore"
)

// ImageService stores uploaded files under the hex md5 of their bytes.
// md5 is an id scheme here, not an integrity guarantee.
type ImageService struct {
	blobs blobstore.Store
}

func NewImageService(blobs blobstore.Store) *ImageService {
	return &ImageService{blobs: blobs}
}

// ImageID derives the blob id for a file's bytes.
func ImageID(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Save writes the file and returns its id. Re-uploading the same bytes
// returns the same id.
func (s *ImageService) Save(ctx context.Context, data []byte) (string, error) {
	id := ImageID(data)
	if err := s.blobs.Write(ctx, id, data); err != nil {
		return "", fmt.Errorf("error saving image: %w", err)
	}
	return id, nil
}

// Get returns the stored bytes for id.
func (s *ImageService) Get(ctx context.Context, id string) ([]byte, error) {
	return s.blobs.Read(ctx, id)
}

// Delete removes the blob. Deleting an id that was never stored (or was
// already deleted) surfaces the store's error.
func (s *ImageService) Delete(ctx context.Context, id string) error {
	return s.blobs.Delete(ctx, id)
}
