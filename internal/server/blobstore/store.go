// Package blobstore implements the content-addressed blob store backing
// image upload and delete. Blobs are keyed by the digest of their bytes,
// so writes of identical content are idempotent.
package blobstore

import "context"

// Store is a content-addressed blob store. Delete and Read report a
// missing id as common.ErrorNotFound.
type Store interface {
	Write(ctx context.Context, id string, data []byte) error
	Read(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
