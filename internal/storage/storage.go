// Package storage provides scratch-file storage for extracted audio and
// optional S3 upload of finished exports. It defines the Storage port and
// implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage is the file storage capability the session depends on.
type Storage interface {
	// TempDir returns the directory used for scratch files such as
	// extracted WAV audio.
	TempDir() string

	// CleanupTemp removes the specified scratch files. It continues
	// cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// UploadToS3 uploads data under the given key and returns the object
	// URL. Returns ErrS3NotConfigured when no S3 backend is available.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
