package gcs

import (
	"context"
)

// StorageService provides statement storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// Fetch returns the bytes at a gs:// URI or local path.
	Fetch(ctx context.Context, location string) ([]byte, error)

	// UploadFile uploads a local file to a bucket under the given object name
	// and returns its gs:// URI.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) (string, error)
}
