// Package gcs reads statements from Google Cloud Storage or the local disk
// and uploads statements to buckets.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrTooLarge is returned when a statement exceeds the size limit.
var ErrTooLarge = errors.New("file too large")

const uploadTimeout = 2 * time.Minute

// Client fetches and uploads statement files. A storage client is created
// per call, so a Client without GCS access still serves local paths.
type Client struct {
	opts     []option.ClientOption
	maxBytes int64
}

// NewClient creates a client. An empty credentialsFile uses Application
// Default Credentials; maxBytes <= 0 disables the size limit.
func NewClient(credentialsFile string, maxBytes int64) *Client {
	c := &Client{maxBytes: maxBytes}
	if credentialsFile != "" {
		c.opts = append(c.opts, option.WithCredentialsFile(credentialsFile))
	}
	return c
}

// Fetch returns the bytes at a gs:// URI or local path.
func (c *Client) Fetch(ctx context.Context, location string) ([]byte, error) {
	if IsURI(location) {
		return c.fetchObject(ctx, location)
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("Fetch: open file %q: %w", location, err)
	}
	defer f.Close()
	return c.readAll(f, location)
}

func (c *Client) fetchObject(ctx context.Context, uri string) ([]byte, error) {
	bucketName, objectPath, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	storageClient, err := storage.NewClient(ctx, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("fetchObject: creating storage client: %w", err)
	}
	defer storageClient.Close()

	rc, err := storageClient.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchObject: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	return c.readAll(rc, uri)
}

func (c *Client) readAll(r io.Reader, name string) ([]byte, error) {
	if c.maxBytes > 0 {
		r = io.LimitReader(r, c.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("readAll: reading %s: %w", name, err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("readAll: %s exceeds %d bytes: %w", name, c.maxBytes, ErrTooLarge)
	}
	return data, nil
}

// UploadFile uploads a local file to a GCS bucket under the given object name.
func (c *Client) UploadFile(ctx context.Context, bucketName, objectName, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("UploadFile: open file %q: %w", filePath, err)
	}
	defer f.Close()

	storageClient, err := storage.NewClient(ctx, c.opts...)
	if err != nil {
		return "", fmt.Errorf("UploadFile: create storage client: %w", err)
	}
	defer storageClient.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := storageClient.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadFile: copy file to GCS writer: %w", err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadFile: finalize upload: %w", err)
	}
	return URI(bucketName, objectName), nil
}
