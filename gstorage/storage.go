// Package gstorage backs up the encrypted local cache to Google Cloud Storage
package gstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const transferTimeout = 50 * time.Second

var ErrObjectNotExist = storage.ErrObjectNotExist

type GStorage struct {
	storageClient *storage.Client
	bucket        string
	prefix        string
}

// NewGStorage uses credentialsFilePath when set, application default credentials otherwise.
// Objects are stored as <prefix>/<file name> in bucket.
func NewGStorage(ctx context.Context, credentialsFilePath, bucket, prefix string, opts ...option.ClientOption) (*GStorage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGStorage: no bucket configured, set google.storage.bucket")
	}

	if credentialsFilePath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFilePath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGStorage: %v", err)
	}

	return &GStorage{storageClient: client, bucket: bucket, prefix: prefix}, nil
}

func (gs *GStorage) Close() error {
	return gs.storageClient.Close()
}

// ObjectName is the object a local file is uploaded to
func (gs *GStorage) ObjectName(filePath string) string {
	return path.Join(gs.prefix, filepath.Base(filePath))
}

// UploadFile uploads filePath and returns the object name
func (gs *GStorage) UploadFile(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("os.Open: %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, transferTimeout)
	defer cancel()

	object := gs.ObjectName(filePath)
	wc := gs.storageClient.Bucket(gs.bucket).Object(object).NewWriter(ctx)
	if _, err = io.Copy(wc, f); err != nil {
		wc.Close()
		return "", fmt.Errorf("io.Copy: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %v", err)
	}

	return object, nil
}

// DownloadFile downloads the object for destFilePath over destFilePath.
// The local file is only replaced once the download completed.
func (gs *GStorage) DownloadFile(ctx context.Context, destFilePath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, transferTimeout)
	defer cancel()

	object := gs.ObjectName(destFilePath)
	rc, err := gs.storageClient.Bucket(gs.bucket).Object(object).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return object, err
	}
	if err != nil {
		return object, fmt.Errorf("Object(%q).NewReader: %v", object, err)
	}
	defer rc.Close()

	tmpFilePath := destFilePath + ".download"
	f, err := os.OpenFile(tmpFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return object, fmt.Errorf("os.OpenFile: %v", err)
	}

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(tmpFilePath)
		return object, fmt.Errorf("io.Copy: %v", err)
	}

	if err = f.Close(); err != nil {
		return object, fmt.Errorf("f.Close: %v", err)
	}

	return object, os.Rename(tmpFilePath, destFilePath)
}
