package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// diskUploader keeps images on the local filesystem; the HTTP layer serves
// the same directory under publicBaseURL.
type diskUploader struct {
	dir           string
	publicBaseURL string
}

func NewDiskUploader(dir, publicBaseURL string) (FileUploader, error) {
	if dir == "" {
		return nil, errors.New("image directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}
	return &diskUploader{dir: dir, publicBaseURL: publicBaseURL}, nil
}

func (u *diskUploader) Upload(ctx context.Context, key string, _ string, reader io.Reader) (*UploadResult, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	hash := md5.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), reader); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", key, err)
	}

	return &UploadResult{
		Key:      key,
		Location: u.GetPublicURL(key),
		ETag:     hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func (u *diskUploader) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(u.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (u *diskUploader) GetPublicURL(key string) string {
	return joinPublicURL(u.publicBaseURL, key)
}
