package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/models"
	"github.com/Dosada05/loan-market/repositories"
	"github.com/Dosada05/loan-market/storage"
)

const MaxImageSize = 5 << 20

const (
	playerImagePrefix = "players"
	teamImagePrefix   = "teams"
)

var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ImageUpload is an image received from a client, not yet stored.
type ImageUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// checkImage returns the normalized extension and content type of img.
func checkImage(img *ImageUpload) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: only .png, .jpg and .jpeg files are accepted", ErrInvalidImage)
	}
	if img.Size > MaxImageSize {
		return "", "", fmt.Errorf("%w: file must not be larger than %d bytes", ErrInvalidImage, MaxImageSize)
	}
	return ext, contentType, nil
}

// storeImage uploads img under a fresh key below prefix.
func storeImage(ctx context.Context, uploader storage.FileUploader, prefix string, img *ImageUpload) (string, error) {
	ext, contentType, err := checkImage(img)
	if err != nil {
		return "", err
	}

	// the declared size may lie; read at most one byte past the limit to find out
	data, err := io.ReadAll(io.LimitReader(img.Reader, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > MaxImageSize {
		return "", fmt.Errorf("%w: file must not be larger than %d bytes", ErrInvalidImage, MaxImageSize)
	}

	// object stores need the length up front, so the body must be seekable
	key := storage.NewImageKey(prefix, ext)
	if _, err := uploader.Upload(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

// discardImage removes an image that is no longer referenced. Failures only get logged.
func discardImage(ctx context.Context, uploader storage.FileUploader, log *logger.Logger, key string) {
	if key == "" {
		return
	}
	if err := uploader.Delete(ctx, key); err != nil {
		log.Warn("failed to delete image", "key", key, "error", err)
	}
}

func populatePlayerImageURL(p *models.Player, uploader storage.FileUploader) {
	if p == nil || p.ImageKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(p.ImageKey); url != "" {
		p.ImageURL = &url
	}
}

func populatePlayerImageURLs(players []models.Player, uploader storage.FileUploader) {
	for i := range players {
		populatePlayerImageURL(&players[i], uploader)
	}
}

func populateTeamDetails(t *models.Team, uploader storage.FileUploader) {
	if t == nil {
		return
	}
	t.PasswordHash = ""
	if t.ImageKey != nil && *t.ImageKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*t.ImageKey); url != "" {
			t.ImageURL = &url
		}
	}
}

// handleRepositoryError translates repository sentinels into service ones.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrTeamEmailConflict):
		return ErrTeamEmailConflict
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrPlayerConflict):
		return ErrPlayerConflict
	case errors.Is(err, repositories.ErrLoanStateChanged):
		return withKind(ErrConflict, err)
	default:
		return err
	}
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
