package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/komercia/storefront/internal/platform/storage"
)

var (
	// ErrUploadInvalidInput indicates a missing, oversized or disallowed file.
	ErrUploadInvalidInput = errors.New("upload service: invalid input")
	// ErrUploadUnavailable indicates the blob store rejected the write.
	ErrUploadUnavailable = errors.New("upload service: unavailable")
)

// MaxUploadBytes bounds product image uploads.
const MaxUploadBytes = 5 << 20

var (
	allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}
	imageExtensions   = map[string]string{
		"image/jpeg": "jpg",
		"image/png":  "png",
		"image/webp": "webp",
	}
)

// ObjectWriter writes public objects and returns their URL.
type ObjectWriter interface {
	Put(ctx context.Context, object string, data []byte, opts storage.PutOptions) (string, error)
}

// UploadServiceDeps wires the blob store used for product images.
type UploadServiceDeps struct {
	Blobs       ObjectWriter
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type uploadService struct {
	blobs  ObjectWriter
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

var _ UploadService = (*uploadService)(nil)

// NewUploadService constructs an UploadService enforcing dependency validation.
func NewUploadService(deps UploadServiceDeps) (UploadService, error) {
	if deps.Blobs == nil {
		return nil, errors.New("upload service: blob store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &uploadService{blobs: deps.Blobs, newID: newID, logger: logger}, nil
}

func (s *uploadService) UploadProductImage(ctx context.Context, cmd UploadImageCommand) (string, error) {
	if cmd.Body == nil {
		return "", fmt.Errorf("%w: file is required", ErrUploadInvalidInput)
	}
	if cmd.Size > MaxUploadBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrUploadInvalidInput, MaxUploadBytes)
	}
	if !storage.ContentTypeAllowed(cmd.ContentType, allowedImageTypes) {
		return "", fmt.Errorf("%w: content type %q not allowed", ErrUploadInvalidInput, cmd.ContentType)
	}
	contentType := mediaType(cmd.ContentType)

	data, err := io.ReadAll(io.LimitReader(cmd.Body, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read file: %v", ErrUploadInvalidInput, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrUploadInvalidInput)
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrUploadInvalidInput, MaxUploadBytes)
	}

	object, err := storage.BuildObjectPath(storage.PurposeProductImage, storage.PathParams{
		UploadID:  s.newID(),
		FileName:  path.Base(cmd.FileName),
		Extension: imageExtensions[contentType],
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadInvalidInput, err)
	}

	url, err := s.blobs.Put(ctx, object, data, storage.PutOptions{
		ContentType:  contentType,
		CacheControl: storage.CacheControlAsset,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadUnavailable, err)
	}
	s.logger(ctx, "upload.stored", map[string]any{"object": object, "bytes": len(data)})
	return url, nil
}

func mediaType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return contentType
}
