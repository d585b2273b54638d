package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrObjectNotFound is returned when the requested object does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrContentTypeDenied is returned when an upload content type is not allowed.
	ErrContentTypeDenied = errors.New("storage: content type not allowed")
	errInvalidObject     = errors.New("storage: object name is required")
)

// Cache-Control values applied to written objects.
const (
	CacheControlNoCache = "public, max-age=0"
	CacheControlAsset   = "public, max-age=31536000, immutable"
)

// PutOptions describe metadata for a written object.
type PutOptions struct {
	ContentType  string
	CacheControl string
}

// BlobStore persists public objects and maps them to and from their public URLs.
type BlobStore interface {
	Get(ctx context.Context, object string) ([]byte, error)
	Put(ctx context.Context, object string, data []byte, opts PutOptions) (string, error)
	Delete(ctx context.Context, object string) error
	PublicURL(object string) string
	ObjectFromURL(rawURL string) (string, bool)
	Ping(ctx context.Context) error
}

// ContentTypeAllowed reports whether contentType matches one of allowed. Entries may end in "/*".
func ContentTypeAllowed(contentType string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(normalized, ';'); i >= 0 {
		normalized = strings.TrimSpace(normalized[:i])
	}
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") {
			if strings.HasPrefix(normalized, strings.TrimSuffix(candidate, "*")) {
				return true
			}
			continue
		}
		if normalized == candidate {
			return true
		}
	}
	return false
}

type publicURLMapper struct {
	base string
}

func (m publicURLMapper) PublicURL(object string) string {
	return m.base + "/" + strings.TrimLeft(object, "/")
}

func (m publicURLMapper) ObjectFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" {
		return "", false
	}
	u.RawQuery = ""
	u.Fragment = ""
	prefix := m.base + "/"
	full := u.String()
	if !strings.HasPrefix(full, prefix) {
		return "", false
	}
	object, err := url.PathUnescape(strings.TrimPrefix(full, prefix))
	if err != nil || object == "" {
		return "", false
	}
	return object, true
}

func cleanObject(object string) (string, error) {
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errInvalidObject
	}
	return object, nil
}
