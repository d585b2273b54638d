package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/komercia/storefront/internal/platform/storage"
	"github.com/komercia/storefront/internal/repositories"
)

// documentStore reads and writes one JSON document at a fixed object path.
type documentStore[T any] struct {
	blobs  storage.BlobStore
	object string
}

func newDocumentStore[T any](blobs storage.BlobStore, purpose storage.AssetPurpose, dataPrefix string) (documentStore[T], error) {
	if blobs == nil {
		return documentStore[T]{}, errors.New("blob repository: blob store is required")
	}
	object, err := storage.BuildObjectPath(purpose, storage.PathParams{DataPrefix: dataPrefix})
	if err != nil {
		return documentStore[T]{}, fmt.Errorf("blob repository: %w", err)
	}
	return documentStore[T]{blobs: blobs, object: object}, nil
}

// read decodes the stored document. found is false when the object was never written.
func (s documentStore[T]) read(ctx context.Context) (doc T, found bool, err error) {
	data, err := s.blobs.Get(ctx, s.object)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, repositories.Unavailable("read "+s.object, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, false, &repositories.StoreError{Op: "decode " + s.object, Err: err}
	}
	return doc, true, nil
}

func (s documentStore[T]) write(ctx context.Context, doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.object, err)
	}
	_, err = s.blobs.Put(ctx, s.object, data, storage.PutOptions{
		ContentType:  "application/json",
		CacheControl: storage.CacheControlNoCache,
	})
	if err != nil {
		return repositories.Unavailable("write "+s.object, err)
	}
	return nil
}
