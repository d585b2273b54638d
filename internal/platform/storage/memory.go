package storage

import (
	"context"
	"strings"
	"sync"
)

// MemoryObject is a stored object and its metadata.
type MemoryObject struct {
	Data []byte
	PutOptions
}

// MemoryBlobStore is an in-process BlobStore for local runs and tests.
type MemoryBlobStore struct {
	publicURLMapper
	mu      sync.RWMutex
	objects map[string]MemoryObject
}

// NewMemoryBlobStore returns an empty store serving URLs under publicBaseURL.
func NewMemoryBlobStore(publicBaseURL string) *MemoryBlobStore {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		base = "http://localhost:8080/blobs"
	}
	return &MemoryBlobStore{
		publicURLMapper: publicURLMapper{base: base},
		objects:         make(map[string]MemoryObject),
	}
}

func (s *MemoryBlobStore) Get(_ context.Context, object string) ([]byte, error) {
	name, err := cleanObject(object)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), obj.Data...), nil
}

func (s *MemoryBlobStore) Put(ctx context.Context, object string, data []byte, opts PutOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanObject(object)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[name] = MemoryObject{Data: append([]byte(nil), data...), PutOptions: opts}
	s.mu.Unlock()
	return s.PublicURL(name), nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, object string) error {
	name, err := cleanObject(object)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, name)
	return nil
}

func (s *MemoryBlobStore) Ping(context.Context) error {
	return nil
}

// Object returns the stored object for inspection.
func (s *MemoryBlobStore) Object(name string) (MemoryObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[strings.TrimLeft(name, "/")]
	return obj, ok
}
