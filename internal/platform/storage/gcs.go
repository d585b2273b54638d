package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// GCSConfig configures the Cloud Storage backed BlobStore.
type GCSConfig struct {
	Bucket        string
	PublicBaseURL string
	EmulatorHost  string
	ClientOptions []option.ClientOption
}

// GCSBlobStore implements BlobStore on a Cloud Storage bucket.
type GCSBlobStore struct {
	publicURLMapper
	client *gcs.Client
	bucket *gcs.BucketHandle
	owns   bool
}

// NewGCSBlobStore dials Cloud Storage and returns a store rooted at cfg.Bucket.
func NewGCSBlobStore(ctx context.Context, cfg GCSConfig) (*GCSBlobStore, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	opts := append([]option.ClientOption(nil), cfg.ClientOptions...)
	if host := strings.TrimSpace(cfg.EmulatorHost); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		opts = append(opts, option.WithEndpoint(strings.TrimRight(host, "/")+"/storage/v1/"), option.WithoutAuthentication())
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: new client: %w", err)
	}
	store := NewGCSBlobStoreFromClient(client, bucket, cfg.PublicBaseURL)
	store.owns = true
	return store, nil
}

// NewGCSBlobStoreFromClient wraps an existing client.
func NewGCSBlobStoreFromClient(client *gcs.Client, bucket, publicBaseURL string) *GCSBlobStore {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + bucket
	}
	return &GCSBlobStore{
		publicURLMapper: publicURLMapper{base: base},
		client:          client,
		bucket:          client.Bucket(bucket),
	}
}

// Close releases the underlying client when the store created it.
func (s *GCSBlobStore) Close() error {
	if s == nil || !s.owns {
		return nil
	}
	return s.client.Close()
}

func (s *GCSBlobStore) object(name string) *gcs.ObjectHandle {
	return s.bucket.Object(name).Retryer(
		gcs.WithBackoff(gax.Backoff{
			Initial:    100 * time.Millisecond,
			Max:        2 * time.Second,
			Multiplier: 2,
		}),
		gcs.WithPolicy(gcs.RetryAlways),
	)
}

// Get reads the full object.
func (s *GCSBlobStore) Get(ctx context.Context, object string) ([]byte, error) {
	name, err := cleanObject(object)
	if err != nil {
		return nil, err
	}
	reader, err := s.object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("storage: open %s: %w", name, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Put overwrites the object and returns its public URL.
func (s *GCSBlobStore) Put(ctx context.Context, object string, data []byte, opts PutOptions) (string, error) {
	name, err := cleanObject(object)
	if err != nil {
		return "", err
	}
	writer := s.object(name).NewWriter(ctx)
	writer.ContentType = opts.ContentType
	writer.CacheControl = opts.CacheControl
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage: finalize %s: %w", name, err)
	}
	return s.PublicURL(name), nil
}

// Delete removes the object.
func (s *GCSBlobStore) Delete(ctx context.Context, object string) error {
	name, err := cleanObject(object)
	if err != nil {
		return err
	}
	if err := s.object(name).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// Ping checks the bucket is reachable.
func (s *GCSBlobStore) Ping(ctx context.Context) error {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("storage: bucket attrs: %w", err)
	}
	return nil
}
