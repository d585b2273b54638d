package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/komercia/storefront/internal/platform/storage"
)

func newTestUploadService(t *testing.T, writer *recordingWriter) UploadService {
	t.Helper()
	svc, err := NewUploadService(UploadServiceDeps{
		Blobs:       writer,
		IDGenerator: func() string { return "01HV6ZQ3J8M1F7Y4K2B9C0D5EX" },
	})
	if err != nil {
		t.Fatalf("NewUploadService: %v", err)
	}
	return svc
}

func TestUploadProductImageStoresAsset(t *testing.T) {
	writer := &recordingWriter{}
	svc := newTestUploadService(t, writer)
	body := []byte("\x89PNG fake image")

	url, err := svc.UploadProductImage(context.Background(), UploadImageCommand{
		FileName:    "../Silla Ergonómica.PNG",
		ContentType: "image/png; charset=binary",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("UploadProductImage: %v", err)
	}
	wantObject := "products/silla-ergonomica-01hv6zq3j8m1f7y4k2b9c0d5ex.png"
	if writer.object != wantObject {
		t.Fatalf("expected object %s, got %s", wantObject, writer.object)
	}
	if url != "https://cdn.example.co/"+wantObject {
		t.Fatalf("unexpected url %s", url)
	}
	if writer.opts.ContentType != "image/png" || writer.opts.CacheControl != storage.CacheControlAsset {
		t.Fatalf("unexpected put options %+v", writer.opts)
	}
	if !bytes.Equal(writer.data, body) {
		t.Fatalf("expected body stored verbatim")
	}
}

func TestUploadProductImageRejectsInvalidFiles(t *testing.T) {
	svc := newTestUploadService(t, &recordingWriter{})
	oversized := bytes.Repeat([]byte{'a'}, MaxUploadBytes+1)

	cases := map[string]UploadImageCommand{
		"missing body": {FileName: "a.png", ContentType: "image/png"},
		"gif":          {FileName: "a.gif", ContentType: "image/gif", Body: strings.NewReader("gif")},
		"empty":        {FileName: "a.png", ContentType: "image/png", Body: strings.NewReader("")},
		"declared too large": {
			FileName: "a.png", ContentType: "image/png", Size: MaxUploadBytes + 1, Body: strings.NewReader("x"),
		},
		"actually too large": {
			FileName: "a.png", ContentType: "image/png", Body: bytes.NewReader(oversized),
		},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.UploadProductImage(context.Background(), cmd); !errors.Is(err, ErrUploadInvalidInput) {
				t.Fatalf("expected ErrUploadInvalidInput, got %v", err)
			}
		})
	}
}

func TestUploadProductImageExactLimitAccepted(t *testing.T) {
	writer := &recordingWriter{}
	svc := newTestUploadService(t, writer)
	body := bytes.Repeat([]byte{'a'}, MaxUploadBytes)
	if _, err := svc.UploadProductImage(context.Background(), UploadImageCommand{
		FileName: "max.webp", ContentType: "image/webp", Size: MaxUploadBytes, Body: bytes.NewReader(body),
	}); err != nil {
		t.Fatalf("expected file at the limit accepted, got %v", err)
	}
	if !strings.HasSuffix(writer.object, ".webp") {
		t.Fatalf("expected webp extension, got %s", writer.object)
	}
}

func TestUploadProductImageStorageFailure(t *testing.T) {
	svc := newTestUploadService(t, &recordingWriter{err: errors.New("bucket unavailable")})
	_, err := svc.UploadProductImage(context.Background(), UploadImageCommand{
		FileName: "a.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg"),
	})
	if !errors.Is(err, ErrUploadUnavailable) {
		t.Fatalf("expected ErrUploadUnavailable, got %v", err)
	}
}
