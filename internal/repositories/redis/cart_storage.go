package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/repositories"
)

const (
	keyPrefix  = "office-chairs-cart:"
	defaultTTL = 30 * 24 * time.Hour
)

// CartStorage keeps each session's cart as a JSON array under a sliding TTL.
type CartStorage struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

var _ repositories.CartStorage = (*CartStorage)(nil)

type entryDocument struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Quantity int      `json:"quantity"`
	Images   []string `json:"images"`
}

// NewCartStorage wraps client. A non-positive ttl selects the 30 day default.
func NewCartStorage(client goredis.UniversalClient, ttl time.Duration) (*CartStorage, error) {
	if client == nil {
		return nil, errors.New("redis cart storage: client is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CartStorage{client: client, ttl: ttl}, nil
}

func (s *CartStorage) Load(ctx context.Context, sessionID string) ([]domain.CartEntry, error) {
	key, err := cartKey(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := s.client.GetEx(ctx, key, s.ttl).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []domain.CartEntry{}, nil
	}
	if err != nil {
		return nil, repositories.Unavailable("redis get", err)
	}

	var docs []entryDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, &repositories.StoreError{Op: "decode cart", Err: err}
	}
	entries := make([]domain.CartEntry, 0, len(docs))
	for _, doc := range docs {
		if doc.Quantity <= 0 {
			continue
		}
		entries = append(entries, domain.CartEntry{
			ID:       doc.ID,
			Name:     doc.Name,
			Price:    doc.Price,
			Quantity: doc.Quantity,
			Images:   doc.Images,
		})
	}
	return entries, nil
}

func (s *CartStorage) Save(ctx context.Context, sessionID string, entries []domain.CartEntry) error {
	key, err := cartKey(sessionID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return s.Clear(ctx, sessionID)
	}
	docs := make([]entryDocument, 0, len(entries))
	for _, entry := range entries {
		images := entry.Images
		if images == nil {
			images = []string{}
		}
		docs = append(docs, entryDocument{
			ID:       entry.ID,
			Name:     entry.Name,
			Price:    entry.Price,
			Quantity: entry.Quantity,
			Images:   images,
		})
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return repositories.Unavailable("redis set", err)
	}
	return nil
}

func (s *CartStorage) Clear(ctx context.Context, sessionID string) error {
	key, err := cartKey(sessionID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return repositories.Unavailable("redis del", err)
	}
	return nil
}

// Ping probes the server for readiness checks.
func (s *CartStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func cartKey(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", errors.New("redis cart storage: session id is required")
	}
	return keyPrefix + sessionID, nil
}
