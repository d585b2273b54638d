package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/repositories"
)

// CartStorage keeps carts in process memory. Carts are lost on restart.
type CartStorage struct {
	mu    sync.RWMutex
	carts map[string][]domain.CartEntry
}

var _ repositories.CartStorage = (*CartStorage)(nil)

func NewCartStorage() *CartStorage {
	return &CartStorage{carts: make(map[string][]domain.CartEntry)}
}

func (s *CartStorage) Load(_ context.Context, sessionID string) ([]domain.CartEntry, error) {
	key, err := sessionKey(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.carts[key]), nil
}

func (s *CartStorage) Save(_ context.Context, sessionID string, entries []domain.CartEntry) error {
	key, err := sessionKey(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(entries) == 0 {
		delete(s.carts, key)
		return nil
	}
	s.carts[key] = cloneEntries(entries)
	return nil
}

func (s *CartStorage) Clear(_ context.Context, sessionID string) error {
	key, err := sessionKey(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.carts, key)
	s.mu.Unlock()
	return nil
}

func sessionKey(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", errors.New("memory cart storage: session id is required")
	}
	return sessionID, nil
}

func cloneEntries(entries []domain.CartEntry) []domain.CartEntry {
	out := make([]domain.CartEntry, len(entries))
	for i, entry := range entries {
		entry.Images = append([]string(nil), entry.Images...)
		out[i] = entry
	}
	return out
}
