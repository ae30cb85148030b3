package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
)

var _ ports.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

type entry struct {
	resp      *ports.StoredResponse // nil mientras está en curso
	expiresAt time.Time
}

// InMemoryIdempotencyStore implementa ports.IdempotencyStore en un mapa.
// Sirve para una sola instancia y para tests; las entradas vencidas se descartan al leerlas.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewInMemoryIdempotencyStore crea el almacén vacío.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{entries: make(map[string]entry), now: time.Now}
}

func (s *InMemoryIdempotencyStore) live(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return entry{}, false
	}
	return e, true
}

func (s *InMemoryIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = entry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *InMemoryIdempotencyStore) Complete(_ context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := append([]byte(nil), resp.Body...)
	resp.Body = body
	s.entries[key] = entry{resp: &resp, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryIdempotencyStore) Lookup(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.resp == nil {
		return nil, nil
	}
	cp := *e.resp
	return &cp, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
