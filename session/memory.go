package session

import (
	"context"
	"net/http"
	"sync"
)

// MemoryProvider keeps carts in process memory, keyed by a session id
// cookie. Carts are lost on restart; meant for development and tests.
type MemoryProvider struct {
	mu    sync.RWMutex
	carts map[string]string
	opts  CookieOptions
}

func NewMemoryProvider(opts CookieOptions) *MemoryProvider {
	return &MemoryProvider{carts: make(map[string]string), opts: opts}
}

func (p *MemoryProvider) Open(w http.ResponseWriter, r *http.Request) Session {
	id := sessionID(w, r, p.opts)
	return Session{ID: id, Storage: &memoryStorage{provider: p, id: id, w: w}}
}

// Len returns the number of stored carts.
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.carts)
}

type memoryStorage struct {
	provider *MemoryProvider
	id       string
	w        http.ResponseWriter
}

func (s *memoryStorage) Load(ctx context.Context) (string, error) {
	s.provider.mu.RLock()
	defer s.provider.mu.RUnlock()
	return s.provider.carts[s.id], nil
}

func (s *memoryStorage) Save(ctx context.Context, value string) error {
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	s.provider.carts[s.id] = value
	return nil
}

func (s *memoryStorage) Clear(ctx context.Context) error {
	s.provider.mu.Lock()
	delete(s.provider.carts, s.id)
	s.provider.mu.Unlock()
	http.SetCookie(s.w, s.provider.opts.expired())
	return nil
}
