package memory

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// Store is an in-memory domain.ObjectStore for local mode and tests.
// Presigned URLs point to BaseURL and carry the expiry as a query param.
type Store struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
	now     func() time.Time
}

func NewStore(baseURL string) *Store {
	if baseURL == "" {
		baseURL = "memory://images"
	}
	return &Store{
		objects: make(map[string]Object),
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (s *Store) Upload(_ context.Context, data []byte, key, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = Object{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
	}
	return nil
}

func (s *Store) Presign(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("presign %s: %w", key, domain.ErrNotFound)
	}
	expires := s.now().Add(ttl).Unix()
	return fmt.Sprintf("%s/%s?expires=%d", s.baseURL, (&url.URL{Path: key}).EscapedPath(), expires), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Get returns a stored object (tests and debugging).
func (s *Store) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[key]
	return o, ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.objects)
}
