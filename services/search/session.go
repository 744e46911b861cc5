package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sahilchouksey/prof-ratings/utils/cache"
)

// DefaultSessionTTL is how long an idle search session is kept
const DefaultSessionTTL = 30 * time.Minute

var ErrSessionNotFound = errors.New("search: session not found or expired")

// SessionStore keeps the State of each search session between requests
type SessionStore interface {
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, id string, st *State) error
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions in Redis with a sliding TTL
type RedisSessionStore struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store
func NewRedisSessionStore(c *cache.RedisCache, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{cache: c, ttl: ttl}
}

func sessionKey(id string) string {
	return "search:session:" + id
}

func (s *RedisSessionStore) Load(ctx context.Context, id string) (*State, error) {
	var st State
	if err := s.cache.GetJSON(ctx, sessionKey(id), &st); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, id string, st *State) error {
	return s.cache.SetJSON(ctx, sessionKey(id), st, s.ttl)
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKey(id))
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemorySessionStore keeps sessions in process memory. Expired sessions are
// removed by Prune.
type MemorySessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryEntry
}

// NewMemorySessionStore creates an in-memory session store
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]memoryEntry),
	}
}

func (s *MemorySessionStore) Load(_ context.Context, id string) (*State, error) {
	s.mu.Lock()
	entry, ok := s.items[id]
	s.mu.Unlock()

	if !ok || !s.now().Before(entry.expires) {
		return nil, ErrSessionNotFound
	}
	var st State
	if err := json.Unmarshal(entry.data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *MemorySessionStore) Save(_ context.Context, id string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[id] = memoryEntry{data: data, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Prune drops expired sessions and returns how many were removed
func (s *MemorySessionStore) Prune() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.items {
		if !now.Before(entry.expires) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
