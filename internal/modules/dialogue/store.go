// README: Session store abstraction. In-memory map by default, Redis when
// an external cache is configured; the machine's contract is identical
// either way.
package dialogue

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tlx/internal/types"
)

// Store keeps per-session dialogue state keyed by session id. Get reports
// ok=false for an absent key; Delete on an absent key is a no-op.
type Store interface {
	Get(ctx context.Context, id types.ID) (State, bool, error)
	Put(ctx context.Context, id types.ID, st State) error
	Delete(ctx context.Context, id types.ID) error
}

// MemoryStore is the volatile in-process implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[types.ID]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[types.ID]State)}
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	return st, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, id types.ID, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = st
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

const (
	sessionKeyPrefix = "tlx:session:"
	// Abandoned conversations expire on their own.
	sessionTTL = 24 * time.Hour
)

// RedisStore persists sessions as JSON envelopes with a TTL.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redis *redis.Client) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) Get(ctx context.Context, id types.ID) (State, bool, error) {
	val, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	st, err := DecodeState(val)
	if err != nil {
		return nil, false, err
	}
	return st, true, nil
}

func (s *RedisStore) Put(ctx context.Context, id types.ID, st State) error {
	b, err := EncodeState(st)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(id), b, sessionTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id types.ID) error {
	return s.redis.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id types.ID) string {
	return sessionKeyPrefix + string(id)
}
