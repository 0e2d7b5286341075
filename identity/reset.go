package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "nerf:reset:"

// RedisTokenStore keeps reset tokens in Redis with their TTL.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a Redis-backed reset token store.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, token, uid string, ttl time.Duration) error {
	return s.client.Set(ctx, resetKeyPrefix+token, uid, ttl).Err()
}

func (s *RedisTokenStore) Consume(ctx context.Context, token string) (string, error) {
	uid, err := s.client.GetDel(ctx, resetKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrResetTokenInvalid
		}
		return "", err
	}
	return uid, nil
}

// MemoryTokenStore is an in-process TokenStore for tests and local runs
// without Redis.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

type memoryToken struct {
	uid       string
	expiresAt time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]memoryToken),
		now:    time.Now,
	}
}

func (s *MemoryTokenStore) WithClock(now func() time.Time) *MemoryTokenStore {
	s.now = now
	return s
}

func (s *MemoryTokenStore) Save(_ context.Context, token, uid string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryToken{uid: uid, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[token]
	if !ok {
		return "", ErrResetTokenInvalid
	}
	delete(s.tokens, token)
	if s.now().After(entry.expiresAt) {
		return "", ErrResetTokenInvalid
	}
	return entry.uid, nil
}
