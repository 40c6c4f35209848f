package cgm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultStateTTL    = 10 * time.Minute
	DefaultMaxStates   = 1024
	defaultStatePrefix = "glucose-watch:cgm:oauth-state:"
)

// StateStore hands out single-use OAuth state values for the authorization
// redirect.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) (bool, error)
}

// LocalStateStore keeps states in memory. When full it sweeps expired
// entries and then evicts the oldest one.
type LocalStateStore struct {
	TTL       time.Duration
	MaxStates int

	mu     sync.Mutex
	issued map[string]time.Time
	now    func() time.Time
}

func (s *LocalStateStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *LocalStateStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultStateTTL
	}
	return s.TTL
}

func (s *LocalStateStore) capacity() int {
	if s.MaxStates <= 0 {
		return DefaultMaxStates
	}
	return s.MaxStates
}

func (s *LocalStateStore) Issue(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.issued == nil {
		s.issued = make(map[string]time.Time)
	}

	now := s.clock()
	if len(s.issued) >= s.capacity() {
		var oldest string
		var oldestAt time.Time
		for state, at := range s.issued {
			if now.Sub(at) > s.ttl() {
				delete(s.issued, state)
				continue
			}
			if oldest == "" || at.Before(oldestAt) {
				oldest, oldestAt = state, at
			}
		}
		if len(s.issued) >= s.capacity() {
			delete(s.issued, oldest)
		}
	}

	state := uuid.NewString()
	s.issued[state] = now
	return state, nil
}

func (s *LocalStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.issued[state]
	if !ok {
		return false, nil
	}
	delete(s.issued, state)
	return s.clock().Sub(at) <= s.ttl(), nil
}

func (s *LocalStateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issued)
}

// RedisStateStore shares states between replicas, so the callback may land on
// a different instance than the one that issued the URL. Redis expires them.
type RedisStateStore struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s *RedisStateStore) key(state string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = defaultStatePrefix
	}
	return prefix + state
}

func (s *RedisStateStore) Issue(ctx context.Context) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}

	state := uuid.NewString()
	if err := s.Client.Set(ctx, s.key(state), "1", ttl).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return state, nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	err := s.Client.GetDel(ctx, s.key(state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume oauth state: %w", err)
	}
	return true, nil
}
