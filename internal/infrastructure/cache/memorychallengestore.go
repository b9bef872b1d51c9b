package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/blink-inc/blink/internal/domain/passkey"
)

type memoryChallenge struct {
	secret    []byte
	expiresAt time.Time
}

// MemoryChallengeStore is the single-process ChallengeStore. The expirable LRU
// bounds memory; expiry is decided against the injected clock so that entries
// past their TTL are treated as absent even before the LRU reaps them.
// Capacity eviction drops the oldest challenge, which then reads as expired.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, memoryChallenge]
	ttl     time.Duration
	newID   func() string
	now     func() time.Time
}

var _ passkey.ChallengeStore = (*MemoryChallengeStore)(nil)

func NewMemoryChallengeStore(ttl time.Duration, opts ...ChallengeStoreOption) *MemoryChallengeStore {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	o := resolveOptions(opts)
	return &MemoryChallengeStore{
		// Reaping runs on wall time; give it slack so the clock check stays authoritative.
		entries: expirable.NewLRU[string, memoryChallenge](o.size, nil, 2*ttl),
		ttl:     ttl,
		newID:   o.newID,
		now:     o.now,
	}
}

func (s *MemoryChallengeStore) Put(_ context.Context, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("challenge secret cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	now := s.now()
	if existing, ok := s.entries.Peek(id); ok && now.Before(existing.expiresAt) {
		return "", passkey.ErrDuplicateCeremonyID
	}

	s.entries.Add(id, memoryChallenge{
		secret:    append([]byte(nil), secret...),
		expiresAt: now.Add(s.ttl),
	})
	return id, nil
}

func (s *MemoryChallengeStore) TakeAndDelete(_ context.Context, ceremonyID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries.Peek(ceremonyID)
	if !ok {
		return nil, passkey.ErrChallengeNotFound
	}
	s.entries.Remove(ceremonyID)

	if !s.now().Before(entry.expiresAt) {
		return nil, passkey.ErrChallengeNotFound
	}
	return entry.secret, nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}
