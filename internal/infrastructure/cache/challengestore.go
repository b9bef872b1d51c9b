package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/shared/constants"
)

// DefaultChallengeTTL is how long an unconsumed ceremony challenge stays readable.
const DefaultChallengeTTL = 5 * time.Minute

// DefaultChallengeCapacity bounds the in-process store.
const DefaultChallengeCapacity = 10000

// ChallengeStoreOption customizes a challenge store.
type ChallengeStoreOption func(*challengeStoreOptions)

type challengeStoreOptions struct {
	newID func() string
	now   func() time.Time
	size  int
}

// WithIDGenerator replaces the uuid v4 ceremony id generator.
func WithIDGenerator(fn func() string) ChallengeStoreOption {
	return func(o *challengeStoreOptions) { o.newID = fn }
}

// WithClock sets the time source used by the in-process store.
func WithClock(fn func() time.Time) ChallengeStoreOption {
	return func(o *challengeStoreOptions) { o.now = fn }
}

// WithCapacity bounds the number of live challenges held in process.
// Non-positive values keep the default.
func WithCapacity(n int) ChallengeStoreOption {
	return func(o *challengeStoreOptions) {
		if n > 0 {
			o.size = n
		}
	}
}

func resolveOptions(opts []ChallengeStoreOption) challengeStoreOptions {
	o := challengeStoreOptions{
		newID: uuid.NewString,
		now:   time.Now,
		size:  DefaultChallengeCapacity,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// RedisChallengeStore keeps ceremony secrets in Redis. SET NX guarantees a
// live id is never overwritten and GETDEL makes consumption atomic across
// instances.
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	newID  func() string
}

var _ passkey.ChallengeStore = (*RedisChallengeStore)(nil)

func NewRedisChallengeStore(client *redis.Client, ttl time.Duration, opts ...ChallengeStoreOption) *RedisChallengeStore {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	o := resolveOptions(opts)
	return &RedisChallengeStore{
		client: client,
		prefix: constants.RedisPrefixChallenge,
		ttl:    ttl,
		newID:  o.newID,
	}
}

func (s *RedisChallengeStore) Put(ctx context.Context, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("challenge secret cannot be empty")
	}

	id := s.newID()
	ok, err := s.client.SetNX(ctx, s.buildKey(id), secret, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store challenge in Redis: %w", err)
	}
	if !ok {
		return "", passkey.ErrDuplicateCeremonyID
	}

	return id, nil
}

func (s *RedisChallengeStore) TakeAndDelete(ctx context.Context, ceremonyID string) ([]byte, error) {
	if ceremonyID == "" {
		return nil, passkey.ErrChallengeNotFound
	}

	data, err := s.client.GetDel(ctx, s.buildKey(ceremonyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, passkey.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to take challenge from Redis: %w", err)
	}

	return data, nil
}

func (s *RedisChallengeStore) buildKey(ceremonyID string) string {
	return s.prefix + ceremonyID
}
