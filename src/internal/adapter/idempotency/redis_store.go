package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "transfer:idempotency:"
	// pendingTTL bounds how long a crashed request can block its key.
	pendingTTL = 2 * time.Minute
)

var (
	ErrInProgress = errors.New("a request with this idempotency key is still in progress")
	ErrInvalidKey = errors.New("idempotency key must be between 1 and 255 characters")
	ErrKeyReused  = errors.New("idempotency key was already used with a different request")
)

var releasePending = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// record is what lives under a key. Fingerprint identifies the request that
// claimed it; Response is empty while that request is still pending.
type record struct {
	Fingerprint string `json:"fingerprint"`
	Pending     bool   `json:"pending,omitempty"`
	Response    []byte `json:"response,omitempty"`
}

// RedisStore remembers the response of a completed request under its
// idempotency key. A key is first reserved with a pending marker, then either
// completed with the response or released so the caller may retry. Every
// call carries the request fingerprint so a key cannot be replayed for a
// different request.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Reserve claims key for the request identified by fingerprint. When a
// response is already stored for the same request it is returned with found
// set. A key held by the same request yields ErrInProgress, and a key claimed
// by a different request yields ErrKeyReused.
func (s *RedisStore) Reserve(ctx context.Context, key string, fingerprint string) (stored []byte, found bool, err error) {
	redisKey, err := redisKey(key)
	if err != nil {
		return nil, false, err
	}
	pending, err := pendingMarker(fingerprint)
	if err != nil {
		return nil, false, err
	}

	claimed, err := s.client.SetNX(ctx, redisKey, pending, pendingTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if claimed {
		return nil, false, nil
	}

	value, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		claimed, err = s.client.SetNX(ctx, redisKey, pending, pendingTTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if claimed {
			return nil, false, nil
		}
		return nil, false, ErrInProgress
	}
	if err != nil {
		return nil, false, fmt.Errorf("load idempotency key: %w", err)
	}

	var existing record
	if err := json.Unmarshal(value, &existing); err != nil {
		return nil, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	if existing.Fingerprint != fingerprint {
		return nil, false, ErrKeyReused
	}
	if existing.Pending {
		return nil, false, ErrInProgress
	}
	return existing.Response, true, nil
}

// Complete stores response for the request. If the write fails the pending
// marker is stretched to the full retention so a retry cannot run the request
// a second time once the short reservation would have lapsed.
func (s *RedisStore) Complete(ctx context.Context, key string, fingerprint string, response []byte) error {
	redisKey, err := redisKey(key)
	if err != nil {
		return err
	}
	value, err := json.Marshal(record{Fingerprint: fingerprint, Response: response})
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}

	if err := s.client.Set(ctx, redisKey, value, s.ttl).Err(); err != nil {
		if holdErr := s.client.Expire(ctx, redisKey, s.ttl).Err(); holdErr != nil {
			return fmt.Errorf("store idempotent response: %w", errors.Join(err, holdErr))
		}
		return fmt.Errorf("store idempotent response (key held pending for %s): %w", s.ttl, err)
	}
	return nil
}

// Release drops a pending reservation made for fingerprint. A completed
// response is left alone.
func (s *RedisStore) Release(ctx context.Context, key string, fingerprint string) error {
	redisKey, err := redisKey(key)
	if err != nil {
		return err
	}
	pending, err := pendingMarker(fingerprint)
	if err != nil {
		return err
	}
	if err := releasePending.Run(ctx, s.client, []string{redisKey}, pending).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func pendingMarker(fingerprint string) (string, error) {
	value, err := json.Marshal(record{Fingerprint: fingerprint, Pending: true})
	if err != nil {
		return "", fmt.Errorf("encode idempotency record: %w", err)
	}
	return string(value), nil
}

func redisKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 255 {
		return "", ErrInvalidKey
	}
	return keyPrefix + key, nil
}
