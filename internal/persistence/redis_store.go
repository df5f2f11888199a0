package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/wizard/pkg/api"
)

// RedisStateStore is a StateStore backed by Redis.
// It uses a simple key structure:
//
//	<keyPrefix>state:<prefix> => gob-encoded wizard state
//
// An optional TTL makes abandoned wizard runs expire on their own; an
// expired key is indistinguishable from a missing one, so Load returns a
// fresh state and the wizard restarts from its first step.
type RedisStateStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ api.StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore creates a RedisStateStore without expiry.
// keyPrefix is optional but recommended (e.g. "wizard:").
func NewRedisStateStore(client *redis.Client, keyPrefix string) *RedisStateStore {
	return NewRedisStateStoreTTL(client, keyPrefix, 0)
}

// NewRedisStateStoreTTL creates a RedisStateStore whose entries expire
// after ttl of inactivity. Every Save refreshes the expiry. ttl <= 0
// disables expiry.
func NewRedisStateStoreTTL(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStateStore {
	if keyPrefix == "" {
		keyPrefix = "wizard:"
	}
	return &RedisStateStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisStateStore) keyState(prefix string) string {
	return s.keyPrefix + "state:" + prefix
}

func (s *RedisStateStore) Load(ctx context.Context, prefix string) (*api.WizardState, error) {
	data, err := s.client.Get(ctx, s.keyState(prefix)).Bytes()
	if errors.Is(err, redis.Nil) {
		return api.NewWizardState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard state %q: %w", prefix, err)
	}
	return DecodeState(data)
}

func (s *RedisStateStore) Save(ctx context.Context, prefix string, state *api.WizardState) error {
	data, err := EncodeState(state)
	if err != nil {
		return err
	}
	var expiry time.Duration
	if s.ttl > 0 {
		expiry = s.ttl
	}
	if err := s.client.Set(ctx, s.keyState(prefix), data, expiry).Err(); err != nil {
		return fmt.Errorf("save wizard state %q: %w", prefix, err)
	}
	return nil
}

func (s *RedisStateStore) Reset(ctx context.Context, prefix string) error {
	if err := s.client.Del(ctx, s.keyState(prefix)).Err(); err != nil {
		return fmt.Errorf("reset wizard state %q: %w", prefix, err)
	}
	return nil
}
