package editing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "profile:edit:"

// RedisStore keeps edit state in Redis so that every server instance sees
// the same open forms and drafts.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore wraps client. A non-positive ttl selects DefaultTTL.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("editing: redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key Key) (State, error) {
	if err := key.validate(); err != nil {
		return State{}, err
	}
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("editing: redis get: %w", err)
	}
	return decodeState(raw)
}

// Put implements Store. Every write refreshes the TTL.
func (s *RedisStore) Put(ctx context.Context, key Key, state State) error {
	if err := key.validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("editing: encode state: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("editing: redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("editing: redis del: %w", err)
	}
	return nil
}

func redisKey(key Key) string {
	return redisKeyPrefix + key.Owner + ":" + key.FormID
}

func decodeState(raw []byte) (State, error) {
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, fmt.Errorf("editing: decode state: %w", err)
	}
	return state, nil
}
