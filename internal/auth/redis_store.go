package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// redisCommands is the subset of redis.Cmdable the token store uses.
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisTokenStore persists the token under a single Redis key. The key
// expires together with the token.
type RedisTokenStore struct {
	client redisCommands
	key    string
	closer func() error
}

// NewRedisTokenStore creates a store on an existing Redis client.
func NewRedisTokenStore(client redisCommands, key string) *RedisTokenStore {
	if key == "" {
		key = constants.DefaultTokenKey
	}

	return &RedisTokenStore{
		client: client,
		key:    key,
	}
}

// NewRedisTokenStoreFromConfig connects to Redis and creates a store that
// owns the connection.
func NewRedisTokenStoreFromConfig(ctx context.Context, config *suitecrm.RedisTokenStoreConfig) (*RedisTokenStore, error) {
	if config == nil || config.Addr == "" {
		return nil, fmt.Errorf("redis: %w", suitecrm.ErrTokenStoreConfigRequired)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Username: config.Username,
		Password: config.Password,
		DB:       config.DB,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	store := NewRedisTokenStore(client, config.Key)
	store.closer = client.Close

	return store, nil
}

// Load implements TokenStore.
func (s *RedisTokenStore) Load(ctx context.Context) (*Token, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, suitecrm.ErrTokenNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("loading token from redis: %w", err)
	}

	var token Token

	err = json.Unmarshal([]byte(value), &token)
	if err != nil {
		return nil, fmt.Errorf("parsing token from redis: %w", err)
	}

	if token.AccessToken == "" {
		return nil, suitecrm.ErrTokenNotFound
	}

	return &token, nil
}

// Save implements TokenStore. The key expires with the token. An already
// expired token is not written and any stored one is removed, since a zero
// expiration would keep the key forever.
func (s *RedisTokenStore) Save(ctx context.Context, token *Token) error {
	var ttl time.Duration
	if !token.ExpiresAt.IsZero() {
		ttl = time.Until(token.ExpiresAt)
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	err = s.client.Set(ctx, s.key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("saving token to redis: %w", err)
	}

	return nil
}

// Clear implements TokenStore.
func (s *RedisTokenStore) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.key).Err()
	if err != nil {
		return fmt.Errorf("clearing token in redis: %w", err)
	}

	return nil
}

// Close releases the connection when the store opened it.
func (s *RedisTokenStore) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer()
}
