package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// kvBucket is the subset of nats.KeyValue the token store uses.
type kvBucket interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
}

// NATSTokenStore persists the token in a JetStream key-value bucket, so
// several processes on different hosts can share one session.
type NATSTokenStore struct {
	bucket kvBucket
	key    string
	conn   *nats.Conn
}

// NewNATSTokenStore creates a store on an existing key-value bucket.
func NewNATSTokenStore(bucket kvBucket, key string) *NATSTokenStore {
	if key == "" {
		key = constants.DefaultTokenKey
	}

	return &NATSTokenStore{
		bucket: bucket,
		key:    key,
	}
}

// NewNATSTokenStoreFromConfig connects to NATS, creating the bucket when it
// does not exist yet.
func NewNATSTokenStoreFromConfig(config *suitecrm.NATSTokenStoreConfig) (*NATSTokenStore, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("nats: %w", suitecrm.ErrTokenStoreConfigRequired)
	}

	bucketName := config.Bucket
	if bucketName == "" {
		bucketName = constants.DefaultNATSBucket
	}

	conn, err := nats.Connect(config.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening jetstream context: %w", err)
	}

	kv, err := js.KeyValue(bucketName)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucketName})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening key-value bucket %q: %w", bucketName, err)
	}

	store := NewNATSTokenStore(kv, config.Key)
	store.conn = conn

	return store, nil
}

// Load implements TokenStore.
func (s *NATSTokenStore) Load(ctx context.Context) (*Token, error) {
	entry, err := s.bucket.Get(s.key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, suitecrm.ErrTokenNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("loading token from nats: %w", err)
	}

	if len(entry.Value()) == 0 {
		return nil, suitecrm.ErrTokenNotFound
	}

	var token Token

	err = json.Unmarshal(entry.Value(), &token)
	if err != nil {
		return nil, fmt.Errorf("parsing token from nats: %w", err)
	}

	if token.AccessToken == "" {
		return nil, suitecrm.ErrTokenNotFound
	}

	return &token, nil
}

// Save implements TokenStore.
func (s *NATSTokenStore) Save(ctx context.Context, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	_, err = s.bucket.Put(s.key, data)
	if err != nil {
		return fmt.Errorf("saving token to nats: %w", err)
	}

	return nil
}

// Clear implements TokenStore.
func (s *NATSTokenStore) Clear(ctx context.Context) error {
	err := s.bucket.Delete(s.key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("clearing token in nats: %w", err)
	}

	return nil
}

// Close drops the connection when the store opened it.
func (s *NATSTokenStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}

	return nil
}
