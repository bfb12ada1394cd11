package auth

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// DefaultTokenStoreConfig returns the file store in the working directory.
func DefaultTokenStoreConfig() *suitecrm.TokenStoreConfig {
	return &suitecrm.TokenStoreConfig{
		Type: suitecrm.TokenStoreFile,
		Path: constants.DefaultTokenFile,
	}
}

// NewTokenStoreFromConfig creates a token store from configuration.
func NewTokenStoreFromConfig(ctx context.Context, config *suitecrm.TokenStoreConfig) (TokenStore, error) {
	if config == nil {
		config = DefaultTokenStoreConfig()
	}

	switch config.Type {
	case suitecrm.TokenStoreFile, "":
		path := config.Path
		if path == "" {
			path = constants.DefaultTokenFile
		}

		return NewFileTokenStore(path), nil

	case suitecrm.TokenStoreRedis:
		store, err := NewRedisTokenStoreFromConfig(ctx, config.Redis)
		if err != nil {
			return nil, err
		}

		return store, nil

	case suitecrm.TokenStoreNATS:
		store, err := NewNATSTokenStoreFromConfig(config.NATS)
		if err != nil {
			return nil, err
		}

		return store, nil

	case suitecrm.TokenStoreMemory:
		return NewMemoryTokenStore(), nil

	case suitecrm.TokenStoreNone:
		return NoOpTokenStore{}, nil

	default:
		return nil, fmt.Errorf("%w: %s", suitecrm.ErrUnsupportedTokenStore, config.Type)
	}
}
