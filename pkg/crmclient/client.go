// Package crmclient provides the main entry point for creating SuiteCRM V8 API clients
package crmclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/suitecrm-client/internal/client"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// DefaultAPIPath is appended to endpoints given without a path.
const DefaultAPIPath = "/Api/V8"

// New creates a new SuiteCRM client and establishes its session.
func New(ctx context.Context, config *suitecrm.Config) (suitecrm.Client, error) {
	if config == nil {
		return nil, suitecrm.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, suitecrm.ErrAPIEndpointRequired
	}

	normalized := *config
	normalized.APIEndpoint = NormalizeEndpoint(config.APIEndpoint)

	crm, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return crm, nil
}

// NormalizeEndpoint trims trailing slashes, defaults the scheme to https and
// the path to DefaultAPIPath.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}

	if parsed.Path == "" {
		parsed.Path = DefaultAPIPath
	}

	return parsed.String()
}

// NewWithClientCredentials creates a new client using OAuth2 client credentials
// and the default token store.
func NewWithClientCredentials(ctx context.Context, endpoint, clientID, clientSecret string) (suitecrm.Client, error) {
	return New(ctx, &suitecrm.Config{
		APIEndpoint:  endpoint,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NewWithCache creates a new client using client credentials with the record
// cache enabled. A zero ttl uses the default.
func NewWithCache(ctx context.Context, endpoint, clientID, clientSecret string, ttl time.Duration) (suitecrm.Client, error) {
	return New(ctx, &suitecrm.Config{
		APIEndpoint:  endpoint,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Cache:        suitecrm.CacheConfig{Enabled: true, TTL: ttl},
	})
}
