package crmclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fivetwenty-io/suitecrm-client/pkg/crmclient"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := crmclient.New(context.Background(), nil)
		require.ErrorIs(t, err, suitecrm.ErrConfigRequired)
	})

	t.Run("requires API endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := crmclient.New(context.Background(), &suitecrm.Config{})
		require.ErrorIs(t, err, suitecrm.ErrAPIEndpointRequired)
	})

	t.Run("requires credentials", func(t *testing.T) {
		t.Parallel()

		_, err := crmclient.New(context.Background(), &suitecrm.Config{
			APIEndpoint: "https://crm.example.com",
			TokenStore:  &suitecrm.TokenStoreConfig{Type: suitecrm.TokenStoreNone},
		})
		require.ErrorIs(t, err, suitecrm.ErrClientCredentialsRequired)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"https://crm.example.com/Api/V8", "https://crm.example.com/Api/V8"},
		{"https://crm.example.com/Api/V8/", "https://crm.example.com/Api/V8"},
		{"crm.example.com/Api/V8", "https://crm.example.com/Api/V8"},
		{"https://crm.example.com", "https://crm.example.com/Api/V8"},
		{"  crm.example.com/ ", "https://crm.example.com/Api/V8"},
		{"http://localhost:8080/legacy/Api/V8", "http://localhost:8080/legacy/Api/V8"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, crmclient.NormalizeEndpoint(tt.input))
		})
	}
}

func newTokenServer(t *testing.T, tokens *int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/Api/access_token":
			*tokens++

			writer.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"access_token": "test-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "/Api/V8/module/Accounts":
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))

			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"type":       "Accounts",
					"id":         "acc-1",
					"attributes": map[string]interface{}{"name": "Acme"},
				},
			})
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestClientIntegration(t *testing.T) {
	t.Parallel()

	tokens := 0
	server := newTokenServer(t, &tokens)

	config := &suitecrm.Config{
		APIEndpoint:  server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Cache:        suitecrm.CacheConfig{Enabled: true},
		TokenStore:   &suitecrm.TokenStoreConfig{Type: suitecrm.TokenStoreMemory},
	}

	crm, err := crmclient.New(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, server.URL, config.APIEndpoint, "caller's config is left as given")

	defer func() { _ = crm.Close(context.Background()) }()

	account, err := crm.Accounts().GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", account.Attribute("name"))
	assert.Equal(t, 1, tokens)
}

//nolint:paralleltest // Changes the working directory for the default token file.
func TestNewWithClientCredentials(t *testing.T) {
	dir := t.TempDir()
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	tokens := 0
	server := newTokenServer(t, &tokens)

	_, err := crmclient.NewWithClientCredentials(context.Background(), server.URL, "client-id", "client-secret")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "AccessToken.json"))

	crm, err := crmclient.NewWithCache(context.Background(), server.URL, "client-id", "client-secret", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, tokens)

	_, err = crm.Accounts().GetByID(context.Background(), "acc-1")
	require.NoError(t, err)

	_, err = crm.Accounts().GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
}
