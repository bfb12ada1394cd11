package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/suitecrm-client/internal/auth"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenServer issues numbered tokens and counts the exchanges it served.
type tokenServer struct {
	*httptest.Server

	calls atomic.Int32
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()

	server := &tokenServer{}
	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := server.calls.Add(1)

		assert.Equal(t, "/Api/access_token", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		err := r.ParseForm()
		assert.NoError(t, err)
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Equal(t, "client-secret", r.Form.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-" + strconv.Itoa(int(n)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(server.Close)

	return server
}

func newErrorTokenServer(t *testing.T, status int, body map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if body != nil {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(status)

		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

func oauthConfig(serverURL string) *auth.OAuth2Config {
	return &auth.OAuth2Config{
		TokenURL:     serverURL + "/Api/access_token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
}

func TestSessionManager_EnsureSession(t *testing.T) {
	t.Parallel()

	t.Run("reads persisted token without a token exchange", func(t *testing.T) {
		t.Parallel()

		server := newTokenServer(t)
		store := auth.NewMemoryTokenStore()
		require.NoError(t, store.Save(context.Background(), &auth.Token{
			AccessToken: "persisted-token",
			ExpiresAt:   time.Now().Add(time.Hour),
		}))

		manager := auth.NewSessionManager(oauthConfig(server.URL), store)
		assert.Equal(t, auth.StateNoSession, manager.State())

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "persisted-token", token)
		assert.Equal(t, auth.StateActive, manager.State())
		assert.Equal(t, int32(0), server.calls.Load())
	})

	t.Run("fetches and persists a token when the store is empty", func(t *testing.T) {
		t.Parallel()

		server := newTokenServer(t)
		store := auth.NewMemoryTokenStore()
		manager := auth.NewSessionManager(oauthConfig(server.URL), store)

		err := manager.EnsureSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(1), server.calls.Load())

		persisted, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token-1", persisted.AccessToken)
		assert.Equal(t, "Bearer", persisted.TokenType)
		assert.False(t, persisted.ExpiresAt.IsZero())

		// A second call reuses the session.
		require.NoError(t, manager.EnsureSession(context.Background()))
		assert.Equal(t, int32(1), server.calls.Load())
	})

	t.Run("reads the token written by a previous process", func(t *testing.T) {
		t.Parallel()

		server := newTokenServer(t)
		store := auth.NewFileTokenStore(t.TempDir() + "/AccessToken.json")

		first := auth.NewSessionManager(oauthConfig(server.URL), store)
		_, err := first.GetToken(context.Background())
		require.NoError(t, err)

		second := auth.NewSessionManager(oauthConfig(server.URL), store)
		token, err := second.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token-1", token)
		assert.Equal(t, int32(1), server.calls.Load())
	})

	t.Run("falls back to a token exchange when the store fails", func(t *testing.T) {
		t.Parallel()

		server := newTokenServer(t)
		manager := auth.NewSessionManager(oauthConfig(server.URL), failingStore{})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token-1", token)
	})
}

func TestSessionManager_InvalidCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   map[string]string
		reason suitecrm.AuthReason
	}{
		{
			name:   "invalid client id and secret",
			status: http.StatusUnauthorized,
			body: map[string]string{
				"error":             "invalid_client",
				"error_description": "Client authentication failed",
			},
			reason: suitecrm.AuthReasonInvalidCredentials,
		},
		{
			name:   "other oauth error",
			status: http.StatusBadRequest,
			body: map[string]string{
				"error":             "unsupported_grant_type",
				"error_description": "The authorization grant type is not supported",
			},
			reason: suitecrm.AuthReasonInvalidClient,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, calls := newErrorTokenServer(t, tt.status, tt.body)
			manager := auth.NewSessionManager(oauthConfig(server.URL), auth.NewMemoryTokenStore())

			_, err := manager.GetToken(context.Background())
			require.Error(t, err)

			authErr := &suitecrm.AuthError{}
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tt.reason, authErr.Reason)
			assert.Equal(t, auth.StateFatal, manager.State())

			// Terminal: no further token exchanges.
			_, err = manager.GetToken(context.Background())
			require.Error(t, err)
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, suitecrm.AuthReasonSessionTerminated, authErr.Reason)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestSessionManager_MissingCredentials(t *testing.T) {
	t.Parallel()

	manager := auth.NewSessionManager(&auth.OAuth2Config{TokenURL: "http://127.0.0.1:1/access_token"}, nil)

	_, err := manager.GetToken(context.Background())
	require.Error(t, err)
	assert.True(t, suitecrm.IsAuthError(err))
	assert.ErrorIs(t, err, suitecrm.ErrClientCredentialsRequired)
}

func TestSessionManager_ServerErrorIsNotTerminal(t *testing.T) {
	t.Parallel()

	server, calls := newErrorTokenServer(t, http.StatusInternalServerError, nil)
	manager := auth.NewSessionManager(oauthConfig(server.URL), auth.NewMemoryTokenStore())

	_, err := manager.GetToken(context.Background())
	require.Error(t, err)
	assert.False(t, suitecrm.IsAuthError(err))
	assert.Equal(t, auth.StateNoSession, manager.State())

	_, err = manager.GetToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSessionManager_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t)
	store := auth.NewMemoryTokenStore()
	require.NoError(t, store.Save(context.Background(), &auth.Token{
		AccessToken: "stale-token",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}))

	manager := auth.NewSessionManager(oauthConfig(server.URL), store)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, int32(1), server.calls.Load())

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", persisted.AccessToken)
}

func TestSessionManager_ClockDrivesExpiry(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t)
	now := time.Now()
	manager := auth.NewSessionManager(oauthConfig(server.URL), nil, auth.WithSessionClock(func() time.Time {
		return now
	}))

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	now = now.Add(2 * time.Hour)

	token, err = manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestSessionManager_RefreshToken(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t)
	store := auth.NewMemoryTokenStore()
	manager := auth.NewSessionManager(oauthConfig(server.URL), store)

	_, err := manager.GetToken(context.Background())
	require.NoError(t, err)

	err = manager.RefreshToken(context.Background())
	require.NoError(t, err)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, "token-2", manager.Token().AccessToken)

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", persisted.AccessToken)
}

func TestSessionManager_PersistFailureDoesNotFailRefresh(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t)
	logger := &recordingLogger{}
	manager := auth.NewSessionManager(oauthConfig(server.URL), failingStore{}, auth.WithSessionLogger(logger))

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Contains(t, logger.warnings, "Failed to persist refreshed token")
}

func TestSessionManager_Terminate(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t)
	manager := auth.NewSessionManager(oauthConfig(server.URL), nil)

	_, err := manager.GetToken(context.Background())
	require.NoError(t, err)

	err = manager.Terminate(suitecrm.AuthReasonTokenRevoked)
	assert.True(t, suitecrm.IsTokenRevoked(err))
	assert.Equal(t, auth.StateFatal, manager.State())

	err = manager.RefreshToken(context.Background())
	require.Error(t, err)
	assert.True(t, suitecrm.IsAuthError(err))
	assert.Equal(t, int32(1), server.calls.Load())
}

func TestSessionManager_Logout(t *testing.T) {
	t.Parallel()

	server := newTokenServer(t)
	store := auth.NewMemoryTokenStore()
	manager := auth.NewSessionManager(oauthConfig(server.URL), store)

	_, err := manager.GetToken(context.Background())
	require.NoError(t, err)

	err = manager.Logout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, auth.StateNoSession, manager.State())
	assert.Nil(t, manager.Token())

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, suitecrm.ErrTokenNotFound)
}

var errStoreUnavailable = errors.New("store unavailable")

type failingStore struct{}

func (failingStore) Load(ctx context.Context) (*auth.Token, error) {
	return nil, errStoreUnavailable
}

func (failingStore) Save(ctx context.Context, token *auth.Token) error {
	return errStoreUnavailable
}

func (failingStore) Clear(ctx context.Context) error {
	return errStoreUnavailable
}

type recordingLogger struct {
	suitecrm.NopLogger

	warnings []string
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.warnings = append(l.warnings, msg)
}
