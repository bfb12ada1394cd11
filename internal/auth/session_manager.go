package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// TokenManager supplies bearer tokens to the request pipeline.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	Terminate(reason suitecrm.AuthReason) error
}

// SessionState is the lifecycle state of a session.
type SessionState int

// Session states. StateFatal is terminal.
const (
	StateNoSession SessionState = iota
	StateActive
	StateRefreshing
	StateFatal
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateRefreshing:
		return "refreshing"
	case StateFatal:
		return "fatal"
	default:
		return "no-session"
	}
}

// OAuth2Config holds the client-credentials settings.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string

	// HTTPClient is used for the token exchange when set.
	HTTPClient *http.Client
}

// session is the authenticated state; nil until EnsureSession builds it.
type session struct {
	token *Token
}

// SessionManager owns the single bearer token of a client and renews it with
// the client-credentials grant. Every new token is written to the TokenStore.
// It is not safe for concurrent use.
type SessionManager struct {
	config  *OAuth2Config
	store   TokenStore
	logger  suitecrm.Logger
	now     func() time.Time
	session *session
	state   SessionState
	fatal   *suitecrm.AuthError
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithSessionLogger sets the logger.
func WithSessionLogger(logger suitecrm.Logger) SessionOption {
	return func(m *SessionManager) {
		m.logger = suitecrm.LoggerOrNop(logger)
	}
}

// WithSessionClock overrides the time source used for expiry checks.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// NewSessionManager creates a manager in the NO_SESSION state. A nil store
// disables persistence.
func NewSessionManager(config *OAuth2Config, store TokenStore, opts ...SessionOption) *SessionManager {
	if store == nil {
		store = NoOpTokenStore{}
	}

	manager := &SessionManager{
		config: config,
		store:  store,
		logger: suitecrm.NopLogger{},
		now:    time.Now,
		state:  StateNoSession,
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// State returns the current lifecycle state.
func (m *SessionManager) State() SessionState {
	return m.state
}

// Token returns a copy of the current token, or nil.
func (m *SessionManager) Token() *Token {
	if m.session == nil || m.session.token == nil {
		return nil
	}

	token := *m.session.token

	return &token
}

// EnsureSession builds the session on first use. It reads the persisted token
// and only fetches a new one when the store holds none.
func (m *SessionManager) EnsureSession(ctx context.Context) error {
	if m.state == StateFatal {
		return m.terminated()
	}

	if m.session != nil {
		return nil
	}

	token, err := m.store.Load(ctx)

	switch {
	case err == nil:
		m.session = &session{token: token}
		m.state = StateActive
		m.logger.Debug("Loaded persisted token", map[string]interface{}{
			"expires_at": token.ExpiresAt,
		})

		return nil
	case errors.Is(err, suitecrm.ErrTokenNotFound):
		m.logger.Debug("No persisted token, requesting a new one", nil)
	default:
		m.logger.Warn("Failed to load persisted token, requesting a new one", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return m.RefreshToken(ctx)
}

// GetToken returns the current access token. A token known to be expired is
// refreshed before it is returned.
func (m *SessionManager) GetToken(ctx context.Context) (string, error) {
	err := m.EnsureSession(ctx)
	if err != nil {
		return "", err
	}

	if !m.session.token.ValidAt(m.now()) {
		m.logger.Debug("Token expired, refreshing", map[string]interface{}{
			"expires_at": m.session.token.ExpiresAt,
		})

		err = m.RefreshToken(ctx)
		if err != nil {
			return "", err
		}
	}

	return m.session.token.AccessToken, nil
}

// RefreshToken performs the client-credentials exchange, stores the new token
// in memory and persists it. Rejected credentials move the session to
// StateFatal and are returned as *suitecrm.AuthError.
func (m *SessionManager) RefreshToken(ctx context.Context) error {
	if m.state == StateFatal {
		return m.terminated()
	}

	previous := m.state
	m.state = StateRefreshing

	token, err := m.fetchToken(ctx)
	if err != nil {
		authErr := &suitecrm.AuthError{}
		if errors.As(err, &authErr) {
			m.fail(authErr)

			return authErr
		}

		m.state = previous

		return err
	}

	if m.session == nil {
		m.session = &session{}
	}

	m.session.token = token
	m.state = StateActive

	persistErr := m.store.Save(ctx, token)
	if persistErr != nil {
		m.logger.Warn("Failed to persist refreshed token", map[string]interface{}{
			"error": persistErr.Error(),
		})
	}

	return nil
}

// Terminate moves the session to StateFatal. It returns the AuthError that
// every later call will report.
func (m *SessionManager) Terminate(reason suitecrm.AuthReason) error {
	authErr := &suitecrm.AuthError{Reason: reason}
	m.fail(authErr)

	return authErr
}

// Logout drops the session and clears the persisted token. The manager can be
// used again afterwards unless it was terminated.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.session = nil
	if m.state != StateFatal {
		m.state = StateNoSession
	}

	err := m.store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clearing persisted token: %w", err)
	}

	return nil
}

func (m *SessionManager) fail(authErr *suitecrm.AuthError) {
	m.state = StateFatal
	m.fatal = authErr
	m.logger.Error("Authentication failed", map[string]interface{}{
		"reason": string(authErr.Reason),
	})
}

func (m *SessionManager) terminated() error {
	return &suitecrm.AuthError{Reason: suitecrm.AuthReasonSessionTerminated, Err: m.fatal}
}

func (m *SessionManager) fetchToken(ctx context.Context) (*Token, error) {
	if m.config == nil || m.config.ClientID == "" || m.config.ClientSecret == "" {
		return nil, &suitecrm.AuthError{
			Reason: suitecrm.AuthReasonInvalidCredentials,
			Err:    suitecrm.ErrClientCredentialsRequired,
		}
	}

	grant := &clientcredentials.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		TokenURL:     m.config.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if m.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.config.HTTPClient)
	}

	token, err := grant.Token(ctx)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	m.logger.Debug("Fetched new token", map[string]interface{}{
		"expires_at": token.Expiry,
	})

	return tokenFromOAuth2(token, m.now()), nil
}

// classifyTokenError maps an OAuth2 error response to an AuthError. Transport
// failures and server errors are returned wrapped so the caller may try again.
func classifyTokenError(err error) error {
	retrieveErr := &oauth2.RetrieveError{}
	if !errors.As(err, &retrieveErr) {
		return fmt.Errorf("requesting token: %w", err)
	}

	switch {
	case retrieveErr.ErrorCode == "invalid_client":
		return &suitecrm.AuthError{Reason: suitecrm.AuthReasonInvalidCredentials, Err: err}
	case retrieveErr.ErrorCode != "":
		return &suitecrm.AuthError{Reason: suitecrm.AuthReasonInvalidClient, Err: err}
	case retrieveErr.Response != nil &&
		(retrieveErr.Response.StatusCode == http.StatusUnauthorized || retrieveErr.Response.StatusCode == http.StatusBadRequest):
		return &suitecrm.AuthError{Reason: suitecrm.AuthReasonInvalidClient, Err: err}
	default:
		return fmt.Errorf("requesting token: %w", err)
	}
}
