package suitecrm

import (
	"errors"
	"fmt"
)

// AuthReason describes why authentication failed.
type AuthReason string

// Authentication failure reasons.
const (
	AuthReasonInvalidCredentials AuthReason = "invalid client id/secret"
	AuthReasonInvalidClient      AuthReason = "invalid client id"
	AuthReasonTokenRevoked       AuthReason = "token revoked"
	AuthReasonSessionTerminated  AuthReason = "session terminated"
)

// AuthError is returned when the remote service rejects the client
// credentials or the token cannot be renewed. It is terminal: the session that
// produced it will not issue further requests.
type AuthError struct {
	Reason AuthReason
	Err    error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("401 (Unauthorized) - %s: %v", e.Reason, e.Err)
	}

	return "401 (Unauthorized) - " + string(e.Reason)
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// BackendError is returned when SuiteCRM reports a backend failure
// (HTTP 400 carrying a database failure message). Body holds the raw response.
type BackendError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("backend failure (status %d): %s", e.StatusCode, string(e.Body))
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired            = errors.New("config is required")
	ErrAPIEndpointRequired       = errors.New("API endpoint is required")
	ErrClientCredentialsRequired = errors.New("client id and client secret are required")
	ErrTokenNotFound             = errors.New("no persisted token found")
	ErrUnsupportedTokenStore     = errors.New("unsupported token store type")
	ErrTokenStoreConfigRequired  = errors.New("token store configuration required")
	ErrInvalidateModeConflict    = errors.New("only one of all, id or expired may be set")
	ErrRecordIDRequired          = errors.New("record id is required")
	ErrModuleNameRequired        = errors.New("module name is required")
	ErrUnexpectedResponse        = errors.New("unexpected response shape")
	ErrNoRecords                 = errors.New("no records returned")
)

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	authErr := &AuthError{}

	return errors.As(err, &authErr)
}

// IsTokenRevoked reports whether err is an authentication failure caused by a
// token that was still rejected after a refresh.
func IsTokenRevoked(err error) bool {
	authErr := &AuthError{}
	if errors.As(err, &authErr) {
		return authErr.Reason == AuthReasonTokenRevoked
	}

	return false
}

// IsBackendError reports whether err is a backend failure.
func IsBackendError(err error) bool {
	backendErr := &BackendError{}

	return errors.As(err, &backendErr)
}
