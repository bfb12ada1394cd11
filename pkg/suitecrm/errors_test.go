package suitecrm_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
	"github.com/stretchr/testify/assert"
)

var errTestCause = errors.New("boom")

func TestAuthError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "401 (Unauthorized) - token revoked",
		(&suitecrm.AuthError{Reason: suitecrm.AuthReasonTokenRevoked}).Error())
	assert.Equal(t, "401 (Unauthorized) - invalid client id/secret: boom",
		(&suitecrm.AuthError{Reason: suitecrm.AuthReasonInvalidCredentials, Err: errTestCause}).Error())
}

func TestAuthError_Unwrap(t *testing.T) {
	t.Parallel()

	err := &suitecrm.AuthError{Reason: suitecrm.AuthReasonInvalidClient, Err: errTestCause}
	assert.ErrorIs(t, err, errTestCause)
}

func TestBackendError_Error(t *testing.T) {
	t.Parallel()

	err := &suitecrm.BackendError{StatusCode: 400, Body: []byte(`{"errors":"Database failure."}`)}
	assert.Equal(t, `backend failure (status 400): {"errors":"Database failure."}`, err.Error())
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	revoked := fmt.Errorf("calling api: %w", &suitecrm.AuthError{Reason: suitecrm.AuthReasonTokenRevoked})
	invalid := &suitecrm.AuthError{Reason: suitecrm.AuthReasonInvalidCredentials}
	backend := fmt.Errorf("listing: %w", &suitecrm.BackendError{StatusCode: 400})

	assert.True(t, suitecrm.IsAuthError(revoked))
	assert.True(t, suitecrm.IsTokenRevoked(revoked))
	assert.True(t, suitecrm.IsAuthError(invalid))
	assert.False(t, suitecrm.IsTokenRevoked(invalid))
	assert.False(t, suitecrm.IsAuthError(backend))
	assert.True(t, suitecrm.IsBackendError(backend))
	assert.False(t, suitecrm.IsBackendError(errTestCause))
	assert.False(t, suitecrm.IsTokenRevoked(errTestCause))
}
