package constants

import "errors"

// CLI configuration errors.
var (
	ErrNoAPIConfigured      = errors.New("no API endpoint configured, use 'suitecrm login' first")
	ErrNoCredentials        = errors.New("no client credentials configured, use 'suitecrm login' first")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
	ErrUnsupportedOutput    = errors.New("unsupported output format")
	ErrInvalidAttribute     = errors.New("invalid attribute, expected key=value")
	ErrInvalidFilter        = errors.New("invalid filter, expected field=value")
	ErrClientSecretRequired = errors.New("client secret is required")
)

// File system errors.
var (
	ErrNotRegularFile = errors.New("path is not a regular file")
)
