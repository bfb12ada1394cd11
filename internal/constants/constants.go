package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and token files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as token exchange.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. The request pipeline never retries on status codes; these
// only apply to transport failures when explicitly enabled.
const (
	// DefaultRetryMax is the default number of transport retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between transport retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Token handling.
const (
	// TokenExpirationBuffer treats tokens this close to expiry as expired.
	TokenExpirationBuffer = 30 * time.Second

	// DefaultTokenFile is the token file used when no store is configured.
	DefaultTokenFile = "AccessToken.json"

	// DefaultTokenKey is the key used by key-value token stores.
	DefaultTokenKey = "suitecrm.access_token"

	// DefaultNATSBucket is the JetStream key-value bucket for tokens.
	DefaultNATSBucket = "suitecrm_tokens"

	// TokenTypeBearer is the only token type SuiteCRM issues.
	TokenTypeBearer = "Bearer"
)

// Cache defaults.
const (
	// DefaultCacheTTL is how long a cached record stays valid.
	DefaultCacheTTL = 300 * time.Second
)

// Paging.
const (
	// DefaultPageSize is the page size used by GetAll.
	DefaultPageSize = 100

	// ProbePageSize is the page size used to read pagination metadata.
	ProbePageSize = 1
)

// SuiteCRM API paths, relative to the V8 base.
const (
	APIPathModule = "/module"
	APIPathLogout = "/logout"

	// TokenEndpointName is appended to the API root to form the token URL.
	TokenEndpointName = "access_token"
)

// SuiteCRM wire details.
const (
	// MediaTypeJSONAPI is sent as Accept and Content-Type.
	MediaTypeJSONAPI = "application/vnd.api+json"

	// BackendFailureMarker identifies a backend failure in a 400 response body.
	BackendFailureMarker = "Database failure."

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "suitecrm-client-go"
)

// CLI.
const (
	// MinimumArgumentCount is used by two-argument commands.
	MinimumArgumentCount = 2

	// ConfigDirName is the directory under $HOME holding CLI state.
	ConfigDirName = ".suitecrm"

	// EnvPrefix is the prefix for environment variables read by the CLI.
	EnvPrefix = "SUITECRM"

	// MaskedSecret replaces secrets in output.
	MaskedSecret = "***"

	// NotAvailable is shown for missing values.
	NotAvailable = "N/A"
)

// Format constants.
const (
	// FormatJSON represents JSON output format.
	FormatJSON = "json"

	// FormatYAML represents YAML output format.
	FormatYAML = "yaml"

	// FormatTable represents table output format.
	FormatTable = "table"
)
