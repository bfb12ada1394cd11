package suitecrm

import (
	"context"
	"time"
)

// ModuleClient operates on the records of one SuiteCRM module.
type ModuleClient interface {
	Name() string
	Create(ctx context.Context, attributes map[string]interface{}) (*Record, error)
	Get(ctx context.Context, query *Query) (*Result, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	GetAll(ctx context.Context, pageSize int) ([]Record, error)
	Update(ctx context.Context, id string, attributes map[string]interface{}) (*Record, error)
	Delete(ctx context.Context, id string) (*Document, error)
	Fields(ctx context.Context) ([]string, error)
	GetRelationship(ctx context.Context, id, relatedModule string) (*Document, error)
	CreateRelationship(ctx context.Context, id, relatedModule, relatedID string) (*Document, error)
	DeleteRelationship(ctx context.Context, id, relatedModule, relatedID string) (*Document, error)
	InvalidateCache(opts InvalidateOptions) error
}

// InvalidateOptions selects which cache entries to drop. At most one mode may
// be set per call.
type InvalidateOptions struct {
	All     bool
	ID      string
	Expired bool
}

// StandardModules provides the modules every SuiteCRM install ships with.
type StandardModules interface {
	Accounts() ModuleClient
	Bugs() ModuleClient
	Calendar() ModuleClient
	Calls() ModuleClient
	Cases() ModuleClient
	Campaigns() ModuleClient
	Contacts() ModuleClient
	Documents() ModuleClient
	Email() ModuleClient
	Emails() ModuleClient
	Employees() ModuleClient
	Leads() ModuleClient
	Lists() ModuleClient
	Meetings() ModuleClient
	Notes() ModuleClient
	Opportunities() ModuleClient
	Projects() ModuleClient
	Spots() ModuleClient
	Surveys() ModuleClient
	Target() ModuleClient
	Targets() ModuleClient
	Tasks() ModuleClient
	Templates() ModuleClient
}

// SessionClient exposes the authenticated session.
type SessionClient interface {
	GetToken(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

// Client is the SuiteCRM API facade.
type Client interface {
	StandardModules
	SessionClient

	// Module returns the client for any module by name, including custom ones.
	Module(name string) ModuleClient
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// CacheConfig configures the per-module record cache.
type CacheConfig struct {
	// Enabled turns caching on. When false, lookups always go to the network.
	Enabled bool
	// TTL is how long a fetched record stays valid. Zero means the default
	// of five minutes.
	TTL time.Duration
}

// TokenStoreType selects where the bearer token is persisted.
type TokenStoreType string

const (
	// TokenStoreFile persists the token as JSON in a local file.
	TokenStoreFile TokenStoreType = "file"

	// TokenStoreRedis persists the token under a Redis key.
	TokenStoreRedis TokenStoreType = "redis"

	// TokenStoreNATS persists the token in a NATS JetStream key-value bucket.
	TokenStoreNATS TokenStoreType = "nats"

	// TokenStoreMemory keeps the token for the life of the process only.
	TokenStoreMemory TokenStoreType = "memory"

	// TokenStoreNone disables persistence.
	TokenStoreNone TokenStoreType = "none"
)

// TokenStoreConfig configures token persistence.
type TokenStoreConfig struct {
	Type TokenStoreType

	// Path is the token file for TokenStoreFile.
	Path string

	Redis *RedisTokenStoreConfig
	NATS  *NATSTokenStoreConfig
}

// RedisTokenStoreConfig configures the Redis token store.
type RedisTokenStoreConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Key      string
}

// NATSTokenStoreConfig configures the NATS key-value token store.
type NATSTokenStoreConfig struct {
	URL    string
	Bucket string
	Key    string
}

// Config represents client configuration for building a Client.
//
// # Endpoints
//
// APIEndpoint is the V8 API base, e.g. "https://crm.example.com/Api/V8".
// Module and logout requests are sent below it. The OAuth2 token endpoint
// defaults to "access_token" next to the version segment
// ("https://crm.example.com/Api/access_token") unless TokenURL is set.
//
// # Authentication
//
// Only the client_credentials grant is supported. On start the client reads
// the token persisted by TokenStore; when none is found it fetches a new one.
// Rejected credentials are terminal and surface as *AuthError.
//
// # Retries
//
// A 401 triggers exactly one token refresh and one retry. RetryMax only
// controls transport-level retries on connection failures and defaults to 0.
type Config struct {
	// Required fields
	APIEndpoint  string
	ClientID     string
	ClientSecret string

	// TokenURL overrides the derived OAuth2 token endpoint.
	TokenURL string

	// Cache configures the per-module record cache.
	Cache CacheConfig

	// TokenStore configures token persistence. Nil means a file named
	// AccessToken.json in the working directory.
	TokenStore *TokenStoreConfig

	// Optional configurations
	HTTPTimeout  time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Debug        bool
	Logger       Logger
	UserAgent    string

	// LogoutOnClose makes Close end the remote session and clear the
	// persisted token.
	LogoutOnClose bool
}
