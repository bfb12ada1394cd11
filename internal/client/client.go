package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"path"
	"strings"

	"github.com/fivetwenty-io/suitecrm-client/internal/auth"
	"github.com/fivetwenty-io/suitecrm-client/internal/cache"
	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/internal/http"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// sessionLogout is implemented by token managers that hold a persisted
// session, such as auth.SessionManager.
type sessionLogout interface {
	Logout(ctx context.Context) error
}

// Client implements the suitecrm.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       suitecrm.Logger
	config       suitecrm.Config
	cacheOpts    []cache.Option
	closers      []io.Closer

	// Module clients, created on first use
	modules map[string]*ModuleClient
}

// Option configures a Client.
type Option func(*Client)

// WithCacheOptions applies extra options to every module cache.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(c *Client) {
		c.cacheOpts = append(c.cacheOpts, opts...)
	}
}

// TokenURL returns the OAuth2 token endpoint for config. Unless TokenURL is
// set it is the API endpoint with its last path segment replaced by
// "access_token".
func TokenURL(config *suitecrm.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	endpoint := strings.TrimSuffix(config.APIEndpoint, "/")

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return endpoint + "/" + constants.TokenEndpointName
	}

	parsed.Path = path.Join("/", path.Dir(parsed.Path), constants.TokenEndpointName)
	parsed.RawQuery = ""

	return parsed.String()
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *suitecrm.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// createSessionManager builds the client-credentials session on the
// configured token store.
func createSessionManager(ctx context.Context, config *suitecrm.Config) (*auth.SessionManager, auth.TokenStore, error) {
	store, err := auth.NewTokenStoreFromConfig(ctx, config.TokenStore)
	if err != nil {
		return nil, nil, fmt.Errorf("creating token store: %w", err)
	}

	oauthConfig := &auth.OAuth2Config{
		TokenURL:     TokenURL(config),
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		HTTPClient:   &nethttp.Client{Timeout: constants.ShortHTTPTimeout},
	}

	manager := auth.NewSessionManager(oauthConfig, store, auth.WithSessionLogger(config.Logger))

	return manager, store, nil
}

// New creates a SuiteCRM client and establishes the session: the persisted
// token is reused when present, otherwise a new one is requested. Rejected
// credentials are returned as *suitecrm.AuthError.
func New(ctx context.Context, config *suitecrm.Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, suitecrm.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, suitecrm.ErrAPIEndpointRequired
	}

	manager, store, err := createSessionManager(ctx, config)
	if err != nil {
		return nil, err
	}

	client, err := NewWithTokenManager(config, manager, opts...)
	if err != nil {
		return nil, err
	}

	if closer, ok := store.(io.Closer); ok {
		client.closers = append(client.closers, closer)
	}

	err = manager.EnsureSession(ctx)
	if err != nil {
		_ = client.closeResources()

		return nil, fmt.Errorf("establishing session: %w", err)
	}

	return client, nil
}

// NewWithTokenManager creates a SuiteCRM client with a custom token manager.
// No request is made until the first call.
func NewWithTokenManager(config *suitecrm.Config, tokenManager auth.TokenManager, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, suitecrm.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, suitecrm.ErrAPIEndpointRequired
	}

	baseURL := strings.TrimSuffix(config.APIEndpoint, "/")
	httpClient := http.NewClient(baseURL, tokenManager, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      baseURL,
		logger:       suitecrm.LoggerOrNop(config.Logger),
		config:       *config,
		modules:      make(map[string]*ModuleClient),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// BaseURL returns the V8 API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Module implements suitecrm.Client.Module. Clients are created once per name
// so each module keeps a single cache.
func (c *Client) Module(name string) suitecrm.ModuleClient {
	return c.moduleClient(name)
}

func (c *Client) moduleClient(name string) *ModuleClient {
	if module, ok := c.modules[name]; ok {
		return module
	}

	module := NewModuleClient(c.httpClient, name, c.config.Cache, c.logger, c.cacheOpts...)
	c.modules[name] = module

	return module
}

// GetToken returns the current access token from the token manager.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// Logout ends the remote session and clears the persisted token.
func (c *Client) Logout(ctx context.Context) error {
	var remoteErr, clearErr error

	_, err := c.httpClient.Post(ctx, constants.APIPathLogout, nil)
	if err != nil {
		remoteErr = fmt.Errorf("logging out: %w", err)
	}

	// The persisted token is cleared even when the server call failed.
	if session, ok := c.tokenManager.(sessionLogout); ok {
		clearErr = session.Logout(ctx)
	}

	err = errors.Join(remoteErr, clearErr)
	if err != nil {
		return err
	}

	c.logger.Info("Logged out", nil)

	return nil
}

// Close releases the client. With LogoutOnClose set it logs out first.
func (c *Client) Close(ctx context.Context) error {
	var logoutErr error

	if c.config.LogoutOnClose {
		logoutErr = c.Logout(ctx)
	}

	return errors.Join(logoutErr, c.closeResources())
}

func (c *Client) closeResources() error {
	var errs []error

	for _, closer := range c.closers {
		err := closer.Close()
		if err != nil {
			errs = append(errs, err)
		}
	}

	c.closers = nil

	return errors.Join(errs...)
}

// Standard module accessors

// Accounts implements suitecrm.Client.Accounts.
func (c *Client) Accounts() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleAccounts)
}

// Bugs implements suitecrm.Client.Bugs.
func (c *Client) Bugs() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleBugs)
}

// Calendar implements suitecrm.Client.Calendar.
func (c *Client) Calendar() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleCalendar)
}

// Calls implements suitecrm.Client.Calls.
func (c *Client) Calls() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleCalls)
}

// Cases implements suitecrm.Client.Cases.
func (c *Client) Cases() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleCases)
}

// Campaigns implements suitecrm.Client.Campaigns.
func (c *Client) Campaigns() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleCampaigns)
}

// Contacts implements suitecrm.Client.Contacts.
func (c *Client) Contacts() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleContacts)
}

// Documents implements suitecrm.Client.Documents.
func (c *Client) Documents() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleDocuments)
}

// Email implements suitecrm.Client.Email.
func (c *Client) Email() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleEmail)
}

// Emails implements suitecrm.Client.Emails.
func (c *Client) Emails() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleEmails)
}

// Employees implements suitecrm.Client.Employees.
func (c *Client) Employees() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleEmployees)
}

// Leads implements suitecrm.Client.Leads.
func (c *Client) Leads() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleLeads)
}

// Lists implements suitecrm.Client.Lists.
func (c *Client) Lists() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleLists)
}

// Meetings implements suitecrm.Client.Meetings.
func (c *Client) Meetings() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleMeetings)
}

// Notes implements suitecrm.Client.Notes.
func (c *Client) Notes() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleNotes)
}

// Opportunities implements suitecrm.Client.Opportunities.
func (c *Client) Opportunities() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleOpportunities)
}

// Projects implements suitecrm.Client.Projects.
func (c *Client) Projects() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleProjects)
}

// Spots implements suitecrm.Client.Spots.
func (c *Client) Spots() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleSpots)
}

// Surveys implements suitecrm.Client.Surveys.
func (c *Client) Surveys() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleSurveys)
}

// Target implements suitecrm.Client.Target.
func (c *Client) Target() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleTarget)
}

// Targets implements suitecrm.Client.Targets.
func (c *Client) Targets() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleTargets)
}

// Tasks implements suitecrm.Client.Tasks.
func (c *Client) Tasks() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleTasks)
}

// Templates implements suitecrm.Client.Templates.
func (c *Client) Templates() suitecrm.ModuleClient {
	return c.Module(suitecrm.ModuleTemplates)
}
