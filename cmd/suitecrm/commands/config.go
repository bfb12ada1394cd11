package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/crmclient"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

const configFileName = "config.yml"

// Config represents the CLI configuration.
type Config struct {
	API          string `json:"api,omitempty"           yaml:"api,omitempty"`
	ClientID     string `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`

	// Token persistence
	TokenStore    string `json:"token_store,omitempty"    yaml:"token_store,omitempty"`
	TokenFile     string `json:"token_file,omitempty"     yaml:"token_file,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty"     yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"       yaml:"redis_db,omitempty"`
	NATSURL       string `json:"nats_url,omitempty"       yaml:"nats_url,omitempty"`
	NATSBucket    string `json:"nats_bucket,omitempty"    yaml:"nats_bucket,omitempty"`

	// Record cache
	Cache    bool   `json:"cache"               yaml:"cache"`
	CacheTTL string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`

	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// configField reads and writes one configuration key.
type configField struct {
	get    func(*Config) string
	set    func(*Config, string) error
	secret bool
}

func stringField(field func(*Config) *string) configField {
	return configField{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, value string) error {
			*field(c) = value

			return nil
		},
	}
}

func secretField(field func(*Config) *string) configField {
	f := stringField(field)
	f.secret = true

	return f
}

//nolint:gochecknoglobals // Static key table
var configFields = map[string]configField{
	"api":            stringField(func(c *Config) *string { return &c.API }),
	"client_id":      stringField(func(c *Config) *string { return &c.ClientID }),
	"client_secret":  secretField(func(c *Config) *string { return &c.ClientSecret }),
	"token_store":    stringField(func(c *Config) *string { return &c.TokenStore }),
	"token_file":     stringField(func(c *Config) *string { return &c.TokenFile }),
	"redis_addr":     stringField(func(c *Config) *string { return &c.RedisAddr }),
	"redis_password": secretField(func(c *Config) *string { return &c.RedisPassword }),
	"nats_url":       stringField(func(c *Config) *string { return &c.NATSURL }),
	"nats_bucket":    stringField(func(c *Config) *string { return &c.NATSBucket }),
	"output":         stringField(func(c *Config) *string { return &c.Output }),
	"redis_db": {
		get: func(c *Config) string { return strconv.Itoa(c.RedisDB) },
		set: func(c *Config, value string) error {
			db, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid redis_db %q: %w", value, err)
			}

			c.RedisDB = db

			return nil
		},
	},
	"cache": {
		get: func(c *Config) string { return strconv.FormatBool(c.Cache) },
		set: func(c *Config, value string) error {
			enabled, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid cache value %q: %w", value, err)
			}

			c.Cache = enabled

			return nil
		},
	},
	"cache_ttl": {
		get: func(c *Config) string { return c.CacheTTL },
		set: func(c *Config, value string) error {
			if value != "" {
				_, err := time.ParseDuration(value)
				if err != nil {
					return fmt.Errorf("invalid cache_ttl %q: %w", value, err)
				}
			}

			c.CacheTTL = value

			return nil
		},
	},
}

// ConfigKeys returns the supported configuration keys in sorted order.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configFields))
	for key := range configFields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the SuiteCRM CLI configuration stored in ~/.suitecrm/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			masked := *config
			if masked.ClientSecret != "" {
				masked.ClientSecret = constants.MaskedSecret
			}

			if masked.RedisPassword != "" {
				masked.RedisPassword = constants.MaskedSecret
			}

			return renderOutput(cmd.OutOrStdout(), masked, func(w io.Writer) error {
				return displayConfigTable(w, config)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Run 'suitecrm config show' to see the keys.",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			value := args[1]
			if configFields[args[0]].secret {
				value = constants.MaskedSecret
			}

			return outputActionResult(cmd.OutOrStdout(), "Set", args[0], value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := unsetConfigValue(config, args[0])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			return outputActionResult(cmd.OutOrStdout(), "Unset", args[0], "")
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			return outputActionResult(cmd.OutOrStdout(), "Cleared", "all configuration", "")
		},
	}
}

func setConfigValue(config *Config, key, value string) error {
	field, ok := configFields[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	err := field.set(config, value)
	if err != nil {
		return err
	}

	viper.Set(key, value)

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	field, ok := configFields[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	switch key {
	case "cache":
		config.Cache = true
	case "redis_db":
		config.RedisDB = 0
	default:
		_ = field.set(config, "")
	}

	viper.Set(key, nil)

	return nil
}

// loadConfig reads the configuration from viper, which merges flags,
// SUITECRM_* environment variables and the config file.
func loadConfig() *Config {
	cacheEnabled := true
	if viper.IsSet("cache") {
		cacheEnabled = viper.GetBool("cache")
	}

	return &Config{
		API:           viper.GetString("api"),
		ClientID:      viper.GetString("client_id"),
		ClientSecret:  viper.GetString("client_secret"),
		TokenStore:    viper.GetString("token_store"),
		TokenFile:     viper.GetString("token_file"),
		RedisAddr:     viper.GetString("redis_addr"),
		RedisPassword: viper.GetString("redis_password"),
		RedisDB:       viper.GetInt("redis_db"),
		NATSURL:       viper.GetString("nats_url"),
		NATSBucket:    viper.GetString("nats_bucket"),
		Cache:         cacheEnabled,
		CacheTTL:      viper.GetString("cache_ttl"),
		Output:        viper.GetString("output"),
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName), nil
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, configFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// tokenStoreConfig maps the CLI settings to a token store. The default is a
// token file next to the config file.
func tokenStoreConfig(config *Config) (*suitecrm.TokenStoreConfig, error) {
	storeType := suitecrm.TokenStoreType(config.TokenStore)
	if storeType == "" {
		storeType = suitecrm.TokenStoreFile
	}

	storeConfig := &suitecrm.TokenStoreConfig{Type: storeType}

	switch storeType {
	case suitecrm.TokenStoreFile:
		storeConfig.Path = config.TokenFile
		if storeConfig.Path == "" {
			dir, err := configDir()
			if err != nil {
				return nil, err
			}

			storeConfig.Path = filepath.Join(dir, constants.DefaultTokenFile)
		}
	case suitecrm.TokenStoreRedis:
		storeConfig.Redis = &suitecrm.RedisTokenStoreConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		}
	case suitecrm.TokenStoreNATS:
		storeConfig.NATS = &suitecrm.NATSTokenStoreConfig{
			URL:    config.NATSURL,
			Bucket: config.NATSBucket,
		}
	case suitecrm.TokenStoreMemory, suitecrm.TokenStoreNone:
	default:
		return nil, fmt.Errorf("%w: %s", suitecrm.ErrUnsupportedTokenStore, storeType)
	}

	return storeConfig, nil
}

// buildSuiteCRMConfig converts the CLI configuration into a client config.
func buildSuiteCRMConfig(config *Config, logger suitecrm.Logger) (*suitecrm.Config, error) {
	if config.API == "" {
		return nil, constants.ErrNoAPIConfigured
	}

	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, constants.ErrNoCredentials
	}

	storeConfig, err := tokenStoreConfig(config)
	if err != nil {
		return nil, err
	}

	var ttl time.Duration

	if config.CacheTTL != "" {
		ttl, err = time.ParseDuration(config.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid cache_ttl %q: %w", config.CacheTTL, err)
		}
	}

	return &suitecrm.Config{
		APIEndpoint:  crmclient.NormalizeEndpoint(config.API),
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Cache: suitecrm.CacheConfig{
			Enabled: config.Cache && !viper.GetBool("no_cache"),
			TTL:     ttl,
		},
		TokenStore: storeConfig,
		Debug:      viper.GetBool("verbose"),
		Logger:     logger,
	}, nil
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range ConfigKeys() {
		field := configFields[key]

		value := field.get(config)
		if field.secret && value != "" {
			value = constants.MaskedSecret
		}

		if value == "" {
			value = constants.NotAvailable
		}

		err := table.Append([]string{key, value})
		if err != nil {
			return fmt.Errorf("failed to append %s to table: %w", key, err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
