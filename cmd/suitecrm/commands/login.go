package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/suitecrm-client/internal/client"
	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/crmclient"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		clientID     string
		clientSecret string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to SuiteCRM",
		Long: `Authenticate against a SuiteCRM V8 API with OAuth2 client credentials.

The token is persisted by the configured token store and the endpoint and
credentials are saved to the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())

			apiEndpoint := viper.GetString("api")
			if apiEndpoint == "" {
				apiEndpoint = prompt(cmd.ErrOrStderr(), reader, "API endpoint: ")
			}

			if apiEndpoint == "" {
				return constants.ErrNoAPIConfigured
			}

			if clientID == "" {
				clientID = viper.GetString("client_id")
			}

			if clientID == "" {
				clientID = prompt(cmd.ErrOrStderr(), reader, "Client ID: ")
			}

			if clientSecret == "" {
				clientSecret = viper.GetString("client_secret")
			}

			if clientSecret == "" {
				secret, err := readSecret(cmd.ErrOrStderr(), reader, "Client secret: ")
				if err != nil {
					return err
				}

				clientSecret = secret
			}

			if clientSecret == "" {
				return constants.ErrClientSecretRequired
			}

			config := loadConfig()

			for key, value := range map[string]string{
				"api":           crmclient.NormalizeEndpoint(apiEndpoint),
				"client_id":     clientID,
				"client_secret": clientSecret,
			} {
				err := setConfigValue(config, key, value)
				if err != nil {
					return err
				}
			}

			err := withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				_, err := crm.GetToken(ctx)

				return err
			})
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			return outputActionResult(cmd.OutOrStdout(), "Logged in", config.API, config.ClientID)
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret (prompted when omitted)")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from SuiteCRM",
		Long:  "End the remote session and remove the persisted token",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				return crm.Logout(ctx)
			})
			if err != nil {
				return err
			}

			return outputActionResult(cmd.OutOrStdout(), "Logged out", viper.GetString("api"), "")
		},
	}
}

func prompt(w io.Writer, reader *bufio.Reader, label string) string {
	_, _ = fmt.Fprint(w, label)

	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line)
}

// readSecret reads without echo from a terminal and falls back to a plain
// line read for piped input.
func readSecret(w io.Writer, reader *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // File descriptors fit in int

	if !term.IsTerminal(fd) {
		return prompt(w, reader, label), nil
	}

	_, _ = fmt.Fprint(w, label)

	secret, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read client secret: %w", err)
	}

	_, _ = fmt.Fprintln(w)

	return strings.TrimSpace(string(secret)), nil
}
