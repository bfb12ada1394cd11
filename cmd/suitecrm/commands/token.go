package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/suitecrm-client/internal/auth"
	"github.com/fivetwenty-io/suitecrm-client/internal/client"
	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

const tokenPreviewLength = 8

// TokenStatus describes the persisted token.
type TokenStatus struct {
	Store     string     `json:"store"                yaml:"store"`
	Present   bool       `json:"present"              yaml:"present"`
	Valid     bool       `json:"valid"                yaml:"valid"`
	Token     string     `json:"token,omitempty"      yaml:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and refresh the access token",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the persisted token",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := loadTokenStatus(commandContext(cmd))
			if err != nil {
				return err
			}

			return renderTokenStatus(cmd.OutOrStdout(), status)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Request a new access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				return crm.GetTokenManager().RefreshToken(ctx)
			})
			if err != nil {
				return err
			}

			status, err := loadTokenStatus(commandContext(cmd))
			if err != nil {
				return err
			}

			return renderTokenStatus(cmd.OutOrStdout(), status)
		},
	})

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

func loadTokenStatus(ctx context.Context) (*TokenStatus, error) {
	storeConfig, err := tokenStoreConfig(loadConfig())
	if err != nil {
		return nil, err
	}

	store, err := auth.NewTokenStoreFromConfig(ctx, storeConfig)
	if err != nil {
		return nil, err
	}

	if closer, ok := store.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	status := &TokenStatus{Store: string(storeConfig.Type)}

	token, err := store.Load(ctx)
	if errors.Is(err, suitecrm.ErrTokenNotFound) {
		return status, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	status.Present = true
	status.Valid = token.Valid()
	status.Token = maskToken(token.AccessToken)

	if !token.ExpiresAt.IsZero() {
		expiresAt := token.ExpiresAt
		status.ExpiresAt = &expiresAt
	}

	return status, nil
}

func maskToken(token string) string {
	if len(token) <= tokenPreviewLength {
		return constants.MaskedSecret
	}

	return token[:tokenPreviewLength] + constants.MaskedSecret
}

func renderTokenStatus(w io.Writer, status *TokenStatus) error {
	return renderOutput(w, status, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		expires := constants.NotAvailable
		if status.ExpiresAt != nil {
			expires = status.ExpiresAt.Format(time.RFC3339)
		}

		token := status.Token
		if token == "" {
			token = constants.NotAvailable
		}

		_ = table.Append([]string{"Store", status.Store})
		_ = table.Append([]string{"Present", strconv.FormatBool(status.Present)})
		_ = table.Append([]string{"Valid", strconv.FormatBool(status.Valid)})
		_ = table.Append([]string{"Token", token})
		_ = table.Append([]string{"Expires At", expires})

		return renderTable(table)
	})
}
