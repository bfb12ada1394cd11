package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/suitecrm-client/internal/client"
)

const (
	relationshipGetArgs    = 3
	relationshipChangeArgs = 4
)

// NewRelationshipsCommand creates the relationships command group.
func NewRelationshipsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relationships",
		Aliases: []string{"rel"},
		Short:   "Manage record relationships",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "get MODULE ID RELATED_MODULE",
		Short:   "Show records related to a record",
		Example: `  suitecrm relationships get Accounts 5b1c... Contacts`,
		Args:    cobra.ExactArgs(relationshipGetArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				doc, err := crm.Module(args[0]).GetRelationship(ctx, args[1], args[2])
				if err != nil {
					return err
				}

				return renderDocument(cmd.OutOrStdout(), doc)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add MODULE ID RELATED_MODULE RELATED_ID",
		Short: "Relate two records",
		Args:  cobra.ExactArgs(relationshipChangeArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				doc, err := crm.Module(args[0]).CreateRelationship(ctx, args[1], args[2], args[3])
				if err != nil {
					return err
				}

				return renderDocument(cmd.OutOrStdout(), doc)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove MODULE ID RELATED_MODULE RELATED_ID",
		Aliases: []string{"rm"},
		Short:   "Remove a relationship between two records",
		Args:    cobra.ExactArgs(relationshipChangeArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				doc, err := crm.Module(args[0]).DeleteRelationship(ctx, args[1], args[2], args[3])
				if err != nil {
					return err
				}

				return renderDocument(cmd.OutOrStdout(), doc)
			})
		},
	})

	return cmd
}
