package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/suitecrm-client/internal/client"
	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
)

// NewRecordsCommand creates the records command group.
func NewRecordsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record", "r"},
		Short:   "Manage module records",
		Long:    "List, read, create, update and delete records of any SuiteCRM module",
	}

	cmd.AddCommand(newRecordsListCommand())
	cmd.AddCommand(newRecordsGetCommand())
	cmd.AddCommand(newRecordsAllCommand())
	cmd.AddCommand(newRecordsCreateCommand())
	cmd.AddCommand(newRecordsUpdateCommand())
	cmd.AddCommand(newRecordsDeleteCommand())
	cmd.AddCommand(newRecordsFieldsCommand())

	return cmd
}

func newRecordsListCommand() *cobra.Command {
	var (
		filters  []string
		fields   []string
		sortBy   string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list MODULE",
		Short: "List records",
		Long: `List the records of a module.

Filters are FIELD=VALUE equality conditions combined with AND. Sorting is
always descending.`,
		Example: `  suitecrm records list Accounts --filter name=Acme --fields name,industry
  suitecrm records list Contacts --sort date_entered --page 2 --page-size 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := BuildQuery(filters, fields, sortBy, page, pageSize)
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				result, err := crm.Module(args[0]).Get(ctx, query)
				if err != nil {
					return err
				}

				return renderResult(cmd.OutOrStdout(), result, fields)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "FIELD=VALUE filter (repeatable)")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "attributes to return")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort descending by this field")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per page")

	return cmd
}

func newRecordsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get MODULE ID",
		Short: "Get a record by id",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				record, err := crm.Module(args[0]).GetByID(ctx, args[1])
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}
}

func newRecordsAllCommand() *cobra.Command {
	var (
		pageSize int
		fields   []string
	)

	cmd := &cobra.Command{
		Use:   "all MODULE",
		Short: "Get every record of a module",
		Long:  "Walk all pages of a module and print every record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				records, err := crm.Module(args[0]).GetAll(ctx, pageSize)
				if err != nil {
					return err
				}

				return renderRecords(cmd.OutOrStdout(), records, fields)
			})
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "records per request")
	cmd.Flags().StringSliceVar(&fields, "columns", nil, "attributes shown in table output")

	return cmd
}

func newRecordsCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "create MODULE KEY=VALUE...",
		Short:   "Create a record",
		Example: `  suitecrm records create Accounts name=Acme industry=Retail`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attributes, err := ParseAttributes(args[1:])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				record, err := crm.Module(args[0]).Create(ctx, attributes)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}
}

func newRecordsUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "update MODULE ID KEY=VALUE...",
		Short:   "Update a record",
		Example: `  suitecrm records update Accounts 5b1c... name="Acme Corp"`,
		Args:    cobra.MinimumNArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			attributes, err := ParseAttributes(args[2:])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				record, err := crm.Module(args[0]).Update(ctx, args[1], attributes)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}
}

func newRecordsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete MODULE ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				doc, err := crm.Module(args[0]).Delete(ctx, args[1])
				if err != nil {
					return err
				}

				return renderDocument(cmd.OutOrStdout(), doc)
			})
		},
	}
}

func newRecordsFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields MODULE",
		Short: "List the attribute names of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, crm *client.Client) error {
				fields, err := crm.Module(args[0]).Fields(ctx)
				if err != nil {
					return err
				}

				return renderStrings(cmd.OutOrStdout(), "Field", fields)
			})
		},
	}
}
