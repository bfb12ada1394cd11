// Package commands implements the suitecrm CLI commands.
package commands

import "github.com/spf13/cobra"

// AddCommands registers every command on root.
func AddCommands(root *cobra.Command, version, commit, date string) {
	root.AddCommand(NewVersionCommand(version, commit, date))
	root.AddCommand(NewLoginCommand())
	root.AddCommand(NewLogoutCommand())
	root.AddCommand(NewConfigCommand())
	root.AddCommand(NewTokenCommand())
	root.AddCommand(NewRecordsCommand())
	root.AddCommand(NewRelationshipsCommand())
}
