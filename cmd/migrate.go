package main

import (
	"fmt"

	"github.com/spf13/cobra"

	types "github.com/yungbote/lingua-backend/internal/domain"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore(true)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%d tables, driver %s)\n", len(types.AllModels()), store.DB.Driver())
			return nil
		},
	}
}
