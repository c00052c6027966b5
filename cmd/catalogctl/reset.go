package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partscatalog/internal/admin"
	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

func newResetCmd(c *cli) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset [parts|models]",
		Short: "Delete catalog data",
		Long: "Reset truncates the given catalog table, or every catalog table and the import\n" +
			"history when no entity is given. Take a backup first.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("reset deletes data; pass --yes to confirm")
			}

			var entity catalog.Entity
			if len(args) == 1 {
				e, err := catalog.ParseEntity(args[0])
				if err != nil {
					return err
				}
				entity = e
			}

			ctx := cmd.Context()
			app, err := c.open(ctx)
			if err != nil {
				return err
			}

			r := &admin.Reset{DB: app.Pool}
			if entity == "" {
				err = r.All(ctx)
			} else {
				err = r.Entities(ctx, entity)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reset complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm deletion")
	return cmd
}
