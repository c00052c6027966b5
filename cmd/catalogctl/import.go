package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/importer"
)

type importOptions struct {
	update   bool
	noBackup bool
}

func newImportCmd(c *cli) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <parts|models> <file>",
		Short: "Import a catalog CSV file",
		Long: "Import a spare-parts (semicolon-delimited) or car-models (comma-delimited) CSV file.\n" +
			"Existing records are skipped unless --update is given.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := catalog.ParseEntity(args[0])
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), c, cmd.OutOrStdout(), entity, args[1], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.update, "update", false, "Overwrite records that already exist")
	cmd.Flags().BoolVar(&opts.noBackup, "no-backup", false, "Skip the pre-import backup")
	return cmd
}

func runImport(ctx context.Context, c *cli, out io.Writer, entity catalog.Entity, path string, opts importOptions) error {
	app, err := c.open(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Import.Timeout)
	defer cancel()

	stats, err := app.Importer.Import(ctx, entity, importer.FileSource(path), importer.Options{
		UpdateExisting: opts.update,
		CreateBackup:   c.cfg.Backup.Enabled && !opts.noBackup,
	})
	if stats.Processed > 0 || err == nil {
		printStats(out, entity, stats)
	}
	return err
}

func printStats(w io.Writer, entity catalog.Entity, s catalog.ImportStats) {
	fmt.Fprintf(w, "%s: processed %d, created %d, updated %d, skipped %d, errors %d",
		entity, s.Processed, s.Created, s.Updated, s.Skipped, s.Errors)
	if entity == catalog.EntityCarModels {
		fmt.Fprintf(w, ", brands created %d", s.BrandsCreated)
	}
	fmt.Fprintln(w)
}
