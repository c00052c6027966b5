package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/importer"
)

type exportOptions struct {
	out          string
	categoryID   string
	manufacturer string
	brandID      string
	popular      string
}

func (o exportOptions) filter() (catalog.ExportFilter, error) {
	f := catalog.ExportFilter{Manufacturer: o.manufacturer}

	if o.categoryID != "" {
		id, err := strconv.ParseInt(o.categoryID, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: category-id %q", catalog.ErrInvalidFilter, o.categoryID)
		}
		f.CategoryID = &id
	}
	if o.brandID != "" {
		id, err := strconv.ParseInt(o.brandID, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: brand-id %q", catalog.ErrInvalidFilter, o.brandID)
		}
		f.BrandID = &id
	}
	if o.popular != "" {
		p := importer.ParseFlag(o.popular)
		f.Popular = &p
	}
	return f, nil
}

func newExportCmd(c *cli) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <parts|models>",
		Short: "Export a catalog table as CSV",
		Long:  "Export writes a semicolon-delimited UTF-8 CSV with a BOM to --out, or to stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := catalog.ParseEntity(args[0])
			if err != nil {
				return err
			}
			f, err := opts.filter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := c.open(ctx)
			if err != nil {
				return err
			}

			if opts.out == "" {
				_, err := app.Exporter.Export(ctx, entity, f, cmd.OutOrStdout())
				return err
			}
			path, err := app.Exporter.ToFile(ctx, entity, f, opts.out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "wrote", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&opts.categoryID, "category-id", "", "Only parts in this category")
	cmd.Flags().StringVar(&opts.manufacturer, "manufacturer", "", "Only parts whose manufacturer contains this text")
	cmd.Flags().StringVar(&opts.brandID, "brand-id", "", "Only models of this brand")
	cmd.Flags().StringVar(&opts.popular, "popular", "", "Only popular (1) or non-popular (0) models")
	return cmd
}
