package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

func newBackupCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <parts|models>",
		Short: "Snapshot a catalog table to the backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := catalog.ParseEntity(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := c.open(ctx)
			if err != nil {
				return err
			}
			artifact, err := app.Backups.Snapshot(ctx, entity)
			if err != nil {
				return err
			}
			printBackups(cmd.OutOrStdout(), []catalog.BackupArtifact{artifact})
			return nil
		},
	}
}

func newBackupsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backup snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.open(ctx)
			if err != nil {
				return err
			}
			artifacts, err := app.Backups.List(ctx)
			if err != nil {
				return err
			}
			printBackups(cmd.OutOrStdout(), artifacts)
			return nil
		},
	}
}

func printBackups(w io.Writer, artifacts []catalog.BackupArtifact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tENTITY\tBYTES\tPATH\tREMOTE")
	for _, a := range artifacts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			a.CreatedAt.Format(time.DateTime), a.Entity, a.Size, a.Path, a.RemoteKey)
	}
	tw.Flush()
}
