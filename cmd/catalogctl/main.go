// Command catalogctl imports, exports and backs up the parts catalog from
// the command line. It reads the same environment as the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partscatalog/internal/application"
	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/config"
	"github.com/JonMunkholm/partscatalog/internal/logging"
)

// cli carries state shared by all subcommands. The database is only
// opened by commands that need it.
type cli struct {
	cfg *config.Config
	app *application.App
}

func (c *cli) open(ctx context.Context) (*application.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := application.New(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Import and export the parts catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg

			// CSV data may go to stdout, so logs stay on stderr.
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}

	root.AddCommand(
		newMigrateCmd(c),
		newImportCmd(c),
		newExportCmd(c),
		newBackupCmd(c),
		newBackupsCmd(c),
		newHistoryCmd(c),
		newResetCmd(c),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if catalog.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, catalog.FormatUserError(err))
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
