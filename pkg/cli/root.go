package cli

import (
	"log/slog"
	"os"

	"github.com/flaboy/aira-books/pkg/commence"
	"github.com/flaboy/aira-books/pkg/config"
	"github.com/flaboy/aira-books/pkg/database"
	"github.com/flaboy/aira-books/pkg/extensions/accounting/xero"
	"github.com/flaboy/aira-books/pkg/syncer"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "aira-books",
		Short: "Order to accounting sync engine",
		Long:  "Synchronizes store orders into Xero as contacts, items, invoices and payments.",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to toml config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewListenCommand(opts))

	return cmd
}

// setup loads configuration, starts the service components and wires the
// sync engine against the shared database connection.
func setup(opts *RootOptions) (*syncer.Syncer, *config.BooksConfig, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if err := commence.Start(cfg); err != nil {
		return nil, nil, err
	}

	db := database.Database()
	engine := syncer.New(xero.NewClient(db), db, cfg)
	return engine, cfg, nil
}
