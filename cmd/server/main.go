package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/rongsox/dashboard/internal"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rongsox",
		Short:        "Rongsox admin dashboard",
		Long:         "Server-rendered admin dashboard for the Rongsox waste bank backend.",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

// setup loads configuration and opens the database. The caller closes db.
func setup(ctx context.Context) (*internal.Config, *slog.Logger, *sql.DB, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("database ping failed: %w", err)
	}
	return cfg, logger, db, nil
}
