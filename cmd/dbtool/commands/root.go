// Package commands implements the dbtool CLI for database maintenance
// against Postgres or a local SQLite file.
package commands

import (
	"database/sql"
	"delivery-route-engine/internal/adapters/repositories"
	"delivery-route-engine/internal/config"
	"delivery-route-engine/internal/platform/db"
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	databaseURL string
	sqlitePath  string
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbtool",
		Short:         "Manage the delivery route database",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found (using environment variables)")
			}
			if databaseURL == "" {
				databaseURL = config.Get("DATABASE_URL", "")
			}
		},
	}

	root.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "path to a SQLite database file (overrides DATABASE_URL)")
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection URL (default $DATABASE_URL)")

	root.AddCommand(migrateCmd(), seedCmd(), purgeCacheCmd())
	return root
}

// openTarget opens the database selected by --sqlite or DATABASE_URL.
func openTarget() (*sql.DB, repositories.Dialect, error) {
	if sqlitePath != "" {
		conn, err := db.OpenSQLite(sqlitePath)
		return conn, repositories.SQLite, err
	}
	if databaseURL == "" {
		return nil, repositories.Postgres, errors.New("DATABASE_URL is required (or pass --sqlite PATH)")
	}
	conn, err := db.Open(databaseURL)
	return conn, repositories.Postgres, err
}
