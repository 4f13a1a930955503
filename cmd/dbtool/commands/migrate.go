package commands

import (
	"delivery-route-engine/internal/adapters/repositories"
	"log"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the registry and route archive tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, dialect, err := openTarget()
			if err != nil {
				return err
			}
			defer conn.Close()

			log.Printf("Initializing database schema... db=%s", dialect)
			if err := repositories.InitSchema(cmd.Context(), conn); err != nil {
				return err
			}
			log.Println("Schema ready.")
			return nil
		},
	}
}
