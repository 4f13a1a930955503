package commands

import (
	"delivery-route-engine/internal/adapters/repositories"
	"delivery-route-engine/internal/config"
	"log"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var seedPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and upsert stops and vehicles from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seedPath == "" {
				seedPath = config.Get("SEED_PATH", "data/seeds/registry.json")
			}

			conn, dialect, err := openTarget()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := repositories.InitSchema(cmd.Context(), conn); err != nil {
				return err
			}

			log.Printf("Seeding database... path=%s db=%s", seedPath, dialect)
			if err := repositories.SeedFromJSON(cmd.Context(), conn, dialect, seedPath); err != nil {
				return err
			}
			log.Println("Seeding complete.")
			return nil
		},
	}

	cmd.Flags().StringVar(&seedPath, "file", "", "seed JSON path (default $SEED_PATH)")
	return cmd
}
