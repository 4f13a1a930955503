package commands

import (
	"delivery-route-engine/internal/adapters/cache"
	"log"

	"github.com/spf13/cobra"
)

func purgeCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-cache",
		Short: "Delete expired rows from the SQL route cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, dialect, err := openTarget()
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := cache.NewSQLRouteCache(conn, dialect, 0).Purge(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("Purged expired route cache entries count=%d", n)
			return nil
		},
	}
}
