package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/estate/internal/config"
	"github.com/stwalsh4118/estate/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if a.cfg.Database.Driver != config.StorePostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StorePostgres)
			}

			ctx := context.Background()
			if err := a.connectDatabase(ctx); err != nil {
				return err
			}
			defer a.close()

			before, err := database.CurrentVersion(ctx, a.db)
			if err != nil {
				// schema_migrations does not exist before the first run
				before = 0
			}
			if err := database.Migrate(ctx, a.db); err != nil {
				return err
			}

			a.log.Info("Schema migrated", map[string]interface{}{
				"from_version": before,
				"to_version":   database.SchemaVersion(),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", database.SchemaVersion())
			return nil
		},
	}
}
