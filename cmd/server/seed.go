package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/estate/internal/config"
	"github.com/stwalsh4118/estate/internal/seed"
	"github.com/stwalsh4118/estate/internal/services"
)

func newSeedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the property types and tags of a catalog file",
		Long: `Create the property types and tags listed in a YAML catalog file.

Records that already exist by name are left untouched, so seeding twice is
harmless. Without --file the built-in catalog is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := seed.Default()
			if file != "" {
				var err error
				if catalog, err = seed.Load(file); err != nil {
					return err
				}
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			if a.cfg.Database.Driver != config.StorePostgres {
				return fmt.Errorf("seed requires STORE_DRIVER=%s; use serve --seed for the memory store", config.StorePostgres)
			}

			ctx := context.Background()
			if err := a.open(ctx, true); err != nil {
				return err
			}
			defer a.close()

			res, err := seed.Apply(ctx, services.NewCatalogService(a.deps()), catalog)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %d property types and %d tags\n", res.TypesCreated, res.TagsCreated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog file")
	return cmd
}
