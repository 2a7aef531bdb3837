package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dbx-solutions/partlinker/internal/catsync"
	"github.com/dbx-solutions/partlinker/pkg/constants"
	"github.com/dbx-solutions/partlinker/pkg/errors"
)

// NewSyncCommand creates the sync command.
func (a *App) NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the Part-DB category tree from a YAML definition",
		Long: `Sync reads a category tree definition and makes the Part-DB instance
match it: categories are created where missing, every leaf category gets
a DUMMY placeholder part carrying the category's parameter set, and
categories absent from the definition are deleted when it is safe to do
so (categories holding real parts are kept).

Parameters declared on a parent category are inherited by its children.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath := mustGetString(cmd, "categories")

			cfg, err := catsync.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if a.config.APIURL == "" {
				return errors.NewConfigError("partdb", "PARTDB_API_URL is not set", nil)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.CommandTimeout)
			defer cancel()

			syncer := catsync.NewSyncer(a.config.APIURL, a.config.APIToken)
			return syncer.Run(ctx, cfg)
		},
	}

	cmd.Flags().String("categories", "categories.yaml", "category tree definition file")

	return cmd
}
