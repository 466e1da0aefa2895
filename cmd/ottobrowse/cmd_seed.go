package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/ottobrowse/internal/recipe"
)

var seedDB string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in recipes into a SQLite database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Provider.DBPath
		if seedDB != "" {
			path = seedDB
		}

		src, err := recipe.OpenSQLite(path, log.Named("sqlite"))
		if err != nil {
			return err
		}
		defer src.Close()

		recipes := recipe.Builtin()
		if err := src.Insert(cmd.Context(), recipes...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d recipes into %s\n", len(recipes), path)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedDB, "db", "", "database path (default: provider.db_path)")
}
