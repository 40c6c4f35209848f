package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"liyu1981.xyz/glucose-watch-service/pkg/db"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Open migrates every model
		return withDB(func(dbInstance *db.DB) error {
			if err := dbInstance.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables on %s\n", len(models.AllModels()), dbInstance.Conn.Dialector.Name())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
