package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/motorefacciones/import-service/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Apply pending database migrations",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"db": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer database.Close()

		applied, err := database.Migrate(cmd.Context(), database.Pool())
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("Database is up to date")
			return nil
		}
		for _, name := range applied {
			fmt.Printf("Applied %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
