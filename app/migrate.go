package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the gaokao namespace and every registered table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := runtimeFrom(cmd)

		store, err := rt.Database()
		if err != nil {
			return err
		}
		if err := store.HealthCheck(); err != nil {
			return err
		}

		fmt.Printf("Database ready (%s)\n", store.Dialect())
		return nil
	},
}
