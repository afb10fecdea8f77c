package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintake/internal/countrydb"
)

var countrydbCmd = &cobra.Command{
	Use:   "countrydb",
	Short: "Manage the country database",
}

var countrydbSeedCmd = &cobra.Command{
	Use:   "seed [path]",
	Short: "Create or refresh a SQLite country database from the bundled list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := loadConfig()
		if err != nil {
			return err
		}
		n, err := countrydb.Seed(cmd.Context(), args[0])
		if err != nil {
			logger.Error("countrydb.seed.failed", "path", args[0], "error", err)
			return err
		}
		logger.Info("countrydb.seed.ok", "path", args[0], "countries", n)
		cmd.Printf("seeded %d countries into %s\n", n, args[0])
		return nil
	},
}

func init() {
	countrydbCmd.AddCommand(countrydbSeedCmd)
	rootCmd.AddCommand(countrydbCmd)
}
