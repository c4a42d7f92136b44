package cmd

import (
	"github.com/emrgen/noteforest/internal/config"
	"github.com/emrgen/noteforest/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

// Migrate creates or updates the documents and tags tables.
func Migrate() *cobra.Command {
	var driver string
	var dsn string

	command := &cobra.Command{
		Use:     "migrate",
		Short:   "Migrate the database",
		Example: "noteforest db migrate --driver postgres --dsn <dsn>",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.LoadConfig()
			if driver != "" {
				cfg.DB.Driver = driver
			}
			if dsn != "" {
				cfg.DB.DSN = dsn
			}

			if err := store.NewGormStore(config.GetDb(cfg)).Migrate(); err != nil {
				logrus.Fatalf("migration failed: %v", err)
			}
			logrus.Infof("%s database migrated", cfg.DB.Driver)
		},
	}

	command.Flags().StringVarP(&driver, "driver", "", "", "sqlite or postgres, overrides DB_DRIVER")
	command.Flags().StringVarP(&dsn, "dsn", "", "", "database dsn, overrides DB_DSN")

	return command
}
