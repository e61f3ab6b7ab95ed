package cmd

import (
	"dpstore/config"
	"dpstore/db"
	"dpstore/logger"
	"dpstore/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: cfg.LogLevel})

		if err := db.ConnectDB(cfg); err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer db.DB.Close()

		if err := db.InitDB(); err != nil {
			logger.Fatal("Failed to initialize schema", logger.ErrorField(err))
		}

		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(&model.Package{}, &model.Subscription{}); err != nil {
			logger.Fatal("Failed to migrate subscription models", logger.ErrorField(err))
		}

		logger.Info("Migration completed")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
