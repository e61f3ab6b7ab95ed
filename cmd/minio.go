package cmd

import (
	"dpstore/config"
	"dpstore/logger"
	"dpstore/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Check the MinIO connection and bucket",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: cfg.LogLevel})

		if err := storage.InitMinio(cfg); err != nil {
			logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
		}
		logger.Info("MinIO connection OK", logger.String("bucket", cfg.MinioBucket))
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
