package cmd

import (
	"context"

	"dpstore/config"
	"dpstore/core/account"
	"dpstore/db"
	"dpstore/logger"
	"dpstore/repository"

	"github.com/spf13/cobra"
)

var (
	superUsername string
	superEmail    string
	superPhone    string
	superPassword string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a staff + superuser account",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: cfg.LogLevel})

		if err := db.ConnectDB(cfg); err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer db.DB.Close()

		accounts := account.NewManager(repository.NewMySQLUserRepository(db.DB))
		user, err := accounts.CreateSuperuser(context.Background(), account.CreateParams{
			Username: superUsername,
			Email:    superEmail,
			Phone:    superPhone,
			Password: superPassword,
		})
		if err != nil {
			logger.Fatal("Failed to create superuser", logger.ErrorField(err))
		}
		logger.Info("Superuser created",
			logger.Int64("userId", user.ID),
			logger.String("username", user.Username))
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superUsername, "username", "", "username (required)")
	createSuperuserCmd.Flags().StringVar(&superEmail, "email", "", "email address")
	createSuperuserCmd.Flags().StringVar(&superPhone, "phone", "", "phone number")
	createSuperuserCmd.Flags().StringVar(&superPassword, "password", "", "password")
	createSuperuserCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(createSuperuserCmd)
}
