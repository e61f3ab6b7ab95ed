package db

import (
	"fmt"
	"time"

	"dpstore/config"
	"dpstore/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormDB is the GORM database handle. It coexists with DB (*sql.DB); the
// subscriptions module runs on GORM while the rest uses plain SQL.
var GormDB *gorm.DB

// ConnectGormDB establishes the GORM database connection.
func ConnectGormDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true, // surfaces gorm.ErrDuplicatedKey on 1062

	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Successfully connected to the database with GORM.")
	return nil
}

// CloseGormDB closes the GORM database connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// AutoMigrateModels migrates the given model pointers.
func AutoMigrateModels(models ...interface{}) error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	if err := GormDB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	if err := ensureSubscriptionConstraints(GormDB); err != nil {
		return err
	}

	logger.Info("Models migrated successfully with GORM.")
	return nil
}

// ensureSubscriptionConstraints adds the FK that migration skips
// (DisableForeignKeyConstraintWhenMigrating): subscription rows follow
// their user on delete.
func ensureSubscriptionConstraints(g *gorm.DB) error {
	var count int64
	err := g.Raw(`SELECT COUNT(*) FROM information_schema.TABLE_CONSTRAINTS
		WHERE CONSTRAINT_SCHEMA = DATABASE() AND TABLE_NAME = 'subscriptions' AND CONSTRAINT_NAME = 'fk_subscription_user'`).
		Scan(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check subscription constraints: %w", err)
	}
	if count > 0 {
		return nil
	}

	if err := g.Exec(`ALTER TABLE subscriptions
		ADD CONSTRAINT fk_subscription_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`).Error; err != nil {
		return fmt.Errorf("failed to add subscription user FK: %w", err)
	}
	return nil
}
