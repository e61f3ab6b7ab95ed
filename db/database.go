package db

import (
	"database/sql"
	"fmt"

	"dpstore/config"
	"dpstore/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't
// exist. Packages and subscriptions are migrated separately through GORM.
func InitDB() error {
	statements := []struct {
		name  string
		query string
	}{
		{"provinces", `
	CREATE TABLE IF NOT EXISTS provinces (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		is_valid BOOLEAN NOT NULL DEFAULT TRUE,
		modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`},
		{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(32) NOT NULL UNIQUE,
		first_name VARCHAR(30) NOT NULL DEFAULT '',
		last_name VARCHAR(30) NOT NULL DEFAULT '',
		email VARCHAR(255) NULL UNIQUE,
		phone VARCHAR(12) NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		date_joined TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_seen TIMESTAMP NULL
	);`},
		{"user_profiles", `
	CREATE TABLE IF NOT EXISTS user_profiles (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE,
		nick_name VARCHAR(150) NOT NULL DEFAULT '',
		birthday DATE NULL,
		avatar VARCHAR(767) NULL,
		province_id BIGINT NULL,
		CONSTRAINT fk_profile_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_profile_province FOREIGN KEY (province_id) REFERENCES provinces(id) ON DELETE CASCADE
	);`},
		{"devices", `
	CREATE TABLE IF NOT EXISTS devices (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		device_uuid CHAR(36) NULL,
		last_login TIMESTAMP NULL,
		device_type TINYINT NOT NULL DEFAULT 1,
		device_os VARCHAR(20) NOT NULL DEFAULT '',
		device_model VARCHAR(50) NOT NULL DEFAULT '',
		app_version VARCHAR(20) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_device_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT uq_user_device UNIQUE (user_id, device_uuid)
	);`},
		{"categories", `
	CREATE TABLE IF NOT EXISTS categories (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		parent_id BIGINT NULL,
		title VARCHAR(100) NOT NULL,
		description TEXT,
		avatar VARCHAR(767) NULL,
		is_enable BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_category_parent FOREIGN KEY (parent_id) REFERENCES categories(id) ON DELETE CASCADE
	);`},
		{"products", `
	CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		is_enable BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);`},
		{"product_categories", `
	CREATE TABLE IF NOT EXISTS product_categories (
		product_id BIGINT NOT NULL,
		category_id BIGINT NOT NULL,
		PRIMARY KEY (product_id, category_id),
		CONSTRAINT fk_pc_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		CONSTRAINT fk_pc_category FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
	);`},
		{"files", `
	CREATE TABLE IF NOT EXISTS files (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		product_id BIGINT NOT NULL,
		title VARCHAR(255) NOT NULL,
		file_type TINYINT NOT NULL DEFAULT 3,
		file_path VARCHAR(767) NOT NULL,
		is_enable BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_file_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);`},
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
		}
	}

	logger.Info("Database schema initialized (or already exists).")
	return nil
}
