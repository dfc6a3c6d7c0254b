package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"storefront-service/config"
)

var DB *sql.DB

func InitDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return err
	}

	DB = db
	return createTables()
}

func createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			total_price DECIMAL(10,2) NOT NULL,
			payment_method VARCHAR(16) NOT NULL DEFAULT 'cod',
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			status VARCHAR(16) NOT NULL DEFAULT 'Placed',
			full_name VARCHAR(255) NOT NULL,
			phone VARCHAR(32) NOT NULL,
			address VARCHAR(512) NOT NULL,
			city VARCHAR(128) NOT NULL,
			state VARCHAR(128) NOT NULL,
			postal_code VARCHAR(32) NOT NULL,
			country VARCHAR(128) NOT NULL,
			idempotency_key VARCHAR(64) NULL,
			revision BIGINT NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE KEY uniq_user_idem (user_id, idempotency_key),
			KEY idx_user_created (user_id, created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id VARCHAR(64) NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			image VARCHAR(512) NOT NULL DEFAULT '',
			KEY idx_order (order_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func CloseDB() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			return
		}
	}
}
