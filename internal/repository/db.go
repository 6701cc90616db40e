package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// NewDB creates a new MySQL database connection pool with the given DSN.
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		slog.Warn("database ping failed, continuing without durable storage check", "error", err)
	}

	return db, nil
}

// clientStorageSchema creates the table backing MySQLSlot.
const clientStorageSchema = `
	CREATE TABLE IF NOT EXISTS client_storage (
		namespace   VARCHAR(64)  NOT NULL,
		storage_key VARCHAR(64)  NOT NULL,
		value       MEDIUMTEXT   NOT NULL,
		updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, storage_key)
	)`

// Migrate creates the client storage table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, clientStorageSchema)
	return err
}
