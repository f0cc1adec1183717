package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/wso2/cookie-consent/internal/system/config"
)

// KeyValueTableDDL creates the table behind the MySQL consent storage.
const KeyValueTableDDL = `CREATE TABLE IF NOT EXISTS CC_KEY_VALUE (
    KV_KEY       VARCHAR(255) NOT NULL,
    KV_VALUE     TEXT         NOT NULL,
    UPDATED_TIME BIGINT       NOT NULL,
    PRIMARY KEY (KV_KEY)
)`

// DB holds the consent storage connection pool
type DB struct {
	*sqlx.DB
	logger *logrus.Logger
}

// New wraps an open pool.
func New(db *sqlx.DB, logger *logrus.Logger) *DB {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DB{DB: db, logger: logger}
}

// Initialize opens the MySQL pool described by cfg and pings it.
func Initialize(cfg *config.DatabaseConfig, logger *logrus.Logger) (*DB, error) {
	logger.WithFields(logrus.Fields{
		"hostname": cfg.Hostname,
		"port":     cfg.Port,
		"database": cfg.Database,
	}).Info("Connecting to consent storage database...")

	pool, err := sqlx.Open("mysql", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := New(pool, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	logger.Info("Successfully connected to database")
	return db, nil
}

// EnsureSchema creates the key-value table if it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, KeyValueTableDDL); err != nil {
		return fmt.Errorf("failed to create CC_KEY_VALUE: %w", err)
	}
	db.logger.Debug("Consent storage schema ready")
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	db.logger.Info("Closing database connection...")
	return db.DB.Close()
}

// HealthCheck pings the database.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
