package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// MySQLStore persists values in the CC_KEY_VALUE table.
type MySQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewMySQLStore creates a store over an open connection pool.
func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db, now: time.Now}
}

func (s *MySQLStore) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT KV_VALUE FROM CC_KEY_VALUE WHERE KV_KEY = ?`

	var value string
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get value: %w", err)
	}
	return value, nil
}

func (s *MySQLStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO CC_KEY_VALUE (KV_KEY, KV_VALUE, UPDATED_TIME)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE KV_VALUE = VALUES(KV_VALUE), UPDATED_TIME = VALUES(UPDATED_TIME)
	`

	if _, err := s.db.ExecContext(ctx, query, key, value, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	return nil
}

func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM CC_KEY_VALUE WHERE KV_KEY = ?`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}
