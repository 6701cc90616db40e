package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// MySQLSlot is a durable Slot stored in the client_storage table, scoped to one
// namespace (a browser's durable client id).
type MySQLSlot struct {
	db        *sql.DB
	namespace string
}

// NewMySQLSlot creates a MySQLSlot for namespace.
func NewMySQLSlot(db *sql.DB, namespace string) *MySQLSlot {
	return &MySQLSlot{db: db, namespace: namespace}
}

const upsertValueQuery = `
	INSERT INTO client_storage (namespace, storage_key, value)
	VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE value = VALUES(value)`

// Get returns the value stored under key.
func (s *MySQLSlot) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM client_storage WHERE namespace = ? AND storage_key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, s.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return value, true, nil
}

// Set inserts or replaces the value under key.
func (s *MySQLSlot) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertValueQuery, s.namespace, key, value); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// Delete removes keys from the namespace.
func (s *MySQLSlot) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query, args := deleteKeysQuery(s.namespace, keys)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// deleteKeysQuery builds a single DELETE for every key in the namespace.
func deleteKeysQuery(namespace string, keys []string) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	query := `DELETE FROM client_storage WHERE namespace = ? AND storage_key IN (` + placeholders + `)`

	args := make([]any, 0, len(keys)+1)
	args = append(args, namespace)
	for _, k := range keys {
		args = append(args, k)
	}
	return query, args
}
