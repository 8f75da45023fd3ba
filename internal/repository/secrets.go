// Package repository provides persistence implementations for the secret
// store and the object store using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresSecretBackend implements versioned secret storage against a
// PostgreSQL database. The version history is append-only: versions are
// only ever inserted, never updated or deleted.
type PostgresSecretBackend struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSecretBackend creates a new PostgresSecretBackend using the
// provided *sql.DB. db must be a valid connection to a PostgreSQL instance.
func NewPostgresSecretBackend(db *sql.DB) *PostgresSecretBackend {
	return &PostgresSecretBackend{DB: db}
}

// GetLatestVersion fetches the payload and creation time of the highest
// version of the named secret. found is false when the secret has no
// versions; any other query failure is returned as an error.
func (s *PostgresSecretBackend) GetLatestVersion(ctx context.Context, name string) ([]byte, time.Time, bool, error) {
	var (
		payload   []byte
		createdAt time.Time
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT payload, created_at FROM secret_versions
		WHERE name = $1 ORDER BY version DESC LIMIT 1
	`, name).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("GetLatestVersion: %w", err)
	}
	return payload, createdAt, true, nil
}

// AddVersion appends a new version under the named secret. The version
// number is derived from the current maximum in the same statement, so
// versions stay monotonically increasing.
func (s *PostgresSecretBackend) AddVersion(ctx context.Context, name string, payload []byte) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO secret_versions (name, version, payload)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2
		FROM secret_versions WHERE name = $1
	`, name, payload)
	if err != nil {
		return fmt.Errorf("AddVersion: %w", err)
	}
	return nil
}
