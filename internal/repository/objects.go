package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresObjectStore implements whole-payload object storage against a
// PostgreSQL database. Objects live in a logical bucket; writes replace
// the full payload of a key, never edit it in place.
type PostgresObjectStore struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
	// Bucket scopes all keys handled by this store.
	Bucket string
}

// NewPostgresObjectStore creates a new PostgresObjectStore for the given
// bucket using the provided *sql.DB.
func NewPostgresObjectStore(db *sql.DB, bucket string) *PostgresObjectStore {
	return &PostgresObjectStore{DB: db, Bucket: bucket}
}

// GetObject fetches the payload stored under key. found is false when the
// key does not exist in the bucket.
func (s *PostgresObjectStore) GetObject(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT payload FROM objects WHERE bucket = $1 AND key = $2
	`, s.Bucket, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("GetObject: %w", err)
	}
	return payload, true, nil
}

// PutObject stores payload under key, replacing any existing payload in
// a single whole-object write.
func (s *PostgresObjectStore) PutObject(ctx context.Context, key string, payload []byte) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO objects (bucket, key, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (bucket, key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = now()
	`, s.Bucket, key, payload)
	if err != nil {
		return fmt.Errorf("PutObject: %w", err)
	}
	return nil
}
