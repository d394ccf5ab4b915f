package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const documentsSchema = `CREATE TABLE IF NOT EXISTS gradebook_documents (
    name TEXT PRIMARY KEY,
    payload JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresSink stores each collection document as one JSONB row.
type PostgresSink struct {
	db *sqlx.DB
}

// NewPostgresSink constructs the sink.
func NewPostgresSink(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// EnsureSchema creates the documents table if it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("create gradebook_documents: %w", err)
	}
	return nil
}

// Load returns the stored document or nil when no row exists.
func (s *PostgresSink) Load(ctx context.Context, collection Collection) ([]byte, error) {
	const query = `SELECT payload FROM gradebook_documents WHERE name = $1`
	var payload []byte
	if err := s.db.GetContext(ctx, &payload, query, string(collection)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load document %s: %w", collection, err)
	}
	return payload, nil
}

// Save upserts the document.
func (s *PostgresSink) Save(ctx context.Context, collection Collection, payload []byte) error {
	const query = `INSERT INTO gradebook_documents (name, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (name)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	// lib/pq sends []byte as bytea, which JSONB rejects.
	if _, err := s.db.ExecContext(ctx, query, string(collection), string(payload)); err != nil {
		return fmt.Errorf("save document %s: %w", collection, err)
	}
	return nil
}
