package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/asakaida/mdschema/internal/repositories"
	"github.com/google/uuid"
)

// PostgresSchemaRepository implements SchemaRepository using PostgreSQL
type PostgresSchemaRepository struct {
	db *sql.DB
}

// NewPostgresSchemaRepository creates a new PostgreSQL schema repository
func NewPostgresSchemaRepository(db *sql.DB) repositories.SchemaRepository {
	return &PostgresSchemaRepository{db: db}
}

// Create stores a new version. Versions are UUIDv7, so they sort by creation time.
func (r *PostgresSchemaRepository) Create(ctx context.Context, name string, document string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema version: %w", err)
	}
	version := id.String()

	query := `
		INSERT INTO schema_documents (name, version, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	now := time.Now()
	if _, err := r.db.ExecContext(ctx, query, name, version, document, now, now); err != nil {
		return "", fmt.Errorf("failed to create schema: %w", err)
	}
	return version, nil
}

// GetLatestVersion retrieves the most recent version of a document
func (r *PostgresSchemaRepository) GetLatestVersion(ctx context.Context, name string) (*entities.Schema, error) {
	query := `
		SELECT version, document, created_at, updated_at
		FROM schema_documents
		WHERE name = $1
		ORDER BY created_at DESC, version DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name), name)
}

// GetByVersion retrieves a specific version of a document
func (r *PostgresSchemaRepository) GetByVersion(ctx context.Context, name string, version string) (*entities.Schema, error) {
	query := `
		SELECT version, document, created_at, updated_at
		FROM schema_documents
		WHERE name = $1 AND version = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name, version), name)
}

// ListVersions returns the versions of a document, newest first
func (r *PostgresSchemaRepository) ListVersions(ctx context.Context, name string) ([]*entities.SchemaVersion, error) {
	query := `
		SELECT version, created_at
		FROM schema_documents
		WHERE name = $1
		ORDER BY created_at DESC, version DESC
	`
	rows, err := r.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list schema versions: %w", err)
	}
	defer rows.Close()

	var versions []*entities.SchemaVersion
	for rows.Next() {
		v := &entities.SchemaVersion{}
		if err := rows.Scan(&v.Version, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schema version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schema versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", repositories.ErrSchemaNotFound, name)
	}
	return versions, nil
}

// Delete removes every version of a document
func (r *PostgresSchemaRepository) Delete(ctx context.Context, name string) error {
	query := `DELETE FROM schema_documents WHERE name = $1`
	result, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", repositories.ErrSchemaNotFound, name)
	}
	return nil
}

func (r *PostgresSchemaRepository) scanOne(row *sql.Row, name string) (*entities.Schema, error) {
	schema := &entities.Schema{Name: name}
	err := row.Scan(&schema.Version, &schema.Document, &schema.CreatedAt, &schema.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrSchemaNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	return schema, nil
}
