package repositories

import (
	"context"
	"errors"

	"github.com/asakaida/mdschema/internal/entities"
)

// ErrSchemaNotFound is returned when no stored document matches the request
var ErrSchemaNotFound = errors.New("schema not found")

// SchemaRepository defines the interface for schema document storage.
// Documents are identified by name; every write creates a new version.
type SchemaRepository interface {
	// Create stores a new version of the named document and returns the version ID
	Create(ctx context.Context, name string, document string) (string, error)

	// GetLatestVersion retrieves the most recent version of a document
	GetLatestVersion(ctx context.Context, name string) (*entities.Schema, error)

	// GetByVersion retrieves a specific version of a document
	GetByVersion(ctx context.Context, name string, version string) (*entities.Schema, error)

	// ListVersions returns the versions of a document, newest first
	ListVersions(ctx context.Context, name string) ([]*entities.SchemaVersion, error)

	// Delete removes every version of a document
	Delete(ctx context.Context, name string) error
}
