package entities

import (
	"errors"
	"strings"
	"time"
)

// Schema represents one stored version of a schema document
type Schema struct {
	Name       string      // Document name (e.g., "mspass")
	Version    string      // Schema version (UUIDv7 for postgres, content hash for files)
	Document   string      // Original YAML text
	Definition *Definition // Parsed document, populated by the service layer
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SchemaVersion represents a lightweight schema version for listing
type SchemaVersion struct {
	Version   string    // Schema version
	CreatedAt time.Time // When the version was created
}

// CacheKey returns the key a resolved form of this version is cached under
func (s *Schema) CacheKey() string {
	return SchemaCacheKey(s.Name, s.Version)
}

// SchemaCacheKey builds the cache key for a document name and version
func SchemaCacheKey(name, version string) string {
	return name + "@" + version
}

// ValidateSchemaName checks that name can be stored and cached.
// The cache key separator may not appear in a name, so that invalidating one
// document never matches the keys of another.
func ValidateSchemaName(name string) error {
	if name == "" {
		return errors.New("schema name is required")
	}
	if strings.Contains(name, "@") {
		return errors.New("schema name must not contain '@'")
	}
	return nil
}
