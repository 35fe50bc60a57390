package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/asakaida/mdschema/internal/infrastructure/metrics"
	"github.com/asakaida/mdschema/internal/repositories"
	"github.com/asakaida/mdschema/internal/services/parser"
	"github.com/asakaida/mdschema/internal/services/resolver"
	"github.com/asakaida/mdschema/pkg/cache"
)

// SchemaServiceInterface defines the interface for schema management operations
type SchemaServiceInterface interface {
	WriteSchema(ctx context.Context, name string, document string) (string, error)
	ReadSchema(ctx context.Context, name string) (*entities.Schema, error)
	GetSchemaVersion(ctx context.Context, name string, version string) (*entities.Schema, error)
	ListVersions(ctx context.Context, name string) ([]*entities.SchemaVersion, error)
	ValidateSchema(ctx context.Context, document string) error
	DeleteSchema(ctx context.Context, name string) error
	Resolve(ctx context.Context, name string, version string) (*resolver.Schema, error)
	ResolveFile(ctx context.Context, path string) (*resolver.Schema, error)
	Invalidate(ctx context.Context, name string) error
}

// SchemaService handles schema document management and resolution.
//
// Resolved schemas are cached by name@version and shared between callers.
// Catalogues are mutable: callers that change them change the cached copy.
type SchemaService struct {
	schemaRepo repositories.SchemaRepository
	resolved   cache.Cache[*resolver.Schema]
	recorder   *metrics.Recorder
	ttl        time.Duration
}

// NewSchemaService creates a new SchemaService.
// resolved and recorder may be nil to disable caching and metrics.
func NewSchemaService(schemaRepo repositories.SchemaRepository, resolved cache.Cache[*resolver.Schema], recorder *metrics.Recorder) *SchemaService {
	return &SchemaService{
		schemaRepo: schemaRepo,
		resolved:   resolved,
		recorder:   recorder,
	}
}

// SetCacheTTL overrides the cache's default TTL for resolved schemas
func (s *SchemaService) SetCacheTTL(ttl time.Duration) {
	s.ttl = ttl
}

// WriteSchema validates and resolves a document, then stores it as a new version
func (s *SchemaService) WriteSchema(ctx context.Context, name string, document string) (string, error) {
	if err := entities.ValidateSchemaName(name); err != nil {
		return "", err
	}
	if document == "" {
		return "", fmt.Errorf("schema document is required")
	}

	var version string
	err := s.recorder.Observe("write", func() error {
		if err := s.ValidateSchema(ctx, document); err != nil {
			return err
		}

		var err error
		version, err = s.schemaRepo.Create(ctx, name, document)
		if err != nil {
			return fmt.Errorf("failed to create schema version: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

// ReadSchema retrieves the latest version of a document
func (s *SchemaService) ReadSchema(ctx context.Context, name string) (*entities.Schema, error) {
	return s.GetSchemaVersion(ctx, name, "")
}

// GetSchemaVersion retrieves a version of a document with its Definition populated.
// version="" means use the latest version
func (s *SchemaService) GetSchemaVersion(ctx context.Context, name string, version string) (*entities.Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("schema name is required")
	}

	var (
		schema *entities.Schema
		err    error
	)
	if version == "" {
		schema, err = s.schemaRepo.GetLatestVersion(ctx, name)
	} else {
		schema, err = s.schemaRepo.GetByVersion(ctx, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	def, err := parser.ParseDefinition([]byte(schema.Document))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", schema.CacheKey(), err)
	}
	schema.Definition = def
	return schema, nil
}

// ListVersions returns the stored versions of a document, newest first
func (s *SchemaService) ListVersions(ctx context.Context, name string) ([]*entities.SchemaVersion, error) {
	if name == "" {
		return nil, fmt.Errorf("schema name is required")
	}

	versions, err := s.schemaRepo.ListVersions(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list schema versions: %w", err)
	}
	return versions, nil
}

// ValidateSchema checks that a document parses and resolves without storing it
func (s *SchemaService) ValidateSchema(ctx context.Context, document string) error {
	if document == "" {
		return fmt.Errorf("schema document is required")
	}

	def, err := parser.ParseDefinition([]byte(document))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if _, err := resolver.Resolve(def); err != nil {
		return fmt.Errorf("schema resolution failed: %w", err)
	}
	return nil
}

// DeleteSchema deletes every version of a document and drops its resolutions
func (s *SchemaService) DeleteSchema(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("schema name is required")
	}

	if err := s.schemaRepo.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	return s.Invalidate(ctx, name)
}

// Resolve loads a stored document and resolves it.
// version="" means use the latest version
func (s *SchemaService) Resolve(ctx context.Context, name string, version string) (*resolver.Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("schema name is required")
	}

	var resolved *resolver.Schema
	err := s.recorder.Observe("resolve", func() error {
		var stored *entities.Schema
		if version == "" {
			// The latest version is needed to build the cache key
			var err error
			stored, err = s.schemaRepo.GetLatestVersion(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to get schema: %w", err)
			}
			version = stored.Version
		}

		key := entities.SchemaCacheKey(name, version)
		if s.resolved != nil {
			if cached, ok := s.resolved.Get(ctx, key); ok {
				s.recorder.CacheHit()
				resolved = cached
				return nil
			}
			s.recorder.CacheMiss()
		}

		if stored == nil {
			var err error
			stored, err = s.schemaRepo.GetByVersion(ctx, name, version)
			if err != nil {
				return fmt.Errorf("failed to get schema: %w", err)
			}
		}

		schema, err := resolveDocument(stored.Document)
		if err != nil {
			return fmt.Errorf("failed to resolve schema %s: %w", key, err)
		}

		if s.resolved != nil {
			if err := s.resolved.Set(ctx, key, schema, s.ttl); err != nil {
				return fmt.Errorf("failed to cache schema %s: %w", key, err)
			}
		}
		s.recorder.Catalogues(name, len(schema.Storage.Collections()), len(schema.Views.Views()))
		resolved = schema
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// ResolveFile resolves the document at path without touching the repository or the cache
func (s *SchemaService) ResolveFile(ctx context.Context, path string) (*resolver.Schema, error) {
	if path == "" {
		return nil, fmt.Errorf("schema file path is required")
	}

	var resolved *resolver.Schema
	err := s.recorder.Observe("resolve_file", func() error {
		def, err := parser.LoadDefinitionFile(path)
		if err != nil {
			return err
		}
		resolved, err = resolver.Resolve(def)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Invalidate drops the cached resolutions of a document.
// An empty name drops every cached resolution.
func (s *SchemaService) Invalidate(ctx context.Context, name string) error {
	if s.resolved == nil {
		return nil
	}

	s.recorder.Invalidation()
	if name == "" {
		return s.resolved.Clear(ctx)
	}
	if _, err := s.resolved.DeletePrefix(ctx, entities.SchemaCacheKey(name, "")); err != nil {
		return fmt.Errorf("failed to invalidate schema %s: %w", name, err)
	}
	return nil
}

// IsNotFound reports whether err means the requested document does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrSchemaNotFound)
}

func resolveDocument(document string) (*resolver.Schema, error) {
	def, err := parser.ParseDefinition([]byte(document))
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(def)
}
