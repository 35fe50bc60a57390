package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/asakaida/mdschema/internal/repositories"
	"github.com/google/uuid"
)

const (
	documentV1 = "Database:\n  site:\n    schema:\n      lat: {type: double}\nMetadata: {}\n"
	documentV2 = "Database:\n  site:\n    schema:\n      lat: {type: double}\n      lon: {type: double}\nMetadata: {}\n"
)

func TestSchemaRepository_Create(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewPostgresSchemaRepository(db)
	ctx := context.Background()

	t.Run("creates a UUIDv7 version", func(t *testing.T) {
		version, err := repo.Create(ctx, "mspass", documentV1)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		id, err := uuid.Parse(version)
		if err != nil {
			t.Fatalf("Expected a UUID version, got %q: %v", version, err)
		}
		if id.Version() != 7 {
			t.Errorf("Expected UUID version 7, got %d", id.Version())
		}
	})

	t.Run("each create is a new version", func(t *testing.T) {
		version1, err := repo.Create(ctx, "multi", documentV1)
		if err != nil {
			t.Fatalf("Expected no error on first create, got: %v", err)
		}
		version2, err := repo.Create(ctx, "multi", documentV2)
		if err != nil {
			t.Fatalf("Expected no error on second create, got: %v", err)
		}
		if version1 == version2 {
			t.Error("Expected different versions for different creates")
		}
	})
}

func TestSchemaRepository_GetLatestVersion(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewPostgresSchemaRepository(db)
	ctx := context.Background()

	t.Run("returns the newest version", func(t *testing.T) {
		version1, err := repo.Create(ctx, "latest", documentV1)
		if err != nil {
			t.Fatalf("Failed to create schema v1: %v", err)
		}
		version2, err := repo.Create(ctx, "latest", documentV2)
		if err != nil {
			t.Fatalf("Failed to create schema v2: %v", err)
		}

		schema, err := repo.GetLatestVersion(ctx, "latest")
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if schema.Name != "latest" {
			t.Errorf("Expected name latest, got %s", schema.Name)
		}
		if schema.Version != version2 {
			t.Errorf("Expected version %s, got %s", version2, schema.Version)
		}
		if schema.Document != documentV2 {
			t.Errorf("Expected document %q, got %q", documentV2, schema.Document)
		}
		if schema.CreatedAt.IsZero() || schema.UpdatedAt.IsZero() {
			t.Error("Expected non-zero timestamps")
		}

		old, err := repo.GetByVersion(ctx, "latest", version1)
		if err != nil {
			t.Fatalf("Expected to get old version, got error: %v", err)
		}
		if old.Document != documentV1 {
			t.Errorf("Expected old document %q, got %q", documentV1, old.Document)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		schema, err := repo.GetLatestVersion(ctx, "nonexistent")
		if !errors.Is(err, repositories.ErrSchemaNotFound) {
			t.Errorf("Expected ErrSchemaNotFound, got: %v", err)
		}
		if schema != nil {
			t.Errorf("Expected nil schema when error occurs, got: %+v", schema)
		}
	})
}

func TestSchemaRepository_GetByVersion(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewPostgresSchemaRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "byversion", documentV1); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	schema, err := repo.GetByVersion(ctx, "byversion", uuid.NewString())
	if !errors.Is(err, repositories.ErrSchemaNotFound) {
		t.Errorf("Expected ErrSchemaNotFound, got: %v", err)
	}
	if schema != nil {
		t.Errorf("Expected nil schema when error occurs, got: %+v", schema)
	}
}

func TestSchemaRepository_ListVersions(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewPostgresSchemaRepository(db)
	ctx := context.Background()

	var created []string
	for _, doc := range []string{documentV1, documentV2, documentV1} {
		v, err := repo.Create(ctx, "listed", doc)
		if err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
		created = append(created, v)
	}

	versions, err := repo.ListVersions(ctx, "listed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(versions) != len(created) {
		t.Fatalf("Expected %d versions, got %d", len(created), len(versions))
	}
	if versions[0].Version != created[len(created)-1] {
		t.Errorf("Expected newest version %s first, got %s", created[len(created)-1], versions[0].Version)
	}

	if _, err := repo.ListVersions(ctx, "nonexistent"); !errors.Is(err, repositories.ErrSchemaNotFound) {
		t.Errorf("Expected ErrSchemaNotFound, got: %v", err)
	}
}

func TestSchemaRepository_Delete(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	repo := NewPostgresSchemaRepository(db)
	ctx := context.Background()

	t.Run("removes every version", func(t *testing.T) {
		for _, doc := range []string{documentV1, documentV2} {
			if _, err := repo.Create(ctx, "deleted", doc); err != nil {
				t.Fatalf("Failed to create schema: %v", err)
			}
		}
		if err := repo.Delete(ctx, "deleted"); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if _, err := repo.GetLatestVersion(ctx, "deleted"); !errors.Is(err, repositories.ErrSchemaNotFound) {
			t.Errorf("Expected ErrSchemaNotFound after delete, got: %v", err)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if err := repo.Delete(ctx, "nonexistent"); !errors.Is(err, repositories.ErrSchemaNotFound) {
			t.Errorf("Expected ErrSchemaNotFound, got: %v", err)
		}
	})
}
