package postgres

import (
	"database/sql"
	"testing"

	"github.com/asakaida/mdschema/internal/infrastructure/config"
	"github.com/asakaida/mdschema/internal/infrastructure/database"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

// SetupTestDB creates a test database connection and runs migrations.
// The test is skipped when the database from .env.test is unreachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	viper.Reset()
	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}
	viper.Set("SCHEMA_SOURCE", config.SourcePostgres)

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: %v", err)
	}

	if err := pg.RunMigrations(); err != nil {
		pg.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return pg.DB
}

// CleanupTestDB removes test documents and closes the connection
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec("DELETE FROM schema_documents"); err != nil {
		t.Logf("Warning: Failed to clean up table schema_documents: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}
