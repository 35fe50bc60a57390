package e2e

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	infracache "github.com/asakaida/mdschema/internal/infrastructure/cache"
	"github.com/asakaida/mdschema/internal/infrastructure/config"
	"github.com/asakaida/mdschema/internal/infrastructure/database"
	"github.com/asakaida/mdschema/internal/infrastructure/metrics"
	"github.com/asakaida/mdschema/internal/repositories/postgres"
	"github.com/asakaida/mdschema/internal/services"
	"github.com/asakaida/mdschema/internal/services/resolver"
	"github.com/asakaida/mdschema/pkg/cache/memorycache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

// E2ETestEnv is a PostgreSQL-backed test environment shared by instances
type E2ETestEnv struct {
	Config *config.Config
	DB     *sql.DB
}

// Instance is one process worth of schema service: its own cache, metrics
// and change listener over the shared database
type Instance struct {
	Service   *services.SchemaService
	Cache     *memorycache.Cache[*resolver.Schema]
	Collector *metrics.Collector
	Listener  *infracache.ChangeListener
}

// SetupE2ETest connects to the database from .env.test.
// The test is skipped when the database is unreachable.
func SetupE2ETest(t *testing.T) *E2ETestEnv {
	t.Helper()

	viper.Reset()
	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}
	viper.Set("SCHEMA_SOURCE", config.SourcePostgres)

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("skipping e2e test: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("skipping e2e test: %v", err)
	}
	if err := pg.RunMigrations(); err != nil {
		pg.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	env := &E2ETestEnv{Config: cfg, DB: pg.DB}
	cleanupDatabase(t, env.DB)
	return env
}

// NewInstance starts a schema service with its own cache and change listener
func (e *E2ETestEnv) NewInstance(t *testing.T) *Instance {
	t.Helper()

	resolved, err := memorycache.New[*resolver.Schema](&memorycache.Config{
		MaxEntries:    16,
		DefaultTTL:    time.Minute,
		EnableMetrics: true,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	collector := metrics.NewCollector()
	collector.SetCache(resolved)
	recorder := metrics.NewRecorder(collector, metrics.NewPrometheusExporter(collector, prometheus.NewRegistry()))
	service := services.NewSchemaService(postgres.NewPostgresSchemaRepository(e.DB), resolved, recorder)

	listener := infracache.NewChangeListener(e.Config.Database.ConnectionString(), service)
	listener.Logf = t.Logf
	ctx, cancel := context.WithCancel(context.Background())
	if err := listener.Start(ctx); err != nil {
		cancel()
		t.Fatalf("failed to start change listener: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		listener.Stop()
		resolved.Close()
	})

	return &Instance{
		Service:   service,
		Cache:     resolved,
		Collector: collector,
		Listener:  listener,
	}
}

// Teardown cleans up the E2E test environment
func (e *E2ETestEnv) Teardown(t *testing.T) {
	t.Helper()

	if e.DB != nil {
		cleanupDatabase(t, e.DB)
		e.DB.Close()
	}
}

// cleanupDatabase removes all documents from the test database
func cleanupDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "DELETE FROM schema_documents"); err != nil {
		t.Logf("warning: failed to clean up table schema_documents: %v", err)
	}
}

// waitFor polls cond until it holds or the timeout expires
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		<-ticker.C
	}
}

// readTestdata returns a document from the repository testdata directory
func readTestdata(t *testing.T, name string) string {
	t.Helper()

	root, err := findProjectRoot()
	if err != nil {
		t.Fatalf("failed to find project root: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "testdata", name))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
