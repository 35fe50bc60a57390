package main

import (
	"fmt"
	"log"
	"time"

	"github.com/asakaida/mdschema/internal/infrastructure/config"
	"github.com/asakaida/mdschema/internal/infrastructure/database"
	"github.com/asakaida/mdschema/internal/infrastructure/metrics"
	"github.com/asakaida/mdschema/internal/repositories"
	"github.com/asakaida/mdschema/internal/repositories/file"
	"github.com/asakaida/mdschema/internal/repositories/postgres"
	"github.com/asakaida/mdschema/internal/repositories/sqlite"
	"github.com/asakaida/mdschema/internal/services"
	"github.com/asakaida/mdschema/internal/services/resolver"
	"github.com/asakaida/mdschema/pkg/cache/memorycache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// application holds everything a command needs
type application struct {
	cfg       *config.Config
	pg        *database.Postgres
	sqlite    *database.SQLite
	resolved  *memorycache.Cache[*resolver.Schema]
	collector *metrics.Collector
	exporter  *metrics.PrometheusExporter
	service   *services.SchemaService
}

func setup(cmd *cobra.Command, args []string) error {
	// Initialize configuration from .env.{env} file
	if err := config.InitConfig(envFlag); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	overrides := map[string]string{
		"SCHEMA_FILE":   fileFlag,
		"SCHEMA_DIR":    dirFlag,
		"SCHEMA_NAME":   nameFlag,
		"SCHEMA_SOURCE": sourceFlag,
	}
	for key, value := range overrides {
		if value != "" {
			viper.Set(key, value)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a := &application{cfg: cfg, collector: metrics.NewCollector()}

	repo, err := a.openRepository()
	if err != nil {
		a.close()
		return err
	}

	if cfg.Cache.Enabled {
		a.resolved, err = memorycache.New[*resolver.Schema](&memorycache.Config{
			MaxEntries:    cfg.Cache.MaxEntries,
			DefaultTTL:    time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
			EnableMetrics: true,
		})
		if err != nil {
			a.close()
			return fmt.Errorf("failed to create resolved schema cache: %w", err)
		}
		a.collector.SetCache(a.resolved)
	}

	a.exporter = metrics.NewPrometheusExporter(a.collector, prometheus.NewRegistry())
	recorder := metrics.NewRecorder(a.collector, a.exporter)
	if a.resolved != nil {
		a.service = services.NewSchemaService(repo, a.resolved, recorder)
	} else {
		a.service = services.NewSchemaService(repo, nil, recorder)
	}

	app = a
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if app != nil {
		app.close()
	}
}

// openRepository builds the repository of the configured source
func (a *application) openRepository() (repositories.SchemaRepository, error) {
	switch a.cfg.Schema.Source {
	case config.SourcePostgres:
		pg, err := database.NewPostgres(&a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.pg = pg
		log.Printf("Connected to database: %s@%s:%d/%s",
			a.cfg.Database.User,
			a.cfg.Database.Host,
			a.cfg.Database.Port,
			a.cfg.Database.Database)
		return postgres.NewPostgresSchemaRepository(pg.DB), nil
	case config.SourceSQLite:
		db, err := database.NewSQLite(a.cfg.Schema.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.sqlite = db
		if err := db.RunMigrations(); err != nil {
			return nil, err
		}
		return sqlite.NewSQLiteSchemaRepository(db.DB), nil
	default:
		if a.cfg.Schema.File != "" {
			return file.NewSingleFileSchemaRepository(a.cfg.Schema.File, a.cfg.Schema.Name), nil
		}
		return file.NewFileSchemaRepository(a.cfg.Schema.Dir), nil
	}
}

func (a *application) close() {
	if a.resolved != nil {
		a.resolved.Close()
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}
}

// documentName returns the name given as the first argument or the configured one
func documentName(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return app.cfg.Schema.Name
}
