package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/asakaida/mdschema/internal/infrastructure/config"
)

func TestPostgres_Close(t *testing.T) {
	tests := []struct {
		name    string
		pg      *Postgres
		wantErr bool
	}{
		{
			name:    "nil DB",
			pg:      &Postgres{DB: nil},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pg.Close()
			if (err != nil) != tt.wantErr {
				t.Errorf("Postgres.Close() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPostgres_InvalidConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "invalid-host-that-does-not-exist",
		Port:     99999,
		User:     "invalid",
		Password: "invalid",
		Database: "invalid",
		SSLMode:  "disable",
	}

	pg, err := NewPostgres(cfg)
	if err == nil {
		if pg != nil && pg.DB != nil {
			pg.Close()
		}
		t.Error("NewPostgres() with invalid config should return error")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/postgres/*.sql")
	if err != nil {
		t.Fatalf("fs.Glob() error = %v", err)
	}

	ups, downs := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			ups++
		case strings.HasSuffix(f, ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected migration file %s", f)
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("got %d up and %d down migrations, want a matching non-zero count", ups, downs)
	}

	trigger, err := fs.ReadFile(migrations, "migrations/postgres/000002_notify_schema_changed.up.sql")
	if err != nil {
		t.Fatalf("fs.ReadFile() error = %v", err)
	}
	if !strings.Contains(string(trigger), "'"+ChangeChannel+"'") {
		t.Errorf("trigger does not notify on %s", ChangeChannel)
	}
}
