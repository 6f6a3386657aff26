package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SECRET", "HTTP_PORT", "DATABASE_DRIVER", "DATABASE_DSN", "REDIS_ADDR", "CATALOG_CACHE_TTL", "AMQP_URL", "SEED_CSV"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Secret != "dev_secret" || cfg.HTTPPort != "8080" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabaseDSN != "clinicpos.db" {
		t.Errorf("database = %s %s", cfg.DatabaseDriver, cfg.DatabaseDSN)
	}
	if cfg.CatalogCacheTTL != 30*time.Second || cfg.SeedCSV != "assets/medicines.csv" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadPostgres(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("HOST", "db")
	t.Setenv("USER", "clinic")
	t.Setenv("PORT", "5433")
	t.Setenv("NAME", "pos")
	t.Setenv("PASSWORD", "pw")
	t.Setenv("HTTP_PORT", "abc")
	t.Setenv("CATALOG_CACHE_TTL", "2m")

	cfg := Load()
	if want := "postgres://clinic:pw@db:5433/pos?sslmode=disable"; cfg.DatabaseDSN != want {
		t.Errorf("dsn = %s", cfg.DatabaseDSN)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("port = %s", cfg.HTTPPort)
	}
	if cfg.CatalogCacheTTL != 2*time.Minute {
		t.Errorf("ttl = %s", cfg.CatalogCacheTTL)
	}
}
