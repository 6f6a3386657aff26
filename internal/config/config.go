package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Secret          string
	HTTPPort        string
	DatabaseDriver  string
	DatabaseDSN     string
	RedisAddr       string
	CatalogCacheTTL time.Duration
	AMQPURL         string
	SeedCSV         string
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	secret := env("SECRET", "dev_secret")
	port := env("HTTP_PORT", "8080")

	driver := env("DATABASE_DRIVER", "sqlite")
	if driver != "sqlite" && driver != "pgx" {
		log.Printf("unknown DATABASE_DRIVER %q, defaulting to sqlite", driver)
		driver = "sqlite"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		if driver == "sqlite" {
			dsn = "clinicpos.db"
		} else {
			host := env("HOST", "localhost")
			user := env("USER", "postgres")
			dbPort := env("PORT", "5432")
			name := env("NAME", "clinicpos")
			password := os.Getenv("PASSWORD")
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, dbPort, name)
		}
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	ttl := 30 * time.Second
	if raw := os.Getenv("CATALOG_CACHE_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			log.Printf("invalid CATALOG_CACHE_TTL value %q, defaulting to %s", raw, ttl)
		} else {
			ttl = parsed
		}
	}

	return Config{
		Secret:          secret,
		HTTPPort:        port,
		DatabaseDriver:  driver,
		DatabaseDSN:     dsn,
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		CatalogCacheTTL: ttl,
		AMQPURL:         os.Getenv("AMQP_URL"),
		SeedCSV:         env("SEED_CSV", "assets/medicines.csv"),
	}
}
