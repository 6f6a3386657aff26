package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"clinicpos/m/internal/api"
	"clinicpos/m/internal/cache"
	"clinicpos/m/internal/checkout"
	"clinicpos/m/internal/config"
	"clinicpos/m/internal/database"
	"clinicpos/m/internal/events"
	"clinicpos/m/internal/migrations"
	"clinicpos/m/internal/seed"
	"clinicpos/m/internal/store"
	"clinicpos/m/internal/store/sqlstore"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)
	seed.LoadMedicines(db, cfg.SeedCSV)

	var st store.Store = sqlstore.New(db)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis at %s unavailable, catalog cache disabled: %v", cfg.RedisAddr, err)
		} else {
			st = cache.NewCatalog(st, client, cfg.CatalogCacheTTL)
			log.Printf("catalog cache enabled (ttl %s)", cfg.CatalogCacheTTL)
		}
	}

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		conn, ch, err := events.SetupConn(cfg.AMQPURL, 5)
		if err != nil {
			log.Printf("sale events disabled: %v", err)
		} else {
			defer conn.Close()
			defer ch.Close()
			pub = events.NewPublisher(ch)
		}
	}

	sessions := checkout.NewManager(st, st, checkout.NewFinalizer(st, st))
	handler := api.New(st, sessions, pub, cfg.Secret)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Clinic POS server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("Clinic POS server stopped.")
}
