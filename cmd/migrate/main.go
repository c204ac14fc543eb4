package main

import (
	"context"
	"log"
	"time"

	"github.com/go-auth-2fa/internal/config"
	"github.com/go-auth-2fa/internal/infrastructure/dynamo"
	"github.com/go-auth-2fa/internal/infrastructure/postgres"
	"github.com/joho/godotenv"
)

// migrate creates the users table for the configured USER_STORE. It is safe
// to run repeatedly.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cfg.UserStore {
	case "dynamo":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("dynamodb client: %v", err)
		}
		if err := dynamo.Bootstrap(ctx, client, cfg.DynamoTables); err != nil {
			log.Fatalf("bootstrap dynamodb: %v", err)
		}
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate postgres: %v", err)
		}
	default:
		log.Printf("USER_STORE=%s needs no migration", cfg.UserStore)
		return
	}
	log.Printf("users table ready (store=%s)", cfg.UserStore)
}
