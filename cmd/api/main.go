package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-auth-2fa/internal/config"
	"github.com/go-auth-2fa/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-2fa/internal/infrastructure/jwt"
	"github.com/go-auth-2fa/internal/infrastructure/memory"
	"github.com/go-auth-2fa/internal/infrastructure/postgres"
	redisinfra "github.com/go-auth-2fa/internal/infrastructure/redis"
	"github.com/go-auth-2fa/internal/infrastructure/smtp"
	"github.com/go-auth-2fa/internal/infrastructure/sns"
	"github.com/go-auth-2fa/internal/pkg/password"
	transporthttp "github.com/go-auth-2fa/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	userRepo, closeStore := newUserRepo(ctx, cfg)
	defer closeStore()

	lockout, challenges, closeCache := newCaches(ctx, cfg)
	defer closeCache()

	notifier := newNotifier(ctx, cfg)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:   userRepo,
		Hasher:     password.New(cfg.PasswordHasher, cfg.BcryptCost),
		Lockout:    lockout,
		Challenges: challenges,
		Notifier:   notifier,
		Tokens:     jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s, cache=%s, notifier=%s)",
			cfg.AppPort, cfg.AppEnv, cfg.UserStore, cfg.CacheBackend, cfg.Notifier)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func newUserRepo(ctx context.Context, cfg *config.Config) (transporthttp.UserRepository, func()) {
	switch cfg.UserStore {
	case "dynamo":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("dynamodb client: %v", err)
		}
		return dynamo.NewUserRepo(client, cfg.DynamoTables.Users), func() {}
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		return postgres.NewUserRepo(pool), pool.Close
	case "memory":
		log.Println("WARN: in-memory user store, accounts are lost on restart")
		return memory.NewUserRepo(), func() {}
	default:
		log.Fatalf("unknown USER_STORE %q", cfg.UserStore)
		return nil, nil
	}
}

func newCaches(ctx context.Context, cfg *config.Config) (transporthttp.LockoutTracker, transporthttp.ChallengeCache, func()) {
	switch cfg.CacheBackend {
	case "redis":
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Printf("redis close: %v", err)
			}
		}
		return redisinfra.NewLockoutTracker(client, cfg.LockoutThreshold, cfg.LockoutWindow),
			redisinfra.NewChallengeCache(client, cfg.OTPTTL),
			closeFn
	case "memory":
		return memory.NewLockoutTracker(cfg.LockoutThreshold, cfg.LockoutWindow),
			memory.NewChallengeCache(cfg.OTPTTL),
			func() {}
	default:
		log.Fatalf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
		return nil, nil, nil
	}
}

func newNotifier(ctx context.Context, cfg *config.Config) transporthttp.Notifier {
	switch cfg.Notifier {
	case "sns":
		n, err := sns.NewNotifier(ctx, cfg)
		if err != nil {
			log.Fatalf("sns notifier: %v", err)
		}
		return n
	case "smtp":
		return smtp.NewMailer(cfg)
	default:
		log.Fatalf("unknown NOTIFIER %q", cfg.Notifier)
		return nil
	}
}
