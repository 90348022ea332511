package main

import (
	"askchat-backend/internal/api"
	"askchat-backend/internal/auth"
	"askchat-backend/internal/config"
	"askchat-backend/internal/generator"
	"askchat-backend/internal/handlers"
	"askchat-backend/internal/ratelimit"
	"askchat-backend/internal/services"
	"askchat-backend/internal/store"
	"askchat-backend/internal/store/memory"
	"askchat-backend/internal/store/postgres"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	log.Println("Starting AskChat Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// Lives until shutdown; stops the rate-limit sweeper.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// 2. Initialize Store
	var dataStore store.Store
	switch cfg.StoreDriver {
	case "memory":
		dataStore = memory.New()
		log.Println("WARN: Using in-memory store, data is lost on restart.")
	default:
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dbCancel()

		dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("FATAL: Unable to create database connection pool: %v\n", err)
		}
		defer dbpool.Close()

		if err := dbpool.Ping(dbCtx); err != nil {
			log.Fatalf("FATAL: Unable to ping database: %v\n", err)
		}
		log.Println("Database connection pool established and pinged successfully.")

		pgStore := postgres.NewPostgresStore(dbpool)
		if err := pgStore.EnsureSchema(dbCtx); err != nil {
			log.Fatalf("FATAL: Unable to prepare database schema: %v", err)
		}
		dataStore = pgStore
		log.Println("Postgres store initialized.")
	}

	// 3. Initialize Admission Control
	var limiterStore ratelimit.Store
	switch cfg.RateLimit.Backend {
	case "redis":
		opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
		if err != nil {
			log.Fatalf("FATAL: Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Fatalf("FATAL: Unable to ping Redis: %v", err)
		}
		limiterStore = ratelimit.NewRedisStore(rdb)
		log.Println("Redis rate-limit store initialized.")
	default:
		limiterStore = ratelimit.NewMemoryStore()
		log.Println("In-memory rate-limit store initialized.")
	}
	limiter := ratelimit.NewLimiter(limiterStore, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	limiter.StartSweeper(appCtx, cfg.RateLimit.SweepInterval)

	// 4. Initialize Answer Generator
	gen, err := generator.New(appCtx, cfg.LLM)
	if err != nil {
		log.Fatalf("FATAL: Failed to create answer generator: %v", err)
	}
	log.Printf("Answer generator initialized (provider=%s, model=%s).", cfg.LLM.Provider, cfg.LLM.Model)

	// --- Initialize Services ---
	authService := services.NewAuthService(dataStore, cfg)
	log.Println("AuthService initialized.")
	askService := services.NewAskService(dataStore, gen)
	log.Println("AskService initialized.")
	chatService := services.NewChatService(dataStore)
	log.Println("ChatService initialized.")

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, cfg.TokenExpiration, cfg.SecureCookies)
	askHandler := handlers.NewAskHandler(askService)
	chatHandler := handlers.NewChatHandlers(chatService)
	log.Println("Handlers initialized.")

	// 5. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler: authHandler,
		AskHandler:  askHandler,
		ChatHandler: chatHandler,
		Sessions:    auth.NewJWTSessions(cfg.JWTSecret),
		Limiter:     limiter,
		Config:      cfg,
	})
	log.Println("HTTP router configured.")

	// 6. Configure and Start HTTP Server
	server := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: 5 * time.Second,
		// Answers wait on the upstream model.
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")
	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
		return
	}

	log.Println("Server shutdown complete.")
}
