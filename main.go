package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"quizbank-server/attempt"
	"quizbank-server/auth"
	"quizbank-server/config"
	"quizbank-server/db"
	"quizbank-server/exam"
	"quizbank-server/handlers"
	"quizbank-server/middleware"
	"quizbank-server/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to open store: %v", err)
	}
	defer store.Close()

	verifier, err := auth.NewVerifier(cfg.Auth.PasswordScheme)
	if err != nil {
		log.Fatalf("Invalid password scheme: %v", err)
	}

	if cfg.SeedFile != "" {
		seed, err := db.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("Error loading seed data: %v", err)
		}
		if err := db.Seed(ctx, store, seed, verifier.Hash); err != nil {
			log.Fatalf("Error seeding database: %v", err)
		}
	}

	assets, err := storage.NewLocalAssets(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	if err != nil {
		log.Fatalf("Error preparing uploads directory: %v", err)
	}

	tracker, err := openTracker(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to open practice store: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.Logger(), gin.Recovery(), middleware.CORS())

	handlers.Register(router, handlers.Deps{
		Store:     store,
		Assets:    assets,
		Assembler: exam.NewAssembler(store, nil),
		Verifier:  verifier,
		Tracker:   tracker,
	})

	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	// Goroutine to gracefully shut down the server
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Quiz bank server starting on %s (store=%s, practice=%s)", cfg.ServerPort, cfg.StoreDriver, cfg.Practice.Store)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server startup error: %v", err)
	}
	log.Println("Server exited gracefully.")
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Println("Using in-memory store; data is lost on restart")
		return db.NewMemStore(), nil
	}
	pool, err := db.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return db.NewPGStore(pool), nil
}

// openTracker returns nil when practice attempts are disabled.
func openTracker(ctx context.Context, cfg *config.Config) (*attempt.Tracker, error) {
	switch cfg.Practice.Store {
	case config.PracticeRedis:
		client, err := attempt.InitRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return attempt.NewTracker(attempt.NewRedisStore(client, cfg.Practice.TTL)), nil
	case config.PracticeMemory:
		return attempt.NewTracker(attempt.NewMemoryStore()), nil
	default:
		log.Println("Practice attempts disabled")
		return nil, nil
	}
}
