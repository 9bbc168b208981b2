package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/redis/go-redis/v9"
)

// sweep runs a single due-post pass and prints the result as JSON.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var sweepLock repository.SweepLock
	if cfg.RedisURI != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
		defer rdb.Close()
		sweepLock = repository.NewRedisSweepLock(rdb)
	} else {
		sweepLock = repository.NewLocalSweepLock()
	}

	publishService := service.NewPublishService(
		*cfg,
		repository.NewPostRepository(db),
		repository.NewPostingHistoryRepository(db),
		sweepLock,
		service.NewPublishers(*cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := publishService.RunDuePostSweep(ctx)
	if err != nil {
		var scanErr *service.ScanError
		if errors.As(err, &scanErr) {
			log.Printf("Sweep aborted: %v", err)
		} else {
			log.Printf("Sweep failed: %v", err)
		}
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}
