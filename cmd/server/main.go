package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/api/handlers"
	"github.com/maheshrc27/postflow/internal/api/middleware"
	"github.com/maheshrc27/postflow/internal/database"
	job "github.com/maheshrc27/postflow/internal/jobs"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := database.Migrate(db, "up"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	postRepo := repository.NewPostRepository(db)
	postingHistoryRepo := repository.NewPostingHistoryRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)

	var sweepLock repository.SweepLock
	var asynqClient *asynq.Client
	var asynqServer *asynq.Server
	if cfg.RedisURI != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisURI,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		defer rdb.Close()
		sweepLock = repository.NewRedisSweepLock(rdb)

		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		asynqClient = asynq.NewClient(redisConn)
		defer asynqClient.Close()
		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 1,
			Queues:      map[string]int{queue.SweepQueue: 1},
		})
	} else {
		log.Println("Warning: REDIS_URI is not set, sweeps are only guarded within this process")
		sweepLock = repository.NewLocalSweepLock()
	}

	var storage service.MediaStorage
	if cfg.R2.BucketName != "" {
		r2Service, err := service.NewR2Service(context.Background(), cfg.R2)
		if err != nil {
			log.Fatalf("Failed to configure R2: %v", err)
		}
		storage = r2Service
	}

	publishService := service.NewPublishService(*cfg, postRepo, postingHistoryRepo, sweepLock, service.NewPublishers(*cfg))
	postService := service.NewPostService(db, postRepo, postingHistoryRepo, mediaAssetRepo, storage)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")

	post := handlers.NewPostHandler(postService, publishService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Get("/posts/:id/history", post.GetPostHistory)

	sweep := handlers.NewSweepHandler(publishService)
	api.Post("/sweep", authMiddleware.CronSecret(), sweep.RunSweep)

	// cron jobs
	var sweepJob *job.SweepJob
	if asynqClient != nil {
		sweepJob = job.NewSweepJob(asynqClient, publishService, cfg.SweepLockTTL)
	} else {
		sweepJob = job.NewSweepJob(nil, publishService, cfg.SweepLockTTL)
	}

	c := cron.New()
	if err := c.AddFunc(cfg.SweepSchedule, sweepJob.Run); err != nil {
		log.Fatalf("Invalid sweep schedule %q: %v", cfg.SweepSchedule, err)
	}
	c.Start()
	defer c.Stop()

	//queue
	if asynqServer != nil {
		queueW := queue.NewQueue(publishService)

		go func() {
			mux := asynq.NewServeMux()
			mux.HandleFunc(queue.TaskTypeSweepDuePosts, queueW.HandleSweepTask)

			log.Println("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, asynqServer)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, asynqServer *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	if asynqServer != nil {
		asynqServer.Shutdown()
	}

	log.Println("Server shutdown complete.")
}
