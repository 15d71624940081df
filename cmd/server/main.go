package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"lingorelay/internal/config"
	"lingorelay/internal/database"
	"lingorelay/internal/handlers"
	"lingorelay/internal/jobs"
	"lingorelay/internal/logging"
	"lingorelay/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Lingorelay...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, cache: %d entries / %v TTL, retention: %v)",
		cfg.Port, cfg.CacheMaxSize, cfg.CacheTTL, cfg.RetentionWindow)

	if cfg.BotToken == "" {
		log.Fatal("❌ TELEGRAM_BOT_TOKEN environment variable is required")
	}
	if cfg.TranslatorAPIKey == "" {
		log.Fatal("❌ TRANSLATOR_API_KEY environment variable is required")
	}

	// Durable correlation storage (SQLite)
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// MongoDB analytics mirror (optional)
	var mongoDB *database.MongoDB
	var analyticsService *services.AnalyticsService
	if cfg.MongoURI != "" {
		log.Println("🔗 Connecting to MongoDB...")
		mongoDB, err = database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			log.Printf("⚠️ Failed to connect to MongoDB: %v (analytics mirror disabled)", err)
		} else {
			defer mongoDB.Close(context.Background())
			analyticsService = services.NewAnalyticsService(mongoDB)
			log.Println("✅ Analytics mirror initialized")
		}
	} else {
		log.Println("⚠️ MONGODB_URI not set - analytics mirror disabled")
	}

	// Redis event fanout (optional)
	var pubsubService *services.PubSubService
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (event fanout disabled)", err)
		} else {
			defer redisService.Close()
			pubsubService = services.NewPubSubService(redisService)
			log.Println("✅ Event fanout initialized")
		}
	} else {
		log.Println("⚠️ REDIS_URL not set - event fanout disabled")
	}

	// Core services
	metrics := services.InitMetrics()
	detector := services.NewDetectorService()
	translator := services.NewTranslationService(
		cfg.TranslatorBaseURL, cfg.TranslatorAPIKey, cfg.TranslatorModel, cfg.TranslatorTimeout)
	store := services.NewCorrelationStore(db, cfg.CacheMaxSize, cfg.CacheTTL, metrics)
	telegram := services.NewTelegramService(cfg.BotToken, cfg.PollTimeout)

	router := services.NewRouterService(
		detector, translator, telegram, store,
		analyticsService, pubsubService,
		cfg.ConfidenceThreshold, metrics,
	)
	telegram.SetHandlers(router.HandleInbound, router.HandleReply)

	// Verify the bot token before polling
	verifyCtx, cancelVerify := context.WithTimeout(context.Background(), 10*time.Second)
	botUsername, err := telegram.GetMe(verifyCtx)
	cancelVerify()
	if err != nil {
		log.Fatalf("❌ Failed to verify bot token: %v", err)
	}
	log.Printf("🤖 Relaying as @%s", botUsername)

	// Retention sweeper: cache TTL eviction + durable purge
	scheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	sweeper := jobs.NewRetentionSweeper(store, analyticsService, cfg.RetentionWindow)

	// Run one sweep on startup, matching the original maintenance pass
	if err := sweeper.Run(context.Background()); err != nil {
		log.Printf("⚠️ Startup retention sweep failed: %v", err)
	}

	if err := scheduler.AddPeriodic("retention-sweep", cfg.SweepInterval, sweeper.Run); err != nil {
		log.Fatalf("❌ Failed to register retention sweep: %v", err)
	}
	scheduler.Start()

	telegram.StartPolling()

	// HTTP server: health, stats API, prometheus
	app := fiber.New(fiber.Config{
		AppName:      "Lingorelay v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("lingorelay")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET",
	}))

	healthHandler := handlers.NewHealthHandler(store)
	statsHandler := handlers.NewStatsHandler(analyticsService)

	app.Get("/health", healthHandler.Handle)
	app.Get("/api/stats", statsHandler.GetStats)
	app.Get("/api/translations/recent", statsHandler.GetRecentTranslations)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		telegram.Stop()

		if err := scheduler.Shutdown(); err != nil {
			log.Printf("⚠️ Error stopping scheduler: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
